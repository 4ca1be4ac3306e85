package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/broadcaster/internal/config"
	"github.com/mamadbah2/broadcaster/internal/repository/mongodb"
	"github.com/mamadbah2/broadcaster/internal/repository/sheets"
	"github.com/mamadbah2/broadcaster/internal/scheduler"
	"github.com/mamadbah2/broadcaster/internal/server/handlers"
	"github.com/mamadbah2/broadcaster/internal/server/router"
	"github.com/mamadbah2/broadcaster/internal/service/broadcast"
	"github.com/mamadbah2/broadcaster/pkg/clients/provider"
	"github.com/mamadbah2/broadcaster/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var recipientSource broadcast.RecipientSource
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		recipientSource = sheetsRepo
	} else {
		baseLogger.Warn("google sheets not configured, sheet recipient lists disabled")
	}

	providerClient := provider.NewClient(cfg.Provider, baseLogger.Named("client.provider"))
	assembler := broadcast.NewAssembler(baseLogger.Named("svc.assembler"))
	processor := broadcast.NewProcessor(cfg.Engine, assembler, baseLogger.Named("svc.processor"))
	broadcastSvc := broadcast.NewService(processor, assembler, providerClient, mongoRepo, recipientSource, baseLogger.Named("svc.broadcast"))

	broadcastHandler := handlers.NewBroadcastHandler(broadcastSvc, baseLogger.Named("handlers.broadcast"))
	engine := router.New(broadcastHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Schedule, broadcastSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// broadcasts of a full chunked run outlast the usual API write timeout
	writeTimeout := 2 * time.Minute

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
