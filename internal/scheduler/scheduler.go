package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/broadcaster/internal/config"
	"github.com/mamadbah2/broadcaster/internal/service/broadcast"
)

const runTimeout = 10 * time.Minute

// Runner executes a broadcast for a stored template against a sheet range.
type Runner interface {
	RunScheduled(ctx context.Context, templateName, sheetRange string) (*broadcast.Outcome, error)
}

// Scheduler manages scheduled broadcasts.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	cfg     config.ScheduleConfig
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler creates a scheduler running cron expressions in the configured timezone.
func NewScheduler(cfg config.ScheduleConfig, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
		}
		loc = l
	}

	// standard 5-field parser: min, hour, dom, month, dow
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:    c,
		runner:  runner,
		cfg:     cfg,
		timeout: runTimeout,
		logger:  logger,
	}, nil
}

// Start registers the configured broadcast and starts the scheduler.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled() {
		s.logger.Info("no broadcast schedule configured")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runBroadcast); err != nil {
		return fmt.Errorf("schedule broadcast %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler",
		zap.String("schedule", s.cfg.CronSchedule),
		zap.String("template", s.cfg.TemplateName))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running broadcast to return.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runBroadcast() {
	s.logger.Info("running scheduled broadcast", zap.String("template", s.cfg.TemplateName))
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	outcome, err := s.runner.RunScheduled(ctx, s.cfg.TemplateName, s.cfg.SheetRange)
	if err != nil {
		s.logger.Error("scheduled broadcast failed", zap.String("template", s.cfg.TemplateName), zap.Error(err))
		return
	}

	s.logger.Info("scheduled broadcast sent",
		zap.String("id", outcome.ReportID),
		zap.Int("success", outcome.Stats.SuccessCount),
		zap.Int("failed", outcome.Stats.FailedCount))
}
