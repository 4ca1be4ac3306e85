package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
	"github.com/mamadbah2/broadcaster/internal/repository/mongodb"
	"github.com/mamadbah2/broadcaster/internal/service/broadcast"
	"github.com/mamadbah2/broadcaster/pkg/clients/provider"
)

// BroadcastService is the application surface exposed over HTTP.
type BroadcastService interface {
	Run(ctx context.Context, req models.BroadcastRequest) (*broadcast.Outcome, error)
	SendOne(ctx context.Context, req models.SingleSendRequest) (*models.DeliveryResult, error)
	Report(ctx context.Context, id string) (*models.BroadcastReport, error)
}

// BroadcastHandler handles broadcast and single message HTTP requests.
type BroadcastHandler struct {
	svc    BroadcastService
	logger *zap.Logger
}

// NewBroadcastHandler constructs the HTTP handler adapter.
func NewBroadcastHandler(svc BroadcastService, logger *zap.Logger) *BroadcastHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BroadcastHandler{svc: svc, logger: logger}
}

// CreateBroadcast generates and delivers a broadcast.
func (h *BroadcastHandler) CreateBroadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid broadcast payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	outcome, err := h.svc.Run(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, outcome, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// SendMessage sends one template message to one recipient.
func (h *BroadcastHandler) SendMessage(c *gin.Context) {
	var req models.SingleSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid message payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.SendOne(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, nil, err)
		return
	}

	c.JSON(http.StatusAccepted, result)
}

// GetBroadcast returns a stored broadcast report.
func (h *BroadcastHandler) GetBroadcast(c *gin.Context) {
	report, err := h.svc.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, nil, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *BroadcastHandler) respondError(c *gin.Context, outcome *broadcast.Outcome, err error) {
	body := gin.H{"error": err.Error()}
	if outcome != nil {
		body["id"] = outcome.ReportID
		body["stats"] = outcome.Stats
	}

	var perr *provider.Error
	var aerr *broadcast.AssemblyError
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, broadcast.ErrTemplateRequired),
		errors.Is(err, broadcast.ErrRecipientSourceUnavailable),
		errors.Is(err, provider.ErrEmptyBatch):
		status = http.StatusBadRequest
	case errors.Is(err, mongodb.ErrTemplateNotFound), errors.Is(err, mongodb.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, broadcast.ErrNoValidMessages), errors.As(err, &aerr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &perr):
		status = http.StatusBadGateway
		body["provider"] = perr.Provider
		if perr.StatusCode != 0 {
			body["providerStatus"] = perr.StatusCode
		}
	case errors.Is(err, broadcast.ErrBatchCancelled):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}

	c.JSON(status, body)
}
