package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/broadcaster/internal/config"
	"github.com/mamadbah2/broadcaster/internal/domain/models"
	"github.com/mamadbah2/broadcaster/pkg/logger"
)

// ErrEmptyBatch indicates a bulk send without messages.
var ErrEmptyBatch = errors.New("bulk send requires at least one message")

// Client exposes the messaging provider operations used by the application.
type Client interface {
	SendBulk(ctx context.Context, messages []models.AssembledMessage) (*models.DeliveryResult, error)
	SendSingle(ctx context.Context, recipient models.MessageRecipient, content *models.Content) (*models.DeliveryResult, error)
}

// Error annotates a failed provider call.
type Error struct {
	StatusCode   int
	ErrorMessage string
	Provider     string
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider error: status=%d, message=%s: %v", e.Provider, e.StatusCode, e.ErrorMessage, e.Err)
	}
	return fmt.Sprintf("%s provider error: status=%d, message=%s", e.Provider, e.StatusCode, e.ErrorMessage)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	cfg        config.ProviderConfig
	logger     *zap.Logger
}

// NewClient builds a provider client from explicit configuration.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	if strings.EqualFold(cfg.AuthScheme, config.AuthAPIKey) {
		restyClient.SetHeader("apikey", cfg.APIKey)
	} else {
		restyClient.SetHeader("Authentication", fmt.Sprintf("Bearer %s", cfg.APIKey))
	}

	return &APIClient{
		httpClient: restyClient,
		cfg:        cfg,
		logger:     logger,
	}
}

type bulkResponse struct {
	BatchResponse []struct {
		StatusDesc string `json:"statusDesc"`
	} `json:"batchResponse"`
}

type singleResponse struct {
	BatchStatus string `json:"batchStatus"`
}

// apiError represents a provider error payload.
type apiError struct {
	Message      string `json:"message"`
	ErrorMessage string `json:"errorMessage"`
	StatusDesc   string `json:"statusDesc"`
	Error        struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *apiError) text() string {
	switch {
	case e == nil:
		return ""
	case e.ErrorMessage != "":
		return e.ErrorMessage
	case e.Error.Message != "":
		return e.Error.Message
	case e.Message != "":
		return e.Message
	default:
		return e.StatusDesc
	}
}

// SendBulk posts every assembled message of a broadcast in one request.
func (c *APIClient) SendBulk(ctx context.Context, messages []models.AssembledMessage) (*models.DeliveryResult, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyBatch
	}

	payload := models.BulkRequest{
		Channel:     models.ChannelWABA,
		Sender:      models.Sender{From: c.cfg.SenderNumber},
		MetaData:    models.MetaData{Version: c.cfg.APIVersion},
		Preferences: models.Preferences{WebHookDNId: c.cfg.WebhookDNID},
		Messages:    messages,
	}

	result := new(bulkResponse)
	raw, err := c.post(ctx, c.cfg.BulkPath, payload, result)
	if err != nil {
		c.logger.Error("bulk send failed", zap.Int("messages", len(messages)), zap.Error(err))
		return nil, err
	}

	status := ""
	if len(result.BatchResponse) > 0 {
		status = result.BatchResponse[0].StatusDesc
	}

	c.logger.Info("bulk send accepted", zap.Int("messages", len(messages)), zap.String("status", status))
	return &models.DeliveryResult{Status: status, Data: raw}, nil
}

// SendSingle posts one message.
func (c *APIClient) SendSingle(ctx context.Context, recipient models.MessageRecipient, content *models.Content) (*models.DeliveryResult, error) {
	if recipient.RecipientType == "" {
		recipient.RecipientType = models.RecipientTypeIndividual
	}

	payload := models.SingleRequest{
		Message: models.SingleMessage{
			Channel:     models.ChannelWABA,
			Content:     content,
			Recipient:   recipient,
			Sender:      models.Sender{From: c.cfg.SenderNumber},
			Preferences: models.Preferences{WebHookDNId: c.cfg.WebhookDNID},
		},
		MetaData: models.MetaData{Version: c.cfg.APIVersion},
	}

	result := new(singleResponse)
	raw, err := c.post(ctx, c.cfg.SinglePath, payload, result)
	if err != nil {
		c.logger.Error("single send failed", logger.Phone("to", recipient.To), zap.Error(err))
		return nil, err
	}

	return &models.DeliveryResult{Status: result.BatchStatus, Data: raw}, nil
}

// post issues the request and returns the decoded generic body alongside the
// typed result.
func (c *APIClient) post(ctx context.Context, path string, payload, result any) (map[string]any, error) {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetError(apiErr).
		Post(path)
	if err != nil {
		return nil, &Error{
			Provider:     c.cfg.Name,
			ErrorMessage: err.Error(),
			Err:          fmt.Errorf("send to provider: %w", err),
		}
	}

	if resp.StatusCode() >= http.StatusBadRequest || resp.StatusCode() < http.StatusOK {
		message := apiErr.text()
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return nil, &Error{
			StatusCode:   resp.StatusCode(),
			ErrorMessage: message,
			Provider:     c.cfg.Name,
		}
	}

	raw := map[string]any{}
	if err := decodeInto(resp.Body(), &raw); err != nil {
		return nil, &Error{
			StatusCode:   resp.StatusCode(),
			ErrorMessage: "malformed provider response",
			Provider:     c.cfg.Name,
			Err:          err,
		}
	}

	_ = decodeInto(resp.Body(), result)

	return raw, nil
}

func decodeInto(body []byte, target any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
