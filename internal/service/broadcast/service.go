package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
	"github.com/mamadbah2/broadcaster/pkg/clients/provider"
)

var (
	// ErrTemplateRequired indicates a request with neither an inline template nor a template name.
	ErrTemplateRequired = errors.New("template or templateName is required")

	// ErrRecipientSourceUnavailable indicates a sheet range request while sheets are not configured.
	ErrRecipientSourceUnavailable = errors.New("recipient sheet source is not configured")
)

// Store persists broadcast reports and resolves stored templates.
type Store interface {
	SaveBroadcastReport(ctx context.Context, report models.BroadcastReport) error
	FindBroadcastReport(ctx context.Context, id string) (*models.BroadcastReport, error)
	FindTemplate(ctx context.Context, elementName string) (*models.Template, error)
}

// RecipientSource loads recipient lists from an external sheet.
type RecipientSource interface {
	ReadRecipients(ctx context.Context, sheetRange string) ([]models.Recipient, error)
	AppendReport(ctx context.Context, report models.BroadcastReport) error
}

// Outcome summarizes a broadcast run for the caller.
type Outcome struct {
	ReportID string                 `json:"id"`
	Stats    models.BatchStats      `json:"stats"`
	Delivery *models.DeliveryResult `json:"delivery,omitempty"`
}

// Service runs broadcasts end to end: generation, delivery and reporting.
type Service struct {
	processor  *Processor
	assembler  *Assembler
	client     provider.Client
	store      Store
	recipients RecipientSource
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a broadcast service. recipients may be nil when no sheet is
// configured.
func NewService(processor *Processor, assembler *Assembler, client provider.Client, store Store, recipients RecipientSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if assembler == nil {
		assembler = NewAssembler(logger)
	}
	return &Service{
		processor:  processor,
		assembler:  assembler,
		client:     client,
		store:      store,
		recipients: recipients,
		logger:     logger,
		now:        time.Now,
	}
}

// Run generates and delivers one broadcast and stores its report. When the
// engine or the provider fails, the report is stored as failed and the error is
// returned together with the outcome.
func (s *Service) Run(ctx context.Context, req models.BroadcastRequest) (*Outcome, error) {
	tpl, err := s.template(ctx, req.Template, req.TemplateName)
	if err != nil {
		return nil, err
	}

	recipients := req.Recipients
	if req.SheetRange != "" {
		if s.recipients == nil {
			return nil, ErrRecipientSourceUnavailable
		}
		recipients, err = s.recipients.ReadRecipients(ctx, req.SheetRange)
		if err != nil {
			return nil, fmt.Errorf("load recipients: %w", err)
		}
	}

	report := models.BroadcastReport{
		ID:           uuid.NewString(),
		TemplateName: tpl.ElementName,
		StartedAt:    s.now(),
	}
	outcome := &Outcome{ReportID: report.ID}

	res, err := s.processor.Generate(ctx, tpl, recipients)
	if err != nil {
		outcome.Stats = statsOf(err)
		s.finish(ctx, &report, outcome, err)
		return outcome, err
	}
	outcome.Stats = res.Stats

	delivery, err := s.client.SendBulk(ctx, res.Messages)
	if err != nil {
		s.finish(ctx, &report, outcome, err)
		return outcome, err
	}
	outcome.Delivery = delivery

	s.finish(ctx, &report, outcome, nil)
	return outcome, nil
}

// RunScheduled runs a broadcast for a stored template against a sheet range.
func (s *Service) RunScheduled(ctx context.Context, templateName, sheetRange string) (*Outcome, error) {
	return s.Run(ctx, models.BroadcastRequest{TemplateName: templateName, SheetRange: sheetRange})
}

// SendOne assembles and sends a single template message.
func (s *Service) SendOne(ctx context.Context, req models.SingleSendRequest) (*models.DeliveryResult, error) {
	tpl, err := s.template(ctx, req.Template, req.TemplateName)
	if err != nil {
		return nil, err
	}

	res := s.assembler.Assemble(ctx, tpl, tpl.Kind(), req.Recipient)
	if res.Err != nil {
		return nil, res.Err
	}

	msg := res.Message
	msg.Recipient.Reference.CustRef = req.CustRef

	return s.client.SendSingle(ctx, msg.Recipient, msg.Content)
}

// Report returns a stored broadcast report.
func (s *Service) Report(ctx context.Context, id string) (*models.BroadcastReport, error) {
	return s.store.FindBroadcastReport(ctx, id)
}

func (s *Service) template(ctx context.Context, inline *models.Template, name string) (*models.Template, error) {
	if inline != nil {
		return inline, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTemplateRequired
	}
	return s.store.FindTemplate(ctx, name)
}

// finish stores the report. Storage failures are logged so they never mask the
// broadcast outcome.
func (s *Service) finish(ctx context.Context, report *models.BroadcastReport, outcome *Outcome, runErr error) {
	report.CompletedAt = s.now()
	report.Stats = outcome.Stats
	report.Status = models.BroadcastCompleted
	if outcome.Delivery != nil {
		report.DeliveryStatus = outcome.Delivery.Status
	}
	if runErr != nil {
		report.Status = models.BroadcastFailed
		report.Error = runErr.Error()
	}

	// the request context may already be done; the report still has to land
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.store.SaveBroadcastReport(saveCtx, *report); err != nil {
		s.logger.Error("failed to save broadcast report", zap.String("id", report.ID), zap.Error(err))
	}
	if s.recipients != nil {
		if err := s.recipients.AppendReport(saveCtx, *report); err != nil {
			s.logger.Warn("failed to append broadcast report row", zap.String("id", report.ID), zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("id", report.ID),
		zap.String("template", report.TemplateName),
		zap.String("status", report.Status),
		zap.Int("total", report.Stats.TotalContacts),
		zap.Int("success", report.Stats.SuccessCount),
		zap.Int("failed", report.Stats.FailedCount),
	}
	if runErr != nil {
		s.logger.Warn("broadcast failed", append(fields, zap.Error(runErr))...)
		return
	}
	s.logger.Info("broadcast completed", append(fields, zap.String("delivery_status", report.DeliveryStatus))...)
}

// statsOf extracts the statistics carried by engine errors.
func statsOf(err error) models.BatchStats {
	var noValid *NoValidMessagesError
	if errors.As(err, &noValid) {
		return noValid.Stats
	}
	var cancelled *BatchCancelledError
	if errors.As(err, &cancelled) {
		return cancelled.Stats
	}
	return models.BatchStats{}
}
