package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/broadcaster/internal/config"
	"github.com/mamadbah2/broadcaster/internal/domain/models"
	"github.com/mamadbah2/broadcaster/pkg/clients/provider"
)

var errNotFound = errors.New("not found")

type fakeStore struct {
	mu        sync.Mutex
	reports   map[string]models.BroadcastReport
	templates map[string]*models.Template
}

func newFakeStore() *fakeStore {
	return &fakeStore{reports: map[string]models.BroadcastReport{}, templates: map[string]*models.Template{}}
}

func (f *fakeStore) SaveBroadcastReport(_ context.Context, report models.BroadcastReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[report.ID] = report
	return nil
}

func (f *fakeStore) FindBroadcastReport(_ context.Context, id string) (*models.BroadcastReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, errNotFound
	}
	return &r, nil
}

func (f *fakeStore) FindTemplate(_ context.Context, name string) (*models.Template, error) {
	tpl, ok := f.templates[name]
	if !ok {
		return nil, errNotFound
	}
	return tpl, nil
}

type fakeClient struct {
	mu         sync.Mutex
	bulk       [][]models.AssembledMessage
	single     []models.MessageRecipient
	bulkErr    error
	bulkStatus string
}

func (f *fakeClient) SendBulk(_ context.Context, messages []models.AssembledMessage) (*models.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk = append(f.bulk, messages)
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	return &models.DeliveryResult{Status: f.bulkStatus}, nil
}

func (f *fakeClient) SendSingle(_ context.Context, recipient models.MessageRecipient, _ *models.Content) (*models.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.single = append(f.single, recipient)
	return &models.DeliveryResult{Status: "Submitted"}, nil
}

type fakeSheet struct {
	recipients []models.Recipient
	appended   []models.BroadcastReport
}

func (f *fakeSheet) ReadRecipients(_ context.Context, _ string) ([]models.Recipient, error) {
	return f.recipients, nil
}

func (f *fakeSheet) AppendReport(_ context.Context, report models.BroadcastReport) error {
	f.appended = append(f.appended, report)
	return nil
}

func newTestService(t *testing.T, client provider.Client, store Store, sheet RecipientSource) *Service {
	t.Helper()
	logger := zaptest.NewLogger(t)
	assembler := NewAssembler(logger)
	processor := NewProcessor(config.EngineConfig{}, assembler, logger)
	return NewService(processor, assembler, client, store, sheet, logger)
}

func TestRunDeliversAndStoresReport(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{bulkStatus: "Processed"}
	svc := newTestService(t, client, store, nil)

	outcome, err := svc.Run(context.Background(), models.BroadcastRequest{
		Template:   textTemplate(),
		Recipients: []models.Recipient{{Phone: "+15551111", FirstName: "Ava"}, {FirstName: "NoPhone"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.bulk) != 1 || len(client.bulk[0]) != 1 {
		t.Fatalf("bulk calls = %v", client.bulk)
	}
	if outcome.Stats.SuccessCount != 1 || outcome.Stats.FailedCount != 1 || outcome.Delivery.Status != "Processed" {
		t.Fatalf("outcome = %+v", outcome)
	}

	report, err := svc.Report(context.Background(), outcome.ReportID)
	if err != nil {
		t.Fatalf("report lookup: %v", err)
	}
	if report.Status != models.BroadcastCompleted || report.DeliveryStatus != "Processed" || report.TemplateName != "welcome" {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunNoValidMessagesSkipsDelivery(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{}
	svc := newTestService(t, client, store, nil)

	outcome, err := svc.Run(context.Background(), models.BroadcastRequest{
		Template:   textTemplate(),
		Recipients: []models.Recipient{{FirstName: "a"}},
	})
	if !errors.Is(err, ErrNoValidMessages) {
		t.Fatalf("expected ErrNoValidMessages, got %v", err)
	}
	if len(client.bulk) != 0 {
		t.Fatalf("provider must not be called")
	}
	if outcome.Stats.FailedCount != 1 {
		t.Fatalf("stats = %+v", outcome.Stats)
	}
	if report := store.reports[outcome.ReportID]; report.Status != models.BroadcastFailed || report.Error == "" {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunProviderFailureKeepsStats(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{bulkErr: &provider.Error{StatusCode: 503, ErrorMessage: "down", Provider: "waba"}}
	svc := newTestService(t, client, store, nil)

	outcome, err := svc.Run(context.Background(), models.BroadcastRequest{
		Template:   textTemplate(),
		Recipients: []models.Recipient{{Phone: "+15551111"}},
	})
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if outcome.Stats.SuccessCount != 1 {
		t.Fatalf("stats = %+v", outcome.Stats)
	}
	if store.reports[outcome.ReportID].Status != models.BroadcastFailed {
		t.Fatalf("report not marked failed")
	}
}

func TestRunScheduledReadsSheetAndStoredTemplate(t *testing.T) {
	store := newFakeStore()
	store.templates["welcome"] = textTemplate()
	client := &fakeClient{bulkStatus: "Processed"}
	sheet := &fakeSheet{recipients: []models.Recipient{{Phone: "+15551111"}, {Phone: "+15552222"}}}
	svc := newTestService(t, client, store, sheet)

	outcome, err := svc.RunScheduled(context.Background(), "welcome", "Contacts!A1:F")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Stats.TotalContacts != 2 || len(client.bulk[0]) != 2 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(sheet.appended) != 1 || sheet.appended[0].ID != outcome.ReportID {
		t.Fatalf("report row not appended: %+v", sheet.appended)
	}
}

func TestRunRequestValidation(t *testing.T) {
	svc := newTestService(t, &fakeClient{}, newFakeStore(), nil)

	if _, err := svc.Run(context.Background(), models.BroadcastRequest{}); !errors.Is(err, ErrTemplateRequired) {
		t.Fatalf("expected ErrTemplateRequired, got %v", err)
	}
	_, err := svc.Run(context.Background(), models.BroadcastRequest{Template: textTemplate(), SheetRange: "A1:B"})
	if !errors.Is(err, ErrRecipientSourceUnavailable) {
		t.Fatalf("expected ErrRecipientSourceUnavailable, got %v", err)
	}
	if _, err := svc.Run(context.Background(), models.BroadcastRequest{TemplateName: "missing"}); !errors.Is(err, errNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSendOneSetsCustRef(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client, newFakeStore(), nil)

	res, err := svc.SendOne(context.Background(), models.SingleSendRequest{
		Template:  textTemplate(),
		Recipient: models.Recipient{Phone: "+15551111", FirstName: "Ava"},
		CustRef:   "order-42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != "Submitted" {
		t.Fatalf("status = %q", res.Status)
	}
	if len(client.single) != 1 || client.single[0].Reference.CustRef != "order-42" {
		t.Fatalf("single sends = %+v", client.single)
	}

	_, err = svc.SendOne(context.Background(), models.SingleSendRequest{Template: textTemplate()})
	if !errors.Is(err, ErrMissingPhone) {
		t.Fatalf("expected ErrMissingPhone, got %v", err)
	}
}
