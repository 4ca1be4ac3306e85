package broadcast

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

func textTemplate() *models.Template {
	return &models.Template{
		ElementName:        "welcome",
		ProviderTemplateID: "tpl-welcome",
		Placeholders:       models.PlaceholderList{{Name: "name", Index: 0}},
		TemplateVariables:  map[string]string{"name": "firstName"},
		Content:            models.TemplateContent{Body: &models.Body{Text: "Hi {{1}}"}},
	}
}

func TestAssembleBuildsRecipientEnvelope(t *testing.T) {
	a := NewAssembler(zaptest.NewLogger(t))
	tpl := textTemplate()

	res := a.Assemble(context.Background(), tpl, tpl.Kind(), models.Recipient{Phone: "  +15551111 ", FirstName: "Ava"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	msg := res.Message
	if msg.Recipient.To != "+15551111" {
		t.Fatalf("to = %q", msg.Recipient.To)
	}
	if msg.Recipient.RecipientType != models.RecipientTypeIndividual || msg.Recipient.Reference.CustRef != "" {
		t.Fatalf("recipient = %+v", msg.Recipient)
	}
	if msg.Content.Template.ParameterValues["0"] != "Ava" {
		t.Fatalf("parameter values = %v", msg.Content.Template.ParameterValues)
	}
}

func TestAssembleMissingPhone(t *testing.T) {
	a := NewAssembler(zaptest.NewLogger(t))
	tpl := textTemplate()

	res := a.Assemble(context.Background(), tpl, tpl.Kind(), models.Recipient{Phone: "   ", FirstName: "NoPhone"})
	if res.Message != nil {
		t.Fatalf("expected no message")
	}
	if !errors.Is(res.Err, ErrMissingPhone) {
		t.Fatalf("expected ErrMissingPhone, got %v", res.Err)
	}
}

func TestAssembleUnsupportedTemplate(t *testing.T) {
	a := NewAssembler(zaptest.NewLogger(t))
	tpl := &models.Template{ElementName: "empty"}

	res := a.Assemble(context.Background(), tpl, tpl.Kind(), models.Recipient{Phone: "+15551111"})
	var aerr *AssemblyError
	if !errors.As(res.Err, &aerr) {
		t.Fatalf("expected *AssemblyError, got %v", res.Err)
	}
	if !errors.Is(res.Err, ErrUnsupportedTemplateType) {
		t.Fatalf("expected unsupported template cause, got %v", res.Err)
	}
	if aerr.Phone == "+15551111" {
		t.Fatalf("phone must be redacted in errors")
	}
}

func TestAssembleCancelledContext(t *testing.T) {
	a := NewAssembler(zaptest.NewLogger(t))
	tpl := textTemplate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := a.Assemble(ctx, tpl, tpl.Kind(), models.Recipient{Phone: "+15551111"})
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.Err)
	}
}

func TestAssembleRecoversFromPanic(t *testing.T) {
	a := NewAssembler(zaptest.NewLogger(t))
	// a carousel kind without carousel content dereferences nil while building
	tpl := &models.Template{ElementName: "bad"}

	res := a.Assemble(context.Background(), tpl, models.KindCarousel, models.Recipient{Phone: "+15551111"})
	if res.Err == nil || res.Message != nil {
		t.Fatalf("expected panic to be converted into an error, got %+v", res)
	}
}
