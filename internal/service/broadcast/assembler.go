package broadcast

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
	"github.com/mamadbah2/broadcaster/pkg/logger"
)

// AssemblyResult is the outcome of assembling one recipient: exactly one of
// Message and Err is set.
type AssemblyResult struct {
	Message *models.AssembledMessage
	Err     error
}

// Assembler turns a template and a recipient into one provider message.
type Assembler struct {
	logger *zap.Logger
}

// NewAssembler constructs an Assembler.
func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{logger: logger}
}

// Assemble validates the recipient, resolves its placeholders and builds the
// content. Failures, including panics while building, come back as an
// *AssemblyError and never escape to the caller.
func (a *Assembler) Assemble(ctx context.Context, tpl *models.Template, kind models.TemplateKind, r models.Recipient) (res AssemblyResult) {
	phone := strings.TrimSpace(r.Phone)
	redacted := logger.RedactPhone(phone)

	defer func() {
		if p := recover(); p != nil {
			res = AssemblyResult{Err: &AssemblyError{Phone: redacted, Err: fmt.Errorf("panic: %v", p)}}
			a.logger.Error("message assembly panicked", logger.Phone("phone", phone), zap.Any("panic", p))
		}
	}()

	if phone == "" {
		return AssemblyResult{Err: &AssemblyError{Phone: redacted, Err: ErrMissingPhone}}
	}
	if err := ctx.Err(); err != nil {
		return AssemblyResult{Err: &AssemblyError{Phone: redacted, Err: err}}
	}

	values := ResolvePlaceholders(tpl, r)

	content, err := BuildContent(tpl, kind, values)
	if err != nil {
		a.logger.Warn("failed to build message content",
			logger.Phone("phone", phone),
			zap.String("template", tpl.ElementName),
			zap.Error(err))
		return AssemblyResult{Err: &AssemblyError{Phone: redacted, Err: err}}
	}

	return AssemblyResult{Message: &models.AssembledMessage{
		Content: content,
		Recipient: models.MessageRecipient{
			To:            phone,
			RecipientType: models.RecipientTypeIndividual,
		},
	}}
}
