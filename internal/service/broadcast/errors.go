package broadcast

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

var (
	// ErrMissingPhone indicates a recipient without a phone number.
	ErrMissingPhone = errors.New("recipient phone is missing")

	// ErrAssemblyTimeout indicates a recipient whose message did not settle in time.
	ErrAssemblyTimeout = errors.New("message assembly timed out")

	// ErrUnsupportedTemplateType indicates a template that is neither text, media nor carousel.
	ErrUnsupportedTemplateType = errors.New("unsupported template type")

	// ErrNoValidMessages indicates a broadcast where no recipient produced a message.
	ErrNoValidMessages = errors.New("no valid messages generated")

	// ErrBatchCancelled indicates generation stopped because the context ended.
	ErrBatchCancelled = errors.New("broadcast generation cancelled")
)

// UnsupportedTemplateError names the template that could not be dispatched.
type UnsupportedTemplateError struct {
	Name string
}

func (e *UnsupportedTemplateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedTemplateType, e.Name)
}

// Is lets errors.Is match ErrUnsupportedTemplateType.
func (e *UnsupportedTemplateError) Is(target error) bool {
	return target == ErrUnsupportedTemplateType
}

// AssemblyError is a per-recipient failure. Phone is already redacted.
type AssemblyError struct {
	Phone string
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble message for %s: %v", e.Phone, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// NoValidMessagesError carries the statistics of a broadcast that produced nothing to send.
type NoValidMessagesError struct {
	Stats models.BatchStats
}

func (e *NoValidMessagesError) Error() string {
	return fmt.Sprintf("%s: %d of %d recipients failed", ErrNoValidMessages, e.Stats.FailedCount, e.Stats.TotalContacts)
}

func (e *NoValidMessagesError) Is(target error) bool {
	return target == ErrNoValidMessages
}

// BatchCancelledError carries the statistics accumulated before cancellation.
type BatchCancelledError struct {
	Stats models.BatchStats
	Err   error
}

func (e *BatchCancelledError) Error() string {
	return fmt.Sprintf("%s after %d of %d recipients: %v", ErrBatchCancelled, e.Stats.SuccessCount+e.Stats.FailedCount, e.Stats.TotalContacts, e.Err)
}

func (e *BatchCancelledError) Is(target error) bool {
	return target == ErrBatchCancelled
}

func (e *BatchCancelledError) Unwrap() error {
	return e.Err
}
