package envelope

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-messaging-core/core"
)

func envelopeError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func envelopeWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return envelopeError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func unrecognizedEnvelope(message string, metadata map[string]any) error {
	return envelopeError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.MessagingErrorUnrecognizedEnvelope,
		metadata,
	)
}

func unrecognizedEnvelopeWrap(source error, message string, metadata map[string]any) error {
	return envelopeWrapError(
		source,
		goerrors.CategoryBadInput,
		message,
		http.StatusBadRequest,
		core.MessagingErrorUnrecognizedEnvelope,
		metadata,
	)
}

func envelopeBadInput(message string, metadata map[string]any) error {
	return envelopeError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.MessagingErrorValidation,
		metadata,
	)
}

// IsUnrecognized reports whether err carries the unrecognized-envelope text
// code, regardless of wrapping.
func IsUnrecognized(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == core.MessagingErrorUnrecognizedEnvelope
}
