package status

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-messaging-core/core"
)

func statusError(
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

func statusWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return statusError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func statusBadInput(message string, metadata map[string]any) error {
	return statusError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.MessagingErrorValidation,
		metadata,
	)
}

func statusNotFound(message string, metadata map[string]any) error {
	return statusError(
		message,
		goerrors.CategoryNotFound,
		http.StatusNotFound,
		core.MessagingErrorEntityNotFound,
		metadata,
	)
}

func statusRejected(message string, metadata map[string]any) error {
	return statusError(
		message,
		goerrors.CategoryConflict,
		http.StatusConflict,
		core.MessagingErrorTransitionRejected,
		metadata,
	)
}

func statusUpstream(source error, message string, metadata map[string]any) error {
	return statusWrapError(
		source,
		goerrors.CategoryExternal,
		message,
		http.StatusBadGateway,
		core.MessagingErrorUpstream,
		metadata,
	)
}
