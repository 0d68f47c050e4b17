package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	MessagingErrorValidation           = "MESSAGING_VALIDATION_FAILED"
	MessagingErrorActionNotFound       = "MESSAGING_ACTION_NOT_FOUND"
	MessagingErrorEntityNotFound       = "MESSAGING_ENTITY_NOT_FOUND"
	MessagingErrorDuplicateAction      = "MESSAGING_DUPLICATE_ACTION"
	MessagingErrorTransitionRejected   = "MESSAGING_TRANSITION_REJECTED"
	MessagingErrorUpstream             = "MESSAGING_UPSTREAM_FAILED"
	MessagingErrorUnrecognizedEnvelope = "MESSAGING_UNRECOGNIZED_ENVELOPE"
	MessagingErrorInternal             = "MESSAGING_INTERNAL_ERROR"
)

// DefaultErrorMapper normalizes any error into the messaging error envelope.
// Sibling packages use it when no custom mapper is injected.
func DefaultErrorMapper(err error) *goerrors.Error {
	return messagingErrorMapper(err)
}

func messagingErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureMessagingErrorEnvelope(richErr)
	}

	switch {
	case goerrors.Is(err, ErrTransitionRejected):
		return newMessagingError(err.Error(), goerrors.CategoryConflict, MessagingErrorTransitionRejected)
	case goerrors.Is(err, ErrEntityNotFound):
		return newMessagingError(err.Error(), goerrors.CategoryNotFound, MessagingErrorEntityNotFound)
	case goerrors.Is(err, ErrInvalidEntityKind):
		return newMessagingError(err.Error(), goerrors.CategoryBadInput, MessagingErrorValidation)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "action") && strings.Contains(msg, "not registered"):
		return newMessagingError(err.Error(), goerrors.CategoryNotFound, MessagingErrorActionNotFound)
	case strings.Contains(msg, "already registered"):
		return newMessagingError(err.Error(), goerrors.CategoryConflict, MessagingErrorDuplicateAction)
	case strings.Contains(msg, "unrecognized envelope"):
		return newMessagingError(err.Error(), goerrors.CategoryBadInput, MessagingErrorUnrecognizedEnvelope)
	case strings.Contains(msg, "gateway"), strings.Contains(msg, "upstream"):
		return newMessagingError(err.Error(), goerrors.CategoryExternal, MessagingErrorUpstream)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "missing"):
		return newMessagingError(err.Error(), goerrors.CategoryBadInput, MessagingErrorValidation)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureMessagingErrorEnvelope(mapped)
}

func newMessagingError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureMessagingErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureMessagingErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = messagingHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultMessagingTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultMessagingTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return MessagingErrorValidation
	case goerrors.CategoryNotFound:
		return MessagingErrorActionNotFound
	case goerrors.CategoryConflict:
		return MessagingErrorTransitionRejected
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return MessagingErrorUpstream
	default:
		return MessagingErrorInternal
	}
}

func messagingHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusClassFor maps an error category onto the canonical response status
// classes carried by every ActionResponse.
func StatusClassFor(category goerrors.Category) StatusClass {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation, goerrors.CategoryConflict:
		return StatusClientError
	case goerrors.CategoryNotFound:
		return StatusNotFound
	default:
		return StatusServerError
	}
}
