package actions

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-messaging-core/core"
)

func actionBadInput(format string, args ...any) error {
	return goerrors.New(
		fmt.Sprintf("actions: "+format, args...),
		goerrors.CategoryBadInput,
	).
		WithTextCode(core.MessagingErrorValidation).
		WithCode(http.StatusBadRequest)
}

func actionUpstream(message string, cause error) error {
	return goerrors.Wrap(
		cause,
		goerrors.CategoryExternal,
		"actions: "+message,
	).
		WithTextCode(core.MessagingErrorUpstream).
		WithCode(http.StatusBadGateway)
}

func actionRejectedUpstream(message string) error {
	return goerrors.New(
		"actions: "+message,
		goerrors.CategoryExternal,
	).
		WithTextCode(core.MessagingErrorUpstream).
		WithCode(http.StatusBadGateway)
}
