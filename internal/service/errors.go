package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/spendsplit/internal/auth"
	"github.com/mmynk/spendsplit/internal/ledger"
)

// toConnectError maps an engine or auth error to its RPC code. Unexpected
// errors are logged and reported as internal.
func toConnectError(procedure string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case ledger.IsNotFound(err):
		return connect.NewError(connect.CodeNotFound, err)
	case ledger.IsValidation(err),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrNameRequired):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	}

	slog.Error(procedure+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
