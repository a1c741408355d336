package ws

import (
	"context"
	"log/slog"

	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/protocol"

	"github.com/pkg/errors"
)

// errUnhandledRequest means a registered verb has no dispatcher case.
var errUnhandledRequest = errors.New("request type has no handler")

// failure converts an error into an unsuccessful response. Internal errors
// are logged and answered generically.
func failure(ctx context.Context, logger *slog.Logger, id string, verb protocol.Verb, err error) *protocol.Response {
	if errors.Is(err, context.DeadlineExceeded) {
		return protocol.Failure(id, verb, domainerrors.ErrRequestTimeout.ErrorCode(), domainerrors.ErrRequestTimeout.Message())
	}

	appErr, ok := domainerrors.AsAppError(err)
	if !ok || appErr.Kind() == domainerrors.KindInternal {
		logger.ErrorContext(ctx, "Request failed", slog.String("command", string(verb)), slog.Any("error", err))

		return protocol.Failure(id, verb, domainerrors.ErrInternalError.ErrorCode(), domainerrors.ErrInternalError.Message())
	}

	logger.DebugContext(ctx, "Request rejected",
		slog.String("command", string(verb)),
		slog.String("code", appErr.ErrorCode()),
		slog.Any("error", err),
	)

	message := appErr.Message()
	if details := appErr.Details(); details != "" {
		message += ": " + details
	}

	if appErr.Kind() == domainerrors.KindSession && appErr.ErrorCode() == domainerrors.ErrForceLogout.ErrorCode() {
		verb = protocol.VerbForceLogout
	}

	return protocol.Failure(id, verb, appErr.ErrorCode(), message)
}
