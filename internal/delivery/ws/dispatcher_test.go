package ws

import (
	"context"
	"testing"
	"time"

	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/protocol"
	"circulation/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminSession(env *testEnv) *Session {
	sess := &Session{}
	sess.bind(&usecase.SessionOutput{
		User:      &entity.User{ID: env.admin.UserID, Role: entity.RoleAdmin},
		SessionID: "test-session",
	})

	return sess
}

func TestDispatch_EveryVerbHasAHandler(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)

	for _, verb := range protocol.Verbs() {
		t.Run(string(verb), func(t *testing.T) {
			req, ok := protocol.New(verb)
			require.True(t, ok)

			_, err := env.dispatcher.dispatch(context.Background(), adminSession(env), req)
			assert.False(t, errors.Is(err, errUnhandledRequest), "no handler for %s", verb)
		})
	}
}

func TestAuthorize(t *testing.T) {
	anonymous := &Session{}
	member := &Session{}
	member.bind(&usecase.SessionOutput{User: &entity.User{ID: 2, Role: entity.RoleUser}})
	admin := &Session{}
	admin.bind(&usecase.SessionOutput{User: &entity.User{ID: 1, Role: entity.RoleAdmin}})

	tests := []struct {
		name    string
		sess    *Session
		verb    protocol.Verb
		wantErr error
	}{
		{name: "anonymous login", sess: anonymous, verb: protocol.VerbLogin},
		{name: "anonymous register", sess: anonymous, verb: protocol.VerbRegister},
		{name: "anonymous resume", sess: anonymous, verb: protocol.VerbResumeSession},
		{name: "anonymous catalog", sess: anonymous, verb: protocol.VerbGetAllBooks, wantErr: domainerrors.ErrNotAuthenticated},
		{name: "anonymous logout", sess: anonymous, verb: protocol.VerbLogout, wantErr: domainerrors.ErrNotAuthenticated},
		{name: "member borrow", sess: member, verb: protocol.VerbBorrowBook},
		{name: "member settings read", sess: member, verb: protocol.VerbGetSettings},
		{name: "member settings write", sess: member, verb: protocol.VerbUpdateSettings, wantErr: domainerrors.ErrForbidden},
		{name: "member force return", sess: member, verb: protocol.VerbForceReturn, wantErr: domainerrors.ErrForbidden},
		{name: "member add book", sess: member, verb: protocol.VerbAddBook, wantErr: domainerrors.ErrForbidden},
		{name: "member reports", sess: member, verb: protocol.VerbGetPenaltyReport, wantErr: domainerrors.ErrForbidden},
		{name: "admin reports", sess: admin, verb: protocol.VerbGetPenaltyReport},
		{name: "admin lock", sess: admin, verb: protocol.VerbLockUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authorize(tt.sess, tt.verb)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStaffVerbsAreRegistered(t *testing.T) {
	for verb := range staffVerbs {
		_, ok := protocol.New(verb)
		assert.True(t, ok, verb)
	}
	for verb := range anonymousVerbs {
		_, ok := protocol.New(verb)
		assert.True(t, ok, verb)
	}
}

func TestFailure(t *testing.T) {
	logger := newDiscardLogger()
	ctx := context.Background()

	tests := []struct {
		name        string
		err         error
		wantVerb    protocol.Verb
		wantCode    string
		wantMessage string
	}{
		{
			name:        "policy error keeps the verb",
			err:         errors.Wrap(domainerrors.ErrNoCopyAvailable, "book 3"),
			wantVerb:    protocol.VerbBorrowBook,
			wantCode:    "NO_COPY_AVAILABLE",
			wantMessage: "No copy of this book is available",
		},
		{
			name:        "details are appended",
			err:         domainerrors.ErrValidationFailed.WithDetails("bookId is required"),
			wantVerb:    protocol.VerbBorrowBook,
			wantCode:    "VALIDATION_FAILED",
			wantMessage: "Input validation failed: bookId is required",
		},
		{
			name:        "force logout renames the verb",
			err:         errors.Wrap(domainerrors.ErrForceLogout, "user 2 is locked"),
			wantVerb:    protocol.VerbForceLogout,
			wantCode:    "FORCE_LOGOUT",
			wantMessage: "Session ended: account is locked or removed",
		},
		{
			name:        "deadline",
			err:         errors.Wrap(context.DeadlineExceeded, "failed to begin transaction"),
			wantVerb:    protocol.VerbBorrowBook,
			wantCode:    "REQUEST_TIMEOUT",
			wantMessage: "Request timed out",
		},
		{
			name:        "plain error is hidden",
			err:         errors.New("disk on fire"),
			wantVerb:    protocol.VerbBorrowBook,
			wantCode:    "INTERNAL_ERROR",
			wantMessage: "Internal server error",
		},
		{
			name:        "internal kind is hidden",
			err:         domainerrors.NewDatabaseExecuteError(errors.New("locked"), "insert failed"),
			wantVerb:    protocol.VerbBorrowBook,
			wantCode:    "INTERNAL_ERROR",
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := failure(ctx, logger, "7", protocol.VerbBorrowBook, tt.err)
			assert.False(t, resp.Success)
			assert.Equal(t, "7", resp.ID)
			assert.Equal(t, tt.wantVerb, resp.Command)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}
