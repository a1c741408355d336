package ws

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "circulation/internal/delivery/context"
	"circulation/internal/domain/entity"
	domainerrors "circulation/internal/domain/errors"
	"circulation/internal/protocol"
	"circulation/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// anonymousVerbs can run on an unbound session.
var anonymousVerbs = map[protocol.Verb]bool{
	protocol.VerbLogin:         true,
	protocol.VerbRegister:      true,
	protocol.VerbResumeSession: true,
}

// staffVerbs require the ADMIN role.
var staffVerbs = map[protocol.Verb]bool{
	protocol.VerbAddBook:             true,
	protocol.VerbUpdateBook:          true,
	protocol.VerbDeleteBook:          true,
	protocol.VerbAddBookCopy:         true,
	protocol.VerbUpdateBookCopy:      true,
	protocol.VerbDeleteBookCopy:      true,
	protocol.VerbGetCopyLabel:        true,
	protocol.VerbGetAllUsers:         true,
	protocol.VerbAddUser:             true,
	protocol.VerbDeleteUser:          true,
	protocol.VerbLockUser:            true,
	protocol.VerbUnlockUser:          true,
	protocol.VerbResetPassword:       true,
	protocol.VerbForceReturn:         true,
	protocol.VerbGetAllBorrowRecords: true,
	protocol.VerbGetDashboardStats:   true,
	protocol.VerbGetBookReport:       true,
	protocol.VerbGetUserReport:       true,
	protocol.VerbGetBorrowReport:     true,
	protocol.VerbGetPenaltyReport:    true,
	protocol.VerbUpdateSettings:      true,
}

// DispatcherParams holds the use cases a Dispatcher routes to, injected by Fx.
type DispatcherParams struct {
	fx.In

	Auth          usecase.AuthUsecase
	Accounts      usecase.AccountUsecase
	Catalog       usecase.CatalogUsecase
	Circulation   usecase.CirculationUsecase
	Reports       usecase.ReportUsecase
	Settings      usecase.SettingsUsecase
	Notifications usecase.NotificationUsecase
	Logger        *slog.Logger
}

// Dispatcher routes typed requests to the use cases and turns the outcome
// into exactly one response.
type Dispatcher struct {
	auth          usecase.AuthUsecase
	accounts      usecase.AccountUsecase
	catalog       usecase.CatalogUsecase
	circulation   usecase.CirculationUsecase
	reports       usecase.ReportUsecase
	settings      usecase.SettingsUsecase
	notifications usecase.NotificationUsecase
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(params DispatcherParams) *Dispatcher {
	return &Dispatcher{
		auth:          params.Auth,
		accounts:      params.Accounts,
		catalog:       params.Catalog,
		circulation:   params.Circulation,
		reports:       params.Reports,
		settings:      params.Settings,
		notifications: params.Notifications,
		logger:        params.Logger,
	}
}

// Handle answers one decoded request on sess. ctx carries the request
// deadline.
func (d *Dispatcher) Handle(ctx context.Context, sess *Session, env protocol.Envelope, req protocol.Request) *protocol.Response {
	logger := deliverycontext.GetLoggerOrDefault(ctx, d.logger)
	verb := req.Verb()

	if sess.Authenticated() {
		// Every request on a bound session first re-reads the account.
		user, err := d.auth.CheckStatus(ctx, sess.Principal().UserID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrForceLogout) {
				logger.Info("Session force logged out", slog.Int64("userID", sess.Principal().UserID))
				sess.unbind()
			}

			return d.failure(ctx, logger, env.ID, verb, err)
		}
		sess.refresh(user)
		ctx = deliverycontext.WithPrincipal(ctx, sess.Principal())
	}

	if err := authorize(sess, verb); err != nil {
		return d.failure(ctx, logger, env.ID, verb, err)
	}

	payload, err := d.dispatch(ctx, sess, req)
	if err != nil {
		if errors.Is(err, domainerrors.ErrForceLogout) {
			sess.unbind()
		}

		return d.failure(ctx, logger, env.ID, verb, err)
	}

	resp, err := protocol.Success(env.ID, verb, payload)
	if err != nil {
		return d.failure(ctx, logger, env.ID, verb, errors.Wrap(err, "failed to encode payload"))
	}

	return resp
}

func (d *Dispatcher) failure(ctx context.Context, logger *slog.Logger, id string, verb protocol.Verb, err error) *protocol.Response {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errors.Wrap(context.DeadlineExceeded, err.Error())
	}

	return failure(ctx, logger, id, verb, err)
}

func authorize(sess *Session, verb protocol.Verb) error {
	if anonymousVerbs[verb] {
		return nil
	}
	if !sess.Authenticated() {
		return domainerrors.ErrNotAuthenticated
	}
	if staffVerbs[verb] && !sess.Principal().IsAdmin() {
		return errors.Wrapf(domainerrors.ErrForbidden, "%s requires staff", verb)
	}

	return nil
}

// dispatch runs the use case behind req. Every request type registered in
// the protocol package has a case here.
//
//nolint:gocyclo // one case per verb
func (d *Dispatcher) dispatch(ctx context.Context, sess *Session, req protocol.Request) (any, error) {
	switch r := req.(type) {
	// Session
	case *protocol.LoginRequest:
		out, err := d.auth.Login(ctx, usecase.LoginInput{Username: r.Username, Password: r.Password})
		if err != nil {
			return nil, err
		}
		sess.bind(out)

		return sessionPayload(out), nil
	case *protocol.LogoutRequest:
		sess.unbind()

		return nil, nil
	case *protocol.RegisterRequest:
		return d.auth.Register(ctx, usecase.RegisterInput{
			Username: r.Username,
			Email:    r.Email,
			Password: r.Password,
			FullName: r.FullName,
			Phone:    r.Phone,
			Faculty:  r.Faculty,
		})
	case *protocol.ResumeSessionRequest:
		out, err := d.auth.ResumeSession(ctx, r.SessionToken)
		if err != nil {
			return nil, err
		}
		sess.bind(out)

		return sessionPayload(out), nil
	case *protocol.CheckUserStatusRequest:
		return d.auth.CheckStatus(ctx, sess.Principal().UserID)

	// Catalog
	case *protocol.GetAllBooksRequest:
		return d.catalog.ListBooks(ctx, entity.BookFilter{})
	case *protocol.SearchBooksRequest:
		return d.catalog.ListBooks(ctx, entity.BookFilter{
			Keyword:       r.Keyword,
			Category:      r.Category,
			Author:        r.Author,
			AvailableOnly: r.AvailableOnly,
		})
	case *protocol.GetBookByIDRequest:
		return d.catalog.GetBook(ctx, r.BookID)
	case *protocol.AddBookRequest:
		return d.catalog.AddBook(ctx, usecase.AddBookInput{
			BookInput:     bookInput(r.BookFields),
			InitialCopies: r.InitialCopies,
			ShelfLocation: r.ShelfLocation,
		})
	case *protocol.UpdateBookRequest:
		return d.catalog.UpdateBook(ctx, r.BookID, bookInput(r.BookFields))
	case *protocol.DeleteBookRequest:
		return nil, d.catalog.DeleteBook(ctx, r.BookID)
	case *protocol.GetBookCopiesRequest:
		return d.catalog.ListCopies(ctx, r.BookID)
	case *protocol.AddBookCopyRequest:
		return d.catalog.AddCopies(ctx, usecase.AddCopiesInput{
			BookID:        r.BookID,
			Quantity:      r.Quantity,
			ShelfLocation: r.ShelfLocation,
			Notes:         r.Notes,
		})
	case *protocol.UpdateBookCopyRequest:
		input := usecase.UpdateCopyInput{ID: r.CopyID, ShelfLocation: r.ShelfLocation, Notes: r.Notes}
		if r.Status != nil {
			status, ok := entity.ParseCopyStatus(*r.Status)
			if !ok {
				return nil, domainerrors.ErrValidationFailed.WithDetails("unknown copy status " + *r.Status)
			}
			input.Status = &status
		}

		return d.catalog.UpdateCopy(ctx, input)
	case *protocol.DeleteBookCopyRequest:
		return nil, d.catalog.DeleteCopy(ctx, r.CopyID)
	case *protocol.GetCopyLabelRequest:
		label, err := d.catalog.CopyLabel(ctx, r.CopyID)
		if err != nil {
			return nil, err
		}

		return &protocol.CopyLabelPayload{BookID: label.BookID, CopyID: label.CopyID, PNG: label.PNG}, nil

	// Accounts
	case *protocol.GetAllUsersRequest:
		filter := entity.UserFilter{Keyword: r.Keyword}
		if r.Role != "" {
			role := entity.Role(r.Role)
			filter.Role = &role
		}
		if r.Status != "" {
			status := entity.AccountStatus(r.Status)
			filter.Status = &status
		}

		return d.accounts.ListUsers(ctx, filter)
	case *protocol.GetUserByIDRequest:
		return d.accounts.GetUser(ctx, sess.Principal(), r.UserID)
	case *protocol.AddUserRequest:
		return d.accounts.CreateUser(ctx, usecase.CreateUserInput{
			Username: r.Username,
			Email:    r.Email,
			Password: r.Password,
			FullName: r.FullName,
			Phone:    r.Phone,
			Faculty:  r.Faculty,
			Role:     entity.Role(r.Role),
		})
	case *protocol.UpdateUserRequest:
		input := usecase.UpdateUserInput{
			ID:       r.UserID,
			Email:    r.Email,
			FullName: r.FullName,
			Phone:    r.Phone,
			Faculty:  r.Faculty,
		}
		if r.Role != nil {
			role := entity.Role(*r.Role)
			input.Role = &role
		}

		return d.accounts.UpdateUser(ctx, sess.Principal(), input)
	case *protocol.DeleteUserRequest:
		return nil, d.accounts.DeleteUser(ctx, sess.Principal(), r.UserID)
	case *protocol.LockUserRequest:
		return d.accounts.LockUser(ctx, sess.Principal(), r.UserID)
	case *protocol.UnlockUserRequest:
		return d.accounts.UnlockUser(ctx, sess.Principal(), r.UserID)
	case *protocol.ResetPasswordRequest:
		return nil, d.accounts.ResetPassword(ctx, r.UserID, r.NewPassword)

	// Circulation
	case *protocol.BorrowBookRequest:
		return d.circulation.Borrow(ctx, sess.Principal(), selfOr(sess, r.UserID), r.BookID)
	case *protocol.ReturnBookRequest:
		return d.circulation.Return(ctx, sess.Principal(), r.RecordID)
	case *protocol.RenewBookRequest:
		return d.circulation.Renew(ctx, sess.Principal(), r.RecordID)
	case *protocol.MarkLostRequest:
		return d.circulation.MarkLost(ctx, sess.Principal(), r.RecordID)
	case *protocol.MarkDamagedRequest:
		return d.circulation.MarkDamaged(ctx, sess.Principal(), r.RecordID)
	case *protocol.ForceReturnRequest:
		return d.circulation.ForceReturn(ctx, sess.Principal(), r.RecordID)
	case *protocol.GetUserBorrowRecordsRequest:
		status, err := parseRecordStatus(r.Status)
		if err != nil {
			return nil, err
		}

		return d.circulation.ListUserRecords(ctx, sess.Principal(), selfOr(sess, r.UserID), status)
	case *protocol.GetAllBorrowRecordsRequest:
		status, err := parseRecordStatus(r.Status)
		if err != nil {
			return nil, err
		}
		filter := entity.RecordFilter{Status: status, From: r.From, To: r.To, OverdueOnly: r.OverdueOnly}
		if r.UserID > 0 {
			filter.UserID = &r.UserID
		}

		return d.circulation.ListRecords(ctx, filter)

	// Reports
	case *protocol.GetDashboardStatsRequest:
		return d.reports.Dashboard(ctx)
	case *protocol.GetBookReportRequest:
		return d.reports.BookReport(ctx)
	case *protocol.GetUserReportRequest:
		return d.reports.UserReport(ctx)
	case *protocol.GetBorrowReportRequest:
		return d.reports.BorrowReport(ctx, r.From, r.To)
	case *protocol.GetPenaltyReportRequest:
		return d.reports.PenaltyReport(ctx)

	// Notifications
	case *protocol.GetUserNotificationsRequest:
		return d.notifications.List(ctx, sess.Principal(), selfOr(sess, r.UserID), r.UnreadOnly)
	case *protocol.MarkNotificationReadRequest:
		return d.notifications.MarkRead(ctx, sess.Principal(), r.NotificationID)

	// Settings
	case *protocol.GetSettingsRequest:
		return d.settings.Get(ctx)
	case *protocol.UpdateSettingsRequest:
		return d.settings.Update(ctx, r.SettingsUpdate)
	}

	return nil, errors.Wrapf(errUnhandledRequest, "%T", req)
}

func sessionPayload(out *usecase.SessionOutput) *protocol.SessionPayload {
	return &protocol.SessionPayload{
		User:         out.User,
		SessionID:    out.SessionID,
		SessionToken: out.SessionToken,
		ExpiresAt:    out.ExpiresAt,
	}
}

func bookInput(f protocol.BookFields) usecase.BookInput {
	return usecase.BookInput{
		Title:       f.Title,
		Author:      f.Author,
		ISBN:        f.ISBN,
		Category:    f.Category,
		Year:        f.Year,
		Price:       f.Price,
		PageCount:   f.PageCount,
		Description: f.Description,
	}
}

// selfOr returns userID, or the session's own account when it is zero.
func selfOr(sess *Session, userID int64) int64 {
	if userID > 0 {
		return userID
	}

	return sess.Principal().UserID
}

func parseRecordStatus(raw string) (*entity.RecordStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	status, ok := entity.ParseRecordStatus(raw)
	if !ok {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown record status " + raw)
	}

	return &status, nil
}
