package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"circulation/config"
	"circulation/internal/domain/entity"
	"circulation/internal/domain/fine"
	"circulation/internal/domain/repository"
	"circulation/internal/infra/auth"
	"circulation/internal/infra/clock"
	"circulation/internal/infra/persistence/gormstore"
	"circulation/internal/infra/qrcode"
	"circulation/internal/usecase"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testStart = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*entity.CirculationEvent
}

func (p *recordingPublisher) PublishCirculationEvent(_ context.Context, event *entity.CirculationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []entity.NotificationType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]entity.NotificationType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}

	return types
}

type harness struct {
	db        *gorm.DB
	txManager repository.TransactionManager
	clock     *clock.Fixed
	publisher *recordingPublisher

	auth          usecase.AuthUsecase
	accounts      usecase.AccountUsecase
	catalog       usecase.CatalogUsecase
	circulation   usecase.CirculationUsecase
	settings      usecase.SettingsUsecase
	notifications usecase.NotificationUsecase
	reports       usecase.ReportUsecase

	admin entity.Principal
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := newDiscardLogger()
	db, err := gormstore.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Bootstrap: &config.BootstrapConfig{AdminUsername: "admin", AdminEmail: "admin@library.test", AdminPassword: "admin-pass"},
	}
	cfg.SecretKey.Session = "test-session-secret"

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	h := &harness{
		db:        db,
		txManager: gormstore.NewTransactionManager(db),
		clock:     clock.NewFixed(testStart),
		publisher: &recordingPublisher{},
	}
	hasher := auth.NewBcryptHasherWithCost(bcrypt.MinCost)
	calc := fine.NewCalculator(time.UTC)

	h.auth = NewAuthService(AuthServiceParams{TxManager: h.txManager, Hasher: hasher, TokenService: tokens, Config: cfg, Logger: logger})
	h.accounts = NewAccountService(AccountServiceParams{TxManager: h.txManager, Hasher: hasher, Logger: logger})
	h.catalog = NewCatalogService(CatalogServiceParams{
		TxManager:    h.txManager,
		LabelService: qrcode.NewQRLabelService(128, "M", "library://copies/"),
		Logger:       logger,
	})
	h.circulation = NewCirculationService(CirculationServiceParams{
		TxManager: h.txManager, Calc: calc, Clock: h.clock, Publisher: h.publisher, Logger: logger,
	})
	h.settings = NewSettingsService(SettingsServiceParams{TxManager: h.txManager, Logger: logger})
	h.notifications = NewNotificationService(NotificationServiceParams{
		TxManager: h.txManager, Clock: h.clock, Publisher: h.publisher, Logger: logger,
	})
	h.reports = NewReportService(ReportServiceParams{TxManager: h.txManager, Calc: calc, Clock: h.clock, Logger: logger})

	require.NoError(t, h.auth.EnsureAdmin(context.Background()))
	session, err := h.auth.Login(context.Background(), usecase.LoginInput{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)
	h.admin = entity.Principal{UserID: session.User.ID, Role: entity.RoleAdmin}

	return h
}

func (h *harness) member(t *testing.T, username string) entity.Principal {
	t.Helper()

	user, err := h.accounts.CreateUser(context.Background(), usecase.CreateUserInput{
		Username: username,
		Email:    username + "@library.test",
		Password: "secret-" + username,
		Faculty:  "Science",
	})
	require.NoError(t, err)

	return entity.Principal{UserID: user.ID, Role: entity.RoleUser}
}

func (h *harness) book(t *testing.T, title string, copies int) *entity.Book {
	t.Helper()

	book, err := h.catalog.AddBook(context.Background(), usecase.AddBookInput{
		BookInput:     usecase.BookInput{Title: title, Author: "Author of " + title, Category: "General"},
		InitialCopies: copies,
	})
	require.NoError(t, err)

	return book
}

func (h *harness) setPolicy(t *testing.T, update entity.SettingsUpdate) {
	t.Helper()

	_, err := h.settings.Update(context.Background(), update)
	require.NoError(t, err)
}

func (h *harness) user(t *testing.T, id int64) *entity.User {
	t.Helper()

	user, err := h.accounts.GetUser(context.Background(), h.admin, id)
	require.NoError(t, err)

	return user
}

func (h *harness) copies(t *testing.T, bookID int64) []*entity.BookCopy {
	t.Helper()

	copies, err := h.catalog.ListCopies(context.Background(), bookID)
	require.NoError(t, err)

	return copies
}

// assertInvariants checks the book and user cache invariants against the
// underlying rows.
func (h *harness) assertInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	books, err := h.catalog.ListBooks(ctx, entity.BookFilter{})
	require.NoError(t, err)
	for _, book := range books {
		copies := h.copies(t, book.ID)
		available := 0
		for _, c := range copies {
			if c.Status == entity.CopyAvailable {
				available++
			}
		}
		require.Equalf(t, len(copies), book.TotalCopies, "totalCopies of book %d", book.ID)
		require.Equalf(t, available, book.AvailableCopies, "availableCopies of book %d", book.ID)
	}

	users, err := h.accounts.ListUsers(ctx, entity.UserFilter{})
	require.NoError(t, err)
	for _, user := range users {
		records, err := h.circulation.ListUserRecords(ctx, h.admin, user.ID, nil)
		require.NoError(t, err)

		open := 0
		var fines int64
		for _, r := range records {
			if r.Status == entity.RecordBorrowing {
				open++
			}
			fines += r.Fine
		}
		require.Equalf(t, open, user.CurrentBorrowed, "currentBorrowed of user %d", user.ID)
		require.Equalf(t, fines, user.TotalFines, "totalFines of user %d", user.ID)
	}
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
