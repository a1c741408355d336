package gormstore

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"circulation/internal/domain/entity"
	"circulation/internal/domain/repository"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenInMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func seedBookWithCopies(t *testing.T, db *gorm.DB, n int) (*entity.Book, []*entity.BookCopy) {
	t.Helper()
	ctx := context.Background()

	book := &entity.Book{Title: "The Go Programming Language", Author: "Donovan", ISBN: "9780134190440", Category: "Programming"}
	require.NoError(t, NewBookRepository(db).Create(ctx, book))

	copies := make([]*entity.BookCopy, 0, n)
	for i := 0; i < n; i++ {
		bookCopy := &entity.BookCopy{BookID: book.ID, Status: entity.CopyAvailable}
		require.NoError(t, NewCopyRepository(db).Create(ctx, bookCopy))
		copies = append(copies, bookCopy)
	}
	require.NoError(t, NewBookRepository(db).AdjustCopyCounts(ctx, book.ID, n, n))

	return book, copies
}

func TestBookRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewBookRepository(db)

	seedBookWithCopies(t, db, 1)
	require.NoError(t, repo.Create(ctx, &entity.Book{Title: "Dune", Author: "Herbert", Category: "Fiction"}))

	books, err := repo.List(ctx, entity.BookFilter{Keyword: "go prog"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 1, books[0].AvailableCopies)

	books, err = repo.List(ctx, entity.BookFilter{Category: "Fiction"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	books, err = repo.List(ctx, entity.BookFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Programming", books[0].Category)

	exists, err := repo.ExistsByISBN(ctx, "9780134190440", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByISBN(ctx, "9780134190440", books[0].ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrBookNotFound)
}

func TestBookRepository_AdjustCopyCountsRejectsNegative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	book, _ := seedBookWithCopies(t, db, 1)

	err := NewBookRepository(db).AdjustCopyCounts(ctx, book.ID, 0, -2)
	require.Error(t, err)

	stored, err := NewBookRepository(db).FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableCopies)
}

func TestCopyRepository_ClaimAvailableTakesLowestID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	book, copies := seedBookWithCopies(t, db, 2)
	repo := NewCopyRepository(db)

	claimed, err := repo.ClaimAvailable(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, copies[0].ID, claimed.ID)
	assert.Equal(t, entity.CopyBorrowed, claimed.Status)

	claimed, err = repo.ClaimAvailable(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, copies[1].ID, claimed.ID)

	_, err = repo.ClaimAvailable(ctx, book.ID)
	assert.ErrorIs(t, err, repository.ErrNoAvailableCopy)
}

func TestCopyRepository_TransitionAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, copies := seedBookWithCopies(t, db, 1)
	repo := NewCopyRepository(db)
	id := copies[0].ID

	require.NoError(t, repo.TransitionStatus(ctx, id, entity.CopyAvailable, entity.CopyBorrowed))
	assert.ErrorIs(t, repo.TransitionStatus(ctx, id, entity.CopyAvailable, entity.CopyBorrowed), repository.ErrCopyStatusChanged)
	assert.ErrorIs(t, repo.TransitionStatus(ctx, 999, entity.CopyAvailable, entity.CopyBorrowed), repository.ErrCopyNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, id), repository.ErrCopyStatusChanged)

	require.NoError(t, repo.TransitionStatus(ctx, id, entity.CopyBorrowed, entity.CopyDamaged))
	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), repository.ErrCopyNotFound)
}

func TestCopyRepository_CountByBookAndStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	book, copies := seedBookWithCopies(t, db, 3)
	repo := NewCopyRepository(db)
	require.NoError(t, repo.TransitionStatus(ctx, copies[0].ID, entity.CopyAvailable, entity.CopyLost))

	counts, err := repo.CountByBookAndStatus(ctx)
	require.NoError(t, err)

	byStatus := map[entity.CopyStatus]int{}
	for _, c := range counts {
		assert.Equal(t, book.ID, c.BookID)
		byStatus[c.Status] = c.Count
	}
	assert.Equal(t, map[entity.CopyStatus]int{entity.CopyAvailable: 2, entity.CopyLost: 1}, byStatus)
}

func TestBorrowRecordRepository_UpdateOpenOnlyWhileBorrowing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewBorrowRecordRepository(db)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	record := &entity.BorrowRecord{
		UserID: 1, BookID: 2, CopyID: 3, BookTitle: "Dune",
		BorrowDate: now, DueDate: now.AddDate(0, 0, 14), Status: entity.RecordBorrowing,
	}
	require.NoError(t, repo.Create(ctx, record))

	returned := now.AddDate(0, 0, 20)
	record.Status = entity.RecordReturned
	record.ReturnDate = &returned
	record.Fine = 30000
	require.NoError(t, repo.UpdateOpen(ctx, record))

	record.Status = entity.RecordLost
	assert.ErrorIs(t, repo.UpdateOpen(ctx, record), repository.ErrRecordNotOpen)

	stored, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordReturned, stored.Status)
	assert.Equal(t, int64(30000), stored.Fine)
	require.NotNil(t, stored.ReturnDate)
	assert.True(t, returned.Equal(*stored.ReturnDate))
}

func TestBorrowRecordRepository_ListAndCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewBorrowRecordRepository(db)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, status := range []entity.RecordStatus{entity.RecordBorrowing, entity.RecordBorrowing, entity.RecordReturned} {
		require.NoError(t, repo.Create(ctx, &entity.BorrowRecord{
			UserID: 7, BookID: 1, CopyID: int64(i + 1),
			BorrowDate: base.AddDate(0, 0, i), DueDate: base.AddDate(0, 0, i+14), Status: status,
		}))
	}

	open, err := repo.CountOpenByUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	due, err := repo.ListOpenDueBefore(ctx, base.AddDate(0, 0, 15).Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, due, 2)

	overdue, err := repo.List(ctx, entity.RecordFilter{OverdueOnly: true, Now: base.AddDate(0, 0, 14).Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, int64(1), overdue[0].CopyID)

	from := base.AddDate(0, 0, 1)
	windowed, err := repo.List(ctx, entity.RecordFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, windowed, 2)

	byBook, err := repo.CountByBook(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 3}, byBook)
}

func TestUserRepository_LoanCounters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	user := &entity.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: entity.RoleUser, Status: entity.AccountActive}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.OpenLoan(ctx, user.ID, 1))
	assert.ErrorIs(t, repo.OpenLoan(ctx, user.ID, 1), repository.ErrLoanLimitReached)
	assert.ErrorIs(t, repo.OpenLoan(ctx, 999, 1), repository.ErrUserNotFound)

	require.NoError(t, repo.CloseLoan(ctx, user.ID, 5000))

	stored, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentBorrowed)
	assert.Equal(t, 1, stored.TotalBorrowed)
	assert.Equal(t, int64(5000), stored.TotalFines)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	require.NoError(t, repo.Create(ctx, &entity.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: entity.RoleUser, Status: entity.AccountActive}))
	err := repo.Create(ctx, &entity.User{Username: "bob", Email: "other@example.com", PasswordHash: "x", Role: entity.RoleUser, Status: entity.AccountActive})
	assert.ErrorIs(t, err, repository.ErrDuplicateUser)
}

func TestSettingsRepository_SaveReplacesDocument(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewSettingsRepository(db)

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, repository.ErrSettingsNotFound)

	settings := entity.DefaultSettings()
	require.NoError(t, repo.Save(ctx, &settings))

	settings.MaxBorrowBooks = 2
	settings.AutoCheckOverdue = false
	require.NoError(t, repo.Save(ctx, &settings))

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, *stored)
}

func TestNotificationRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)
	recordID := int64(42)

	first := &entity.Notification{UserID: 1, RecordID: &recordID, Type: entity.NotificationOverdue, Title: "Overdue"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, &entity.Notification{UserID: 1, Type: entity.NotificationAccountLocked, Title: "Locked"}))

	exists, err := repo.ExistsForRecord(ctx, recordID, entity.NotificationOverdue)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsForRecord(ctx, recordID, entity.NotificationDueSoon)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.MarkRead(ctx, first.ID))
	unread, err := repo.ListByUser(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, entity.NotificationAccountLocked, unread[0].Type)

	all, err := repo.ListByUser(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, repo.MarkRead(ctx, 999), repository.ErrNotificationNotFound)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tm := NewTransactionManager(db)
	errBoom := errors.New("boom")

	err := tm.Execute(ctx, func(factory repository.RepositoryFactory) error {
		if err := factory.NewBookRepository().Create(ctx, &entity.Book{Title: "Rolled back", Author: "Nobody"}); err != nil {
			return err
		}

		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	books, err := NewBookRepository(db).List(ctx, entity.BookFilter{})
	require.NoError(t, err)
	assert.Empty(t, books)

	err = tm.Execute(ctx, func(factory repository.RepositoryFactory) error {
		return factory.NewBookRepository().Create(ctx, &entity.Book{Title: "Kept", Author: "Somebody"})
	})
	require.NoError(t, err)

	books, err = NewBookRepository(db).List(ctx, entity.BookFilter{})
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestTransactionManager_ExecuteSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tm := NewTransactionManager(db)

	require.NoError(t, NewBookRepository(db).Create(ctx, &entity.Book{Title: "Dune", Author: "Herbert"}))

	var books []*entity.Book
	err := tm.ExecuteSnapshot(ctx, func(factory repository.RepositoryFactory) error {
		var err error
		books, err = factory.NewBookRepository().List(ctx, entity.BookFilter{})

		return err
	})
	require.NoError(t, err)
	assert.Len(t, books, 1)

	errBoom := errors.New("boom")
	err = tm.ExecuteSnapshot(ctx, func(repository.RepositoryFactory) error {
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, sql.LevelRepeatableRead, snapshotTxOptions.Isolation)
	assert.True(t, snapshotTxOptions.ReadOnly)
}
