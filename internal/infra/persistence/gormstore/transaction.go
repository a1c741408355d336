package gormstore

import (
	"context"
	"database/sql"

	"circulation/internal/domain/repository"
	"circulation/internal/errors"

	"gorm.io/gorm"
)

// snapshotTxOptions make every statement of a report see the same committed
// state. SQLite serializes on one connection and ignores them.
var snapshotTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// gormTransactionManager opens one GORM transaction per Execute call.
type gormTransactionManager struct {
	db *gorm.DB
}

type gormRepositoryFactory struct {
	tx *gorm.DB
}

func (f *gormRepositoryFactory) NewBookRepository() repository.BookRepository {
	return NewBookRepository(f.tx)
}

func (f *gormRepositoryFactory) NewCopyRepository() repository.CopyRepository {
	return NewCopyRepository(f.tx)
}

func (f *gormRepositoryFactory) NewBorrowRecordRepository() repository.BorrowRecordRepository {
	return NewBorrowRecordRepository(f.tx)
}

func (f *gormRepositoryFactory) NewUserRepository() repository.UserRepository {
	return NewUserRepository(f.tx)
}

func (f *gormRepositoryFactory) NewSettingsRepository() repository.SettingsRepository {
	return NewSettingsRepository(f.tx)
}

func (f *gormRepositoryFactory) NewNotificationRepository() repository.NotificationRepository {
	return NewNotificationRepository(f.tx)
}

// NewTransactionManager wraps db for the use cases.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	return tm.run(ctx, nil, fn)
}

func (tm *gormTransactionManager) ExecuteSnapshot(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	return tm.run(ctx, snapshotTxOptions, fn)
}

func (tm *gormTransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "failed to begin transaction")
	}

	// A panic inside fn still releases the transaction.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositoryFactory{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Wrapf(err, "transaction rollback failed: %v", rbErr)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}
