package repository

import "context"

// TransactionManager runs a unit of circulation work atomically. Copy claims,
// record transitions, counter updates and the owner's notification either all
// commit or all roll back.
type TransactionManager interface {
	// Execute commits when fn returns nil and rolls back otherwise. The
	// context deadline bounds the whole transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error

	// ExecuteSnapshot runs fn in a read-only transaction whose statements
	// all read the same committed state. Writes inside fn fail.
	ExecuteSnapshot(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories bound to one open transaction.
type RepositoryFactory interface {
	NewBookRepository() BookRepository
	NewCopyRepository() CopyRepository
	NewBorrowRecordRepository() BorrowRecordRepository
	NewUserRepository() UserRepository
	NewSettingsRepository() SettingsRepository
	NewNotificationRepository() NotificationRepository
}
