package model

import "time"

// BorrowRecordModel is the GORM-specific struct for the 'borrow_records' table.
// Book and user references carry no foreign keys so records survive catalog
// deletions; BookTitle keeps the title readable afterwards.
type BorrowRecordModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     int64     `gorm:"not null;index:idx_borrow_records_user_status,priority:1"`
	BookID     int64     `gorm:"not null;index"`
	CopyID     int64     `gorm:"not null;index"`
	BookTitle  string    `gorm:"size:255"`
	BorrowDate time.Time `gorm:"not null;index"`
	DueDate    time.Time `gorm:"not null;index"`
	ReturnDate *time.Time
	Status     string `gorm:"size:16;not null;index:idx_borrow_records_user_status,priority:2"`
	Fine       int64  `gorm:"not null;default:0"`
	RenewCount int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (BorrowRecordModel) TableName() string {
	return "borrow_records"
}
