package model

import "time"

// NotificationModel is the GORM-specific struct for the 'notifications' table.
type NotificationModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null;index:idx_notifications_user_read,priority:1"`
	RecordID  *int64 `gorm:"index:idx_notifications_record_type,priority:1"`
	Type      string `gorm:"size:32;not null;index:idx_notifications_record_type,priority:2"`
	Title     string `gorm:"size:255;not null"`
	Message   string
	Read      bool `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (NotificationModel) TableName() string {
	return "notifications"
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&BookModel{},
		&BookCopyModel{},
		&BorrowRecordModel{},
		&UserModel{},
		&SettingsModel{},
		&NotificationModel{},
	}
}
