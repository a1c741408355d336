package model

import "time"

// SettingsSingletonID is the primary key of the only settings row.
const SettingsSingletonID = 1

// SettingsModel is the GORM-specific struct for the 'settings' table.
type SettingsModel struct {
	ID                 int `gorm:"primaryKey;autoIncrement:false"`
	MaxBorrowDays      int
	MaxBorrowBooks     int
	RenewalDays        int
	OverdueFinePerDay  int64
	LostBookFine       int64
	DamagedBookFine    int64
	AutoCheckOverdue   bool
	ReminderDaysBefore int
	UpdatedAt          time.Time
}

// TableName explicitly sets the table name for GORM.
func (SettingsModel) TableName() string {
	return "settings"
}
