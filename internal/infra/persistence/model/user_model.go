package model

import "time"

// UserModel is the GORM-specific struct for the 'users' table.
type UserModel struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Username        string `gorm:"size:64;not null;uniqueIndex"`
	Email           string `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash    string `gorm:"size:255;not null"`
	FullName        string `gorm:"size:255"`
	Phone           string `gorm:"size:32"`
	Faculty         string `gorm:"size:100;index"`
	Role            string `gorm:"size:16;not null;index"`
	Status          string `gorm:"size:16;not null"`
	TotalBorrowed   int    `gorm:"not null;default:0"`
	CurrentBorrowed int    `gorm:"not null;default:0;check:chk_users_current_borrowed,current_borrowed >= 0"`
	TotalFines      int64  `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
