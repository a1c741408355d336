// Package model contains the GORM-specific persistence structs.
package model

import "time"

// BookModel is the GORM-specific struct for the 'books' table.
type BookModel struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Title           string `gorm:"size:255;not null;index"`
	Author          string `gorm:"size:255;not null;index"`
	ISBN            string `gorm:"column:isbn;size:32;index"`
	Category        string `gorm:"size:100;index"`
	Year            int
	Price           int64 `gorm:"not null;default:0"`
	PageCount       int   `gorm:"not null;default:0"`
	Description     string
	TotalCopies     int `gorm:"not null;default:0;check:chk_books_total,total_copies >= 0"`
	AvailableCopies int `gorm:"not null;default:0;check:chk_books_available,available_copies >= 0 AND available_copies <= total_copies"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (BookModel) TableName() string {
	return "books"
}

// BookCopyModel is the GORM-specific struct for the 'book_copies' table.
type BookCopyModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	BookID        int64  `gorm:"not null;index:idx_book_copies_book_status,priority:1"`
	Status        string `gorm:"size:16;not null;index:idx_book_copies_book_status,priority:2"`
	ShelfLocation string `gorm:"size:64"`
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (BookCopyModel) TableName() string {
	return "book_copies"
}
