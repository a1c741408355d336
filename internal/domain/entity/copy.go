package entity

import (
	"strings"
	"time"
)

// CopyStatus is the shelf state of one physical copy.
type CopyStatus string

const (
	CopyAvailable CopyStatus = "AVAILABLE"
	CopyBorrowed  CopyStatus = "BORROWED"
	CopyLost      CopyStatus = "LOST"
	CopyDamaged   CopyStatus = "DAMAGED"
)

// String returns the string representation of the CopyStatus.
func (s CopyStatus) String() string {
	return string(s)
}

// IsValid checks if the CopyStatus is a valid value.
func (s CopyStatus) IsValid() bool {
	switch s {
	case CopyAvailable, CopyBorrowed, CopyLost, CopyDamaged:
		return true
	default:
		return false
	}
}

// ParseCopyStatus normalizes a wire value.
func ParseCopyStatus(s string) (CopyStatus, bool) {
	status := CopyStatus(strings.ToUpper(strings.TrimSpace(s)))

	return status, status.IsValid()
}

// BookCopy is one physical unit of a Book.
type BookCopy struct {
	ID            int64      `json:"id"`
	BookID        int64      `json:"bookId"`
	Status        CopyStatus `json:"status"`
	ShelfLocation string     `json:"shelfLocation"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CopyStatusCounts tallies copies of one or more books by status.
type CopyStatusCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Borrowed  int `json:"borrowed"`
	Lost      int `json:"lost"`
	Damaged   int `json:"damaged"`
}

// Add counts n copies in the given status.
func (c *CopyStatusCounts) Add(status CopyStatus, n int) {
	c.Total += n
	switch status {
	case CopyAvailable:
		c.Available += n
	case CopyBorrowed:
		c.Borrowed += n
	case CopyLost:
		c.Lost += n
	case CopyDamaged:
		c.Damaged += n
	}
}
