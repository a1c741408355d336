package entity

import "time"

// DashboardStats is a global snapshot of the library.
type DashboardStats struct {
	TotalTitles  int              `json:"totalTitles"`
	Copies       CopyStatusCounts `json:"copies"`
	ActiveLoans  int              `json:"activeLoans"`
	OverdueLoans int              `json:"overdueLoans"`
	TotalUsers   int              `json:"totalUsers"`
	ActiveUsers  int              `json:"activeUsers"`
	LockedUsers  int              `json:"lockedUsers"`
	TotalFines   int64            `json:"totalFines"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

// CategoryReport aggregates the books of one category.
type CategoryReport struct {
	Category   string           `json:"category"`
	Titles     int              `json:"titles"`
	Copies     CopyStatusCounts `json:"copies"`
	BorrowRate float64          `json:"borrowRate"` // borrowed / total copies
	TotalLoans int              `json:"totalLoans"` // lifetime records
}

// BookReport is the per-category breakdown with its grand total.
type BookReport struct {
	Categories  []CategoryReport `json:"categories"`
	Totals      CopyStatusCounts `json:"totals"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// FacultyReport aggregates the members of one faculty.
type FacultyReport struct {
	Faculty     string `json:"faculty"`
	Users       int    `json:"users"`
	LockedUsers int    `json:"lockedUsers"`
	ActiveLoans int    `json:"activeLoans"`
	TotalFines  int64  `json:"totalFines"`
}

// UserReport is the per-faculty breakdown.
type UserReport struct {
	Faculties   []FacultyReport `json:"faculties"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// BorrowReport counts records by status within an optional window.
type BorrowReport struct {
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Total       int        `json:"total"`
	Borrowing   int        `json:"borrowing"`
	Returned    int        `json:"returned"`
	Lost        int        `json:"lost"`
	Damaged     int        `json:"damaged"`
	Overdue     int        `json:"overdue"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// PenaltyItem is one fined or overdue record.
type PenaltyItem struct {
	RecordID   int64        `json:"recordId"`
	UserID     int64        `json:"userId"`
	Username   string       `json:"username"`
	BookID     int64        `json:"bookId"`
	BookTitle  string       `json:"bookTitle"`
	Status     RecordStatus `json:"status"`
	DueDate    time.Time    `json:"dueDate"`
	ReturnDate *time.Time   `json:"returnDate,omitempty"`
	Fine       int64        `json:"fine"`
	Projected  bool         `json:"projected"` // fine computed as of now for an open overdue record
}

// PenaltyReport lists penalties with their total.
type PenaltyReport struct {
	Items       []PenaltyItem `json:"items"`
	TotalFines  int64         `json:"totalFines"`
	GeneratedAt time.Time     `json:"generatedAt"`
}
