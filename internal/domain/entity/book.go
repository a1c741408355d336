// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// Book is a catalog entry. Its copy counters are maintained by inventory and
// circulation transitions and always equal the aggregate over its copies.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Category        string    `json:"category"`
	Year            int       `json:"year"`
	Price           int64     `json:"price"`
	PageCount       int       `json:"pageCount"`
	Description     string    `json:"description"`
	TotalCopies     int       `json:"totalCopies"`     // count(copies)
	AvailableCopies int       `json:"availableCopies"` // count(copies where status == AVAILABLE)
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BookFilter narrows a catalog search. Empty fields match everything.
type BookFilter struct {
	Keyword       string // matched against title, author and isbn
	Category      string
	Author        string
	AvailableOnly bool
}
