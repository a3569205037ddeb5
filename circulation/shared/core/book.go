package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinPublishedYear is the earliest publication year accepted for new books.
const MinPublishedYear = 1000

// Book is one title in the catalog together with its number of copies on the shelf.
type Book struct {
	BookID          BookID
	Title           string
	Author          string
	PublishedYear   int
	AvailableCopies int
	Genre           string
	ISBN            string
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAvailable reports whether at least one copy can be borrowed.
func (b Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// NewBook is the input for adding a book to the catalog.
type NewBook struct {
	Title         string
	Author        string
	PublishedYear int
	Copies        int
	Genre         string
	ISBN          string
	Description   string
}

// Normalize trims surrounding whitespace from all text fields.
func (n NewBook) Normalize() NewBook {
	n.Title = strings.TrimSpace(n.Title)
	n.Author = strings.TrimSpace(n.Author)
	n.Genre = strings.TrimSpace(n.Genre)
	n.ISBN = strings.TrimSpace(n.ISBN)
	n.Description = strings.TrimSpace(n.Description)

	return n
}

// Validate checks the required fields. The latest accepted publication year is next year.
func (n NewBook) Validate(today time.Time) error {
	var errs []error

	if n.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}

	if n.Author == "" {
		errs = append(errs, errors.New("author is required"))
	}

	maxYear := today.Year() + 1
	if n.PublishedYear < MinPublishedYear || n.PublishedYear > maxYear {
		errs = append(errs, fmt.Errorf("published year must be between %d and %d", MinPublishedYear, maxYear))
	}

	if n.Copies < 1 {
		errs = append(errs, errors.New("copies must be at least 1"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInput}, errs...)...)
	}

	return nil
}
