package core

import (
	"fmt"
	"strings"
	"time"
)

// BorrowingStatus is the derived state of a borrowing record.
type BorrowingStatus string

// Borrowing states. A record is Borrowed (or Overdue) until its return date is set.
const (
	StatusBorrowed BorrowingStatus = "Borrowed"
	StatusReturned BorrowingStatus = "Returned"
	StatusOverdue  BorrowingStatus = "Overdue"
)

// BorrowingRecord is one loan of a book to a member.
// MemberName and BookTitle are filled by queries that join the parents.
type BorrowingRecord struct {
	BorrowID   BorrowID
	MemberID   MemberID
	BookID     BookID
	BorrowDate Date
	DueDate    *Date
	ReturnDate *Date
	MemberName string
	BookTitle  string
}

// IsOpen reports whether the book is still out.
func (r BorrowingRecord) IsOpen() bool {
	return r.ReturnDate == nil
}

// StatusAt derives the status on the given day: Returned once a return date is set,
// Overdue while open after the due date, Borrowed otherwise.
func (r BorrowingRecord) StatusAt(today time.Time) BorrowingStatus {
	if r.ReturnDate != nil {
		return StatusReturned
	}

	if r.DueDate != nil && ToDate(*r.DueDate).Before(ToDate(today)) {
		return StatusOverdue
	}

	return StatusBorrowed
}

// DaysBorrowed returns how many days the book has been out on the given day,
// or was out until it was returned.
func (r BorrowingRecord) DaysBorrowed(today time.Time) int {
	if r.ReturnDate != nil {
		return DaysBetween(r.BorrowDate, *r.ReturnDate)
	}

	return DaysBetween(r.BorrowDate, today)
}

// StatusFilter selects borrowing records by derived status.
type StatusFilter string

// Status filters. FilterBorrowed matches every open record, overdue ones included.
const (
	FilterAll      StatusFilter = "All"
	FilterBorrowed StatusFilter = "Borrowed"
	FilterReturned StatusFilter = "Returned"
	FilterOverdue  StatusFilter = "Overdue"
)

// ParseStatusFilter accepts the filter names case-insensitively. An empty string means FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "borrowed":
		return FilterBorrowed, nil
	case "returned":
		return FilterReturned, nil
	case "overdue":
		return FilterOverdue, nil
	default:
		return "", fmt.Errorf("%w: unknown status filter %q", ErrInvalidInput, s)
	}
}
