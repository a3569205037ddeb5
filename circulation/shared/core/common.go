package core

import (
	"time"
)

// BookID identifies a book.
type BookID = int64

// MemberID identifies a member.
type MemberID = int64

// BorrowID identifies a borrowing record.
type BorrowID = int64

// Date is a calendar day, stored as midnight UTC.
type Date = time.Time

// ToDate converts a time to the calendar day it falls on in its own location, so the engine
// clock decides which day "today" is. Dates read back from the database are midnight UTC and
// keep their day.
func ToDate(t time.Time) Date {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from one date to another.
func DaysBetween(from, to time.Time) int {
	return int(ToDate(to).Sub(ToDate(from)).Hours() / 24)
}
