package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func Test_ToDate_KeepsTheCalendarDayOfTheClockLocation(t *testing.T) {
	testCases := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "east of UTC just after midnight",
			input:    time.Date(2024, time.March, 2, 0, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: day(2024, time.March, 2),
		},
		{
			name:     "west of UTC late in the evening",
			input:    time.Date(2024, time.March, 1, 22, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			expected: day(2024, time.March, 1),
		},
		{
			name:     "midnight UTC as read from the database",
			input:    day(2024, time.March, 1),
			expected: day(2024, time.March, 1),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, core.ToDate(tc.input))
		})
	}
}

func Test_DaysBetween_CountsCalendarDays(t *testing.T) {
	assert.Equal(t, 0, core.DaysBetween(day(2024, 1, 1), day(2024, 1, 1).Add(23*time.Hour)))
	assert.Equal(t, 14, core.DaysBetween(day(2024, 1, 1), day(2024, 1, 15)))
	assert.Equal(t, 1, core.DaysBetween(day(2024, 2, 28), day(2024, 2, 29)))
}

func Test_BorrowingRecord_StatusAt(t *testing.T) {
	due := day(2024, time.May, 10)
	returned := day(2024, time.May, 20)

	testCases := []struct {
		name     string
		record   core.BorrowingRecord
		today    time.Time
		expected core.BorrowingStatus
	}{
		{
			name:     "open without due date is borrowed forever",
			record:   core.BorrowingRecord{BorrowDate: day(2020, 1, 1)},
			today:    day(2024, time.May, 20),
			expected: core.StatusBorrowed,
		},
		{
			name:     "open on the due date is borrowed",
			record:   core.BorrowingRecord{BorrowDate: day(2024, 5, 1), DueDate: &due},
			today:    due.Add(20 * time.Hour),
			expected: core.StatusBorrowed,
		},
		{
			name:     "open after the due date is overdue",
			record:   core.BorrowingRecord{BorrowDate: day(2024, 5, 1), DueDate: &due},
			today:    day(2024, time.May, 11),
			expected: core.StatusOverdue,
		},
		{
			name:     "returned late is returned",
			record:   core.BorrowingRecord{BorrowDate: day(2024, 5, 1), DueDate: &due, ReturnDate: &returned},
			today:    day(2024, time.June, 1),
			expected: core.StatusReturned,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.record.StatusAt(tc.today))
		})
	}
}

func Test_BorrowingRecord_DaysBorrowed_StopsCountingOnReturn(t *testing.T) {
	// arrange
	returned := day(2024, time.May, 8)
	open := core.BorrowingRecord{BorrowDate: day(2024, time.May, 1)}
	closed := core.BorrowingRecord{BorrowDate: day(2024, time.May, 1), ReturnDate: &returned}

	// act + assert
	assert.Equal(t, 30, open.DaysBorrowed(day(2024, time.May, 31)))
	assert.Equal(t, 7, closed.DaysBorrowed(day(2024, time.May, 31)))
	assert.True(t, open.IsOpen())
	assert.False(t, closed.IsOpen())
}

func Test_ParseStatusFilter(t *testing.T) {
	testCases := map[string]core.StatusFilter{
		"":          core.FilterAll,
		"All":       core.FilterAll,
		"borrowed":  core.FilterBorrowed,
		" Returned": core.FilterReturned,
		"OVERDUE":   core.FilterOverdue,
	}

	for input, expected := range testCases {
		filter, err := core.ParseStatusFilter(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, filter, input)
	}

	_, err := core.ParseStatusFilter("lost")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func Test_NewBook_Validate(t *testing.T) {
	today := day(2024, time.June, 1)
	valid := core.NewBook{Title: "1984", Author: "George Orwell", PublishedYear: 1949, Copies: 4}

	testCases := []struct {
		name    string
		mutate  func(b *core.NewBook)
		wantErr bool
	}{
		{name: "valid", mutate: func(*core.NewBook) {}},
		{name: "next year is allowed", mutate: func(b *core.NewBook) { b.PublishedYear = 2025 }},
		{name: "missing title", mutate: func(b *core.NewBook) { b.Title = "" }, wantErr: true},
		{name: "missing author", mutate: func(b *core.NewBook) { b.Author = "" }, wantErr: true},
		{name: "zero copies", mutate: func(b *core.NewBook) { b.Copies = 0 }, wantErr: true},
		{name: "year too early", mutate: func(b *core.NewBook) { b.PublishedYear = 999 }, wantErr: true},
		{name: "year in the future", mutate: func(b *core.NewBook) { b.PublishedYear = 2026 }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			book := valid
			tc.mutate(&book)

			// act
			err := book.Validate(today)

			// assert
			if tc.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidInput)
				assert.True(t, core.IsValidationError(err))
				return
			}

			assert.NoError(t, err)
		})
	}
}

func Test_NewBook_Normalize_TrimsFields(t *testing.T) {
	// act
	book := core.NewBook{Title: "  1984 ", Author: "\tGeorge Orwell\n", ISBN: " 978-0451524935 "}.Normalize()

	// assert
	assert.Equal(t, "1984", book.Title)
	assert.Equal(t, "George Orwell", book.Author)
	assert.Equal(t, "978-0451524935", book.ISBN)
}

func Test_NewMember_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		member      core.NewMember
		expectedErr error
	}{
		{name: "valid", member: core.NewMember{Name: "Jane", Email: "jane@example.org"}},
		{name: "missing name", member: core.NewMember{Email: "jane@example.org"}, expectedErr: core.ErrInvalidInput},
		{name: "missing email", member: core.NewMember{Name: "Jane"}, expectedErr: core.ErrInvalidInput},
		{name: "no at sign", member: core.NewMember{Name: "Jane", Email: "jane.example.org"}, expectedErr: core.ErrInvalidEmail},
		{name: "no dot", member: core.NewMember{Name: "Jane", Email: "jane@localhost"}, expectedErr: core.ErrInvalidEmail},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.member.Validate()

			if tc.expectedErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_ErrorClassification(t *testing.T) {
	assert.True(t, core.IsNotFound(core.ErrBookNotFound))
	assert.True(t, core.IsNotFound(core.ErrBorrowingNotFound))
	assert.True(t, core.IsConflict(core.ErrNoCopiesAvailable))
	assert.True(t, core.IsConflict(core.ErrDuplicateEmail))
	assert.True(t, core.IsValidationError(core.ErrInvalidEmail))
	assert.True(t, core.IsRejection(core.ErrAlreadyReturned))
	assert.False(t, core.IsRejection(assert.AnError))
}
