package core

import "errors"

// Rejections of the borrowing workflow. None of them changes any state.
var (
	// ErrMemberNotFound is returned when the referenced member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBookNotFound is returned when the referenced book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrBorrowingNotFound is returned when the referenced borrowing record does not exist.
	ErrBorrowingNotFound = errors.New("borrowing record not found")

	// ErrNoCopiesAvailable is returned when a book has no copy left to borrow.
	ErrNoCopiesAvailable = errors.New("no copies of the book available")

	// ErrAlreadyBorrowed is returned when the member still has an open loan of the same book.
	ErrAlreadyBorrowed = errors.New("member has already borrowed this book and not returned it yet")

	// ErrAlreadyReturned is returned when a borrowing record already has a return date.
	ErrAlreadyReturned = errors.New("book was already returned")
)

// Rejections of the add operations.
var (
	// ErrInvalidInput is returned when a required field is missing or out of range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidEmail is returned when an email address lacks an "@" or a ".".
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrDuplicateBook is returned when a book with the same title and author exists.
	ErrDuplicateBook = errors.New("a book with this title and author already exists")

	// ErrDuplicateEmail is returned when a member with the same email exists.
	ErrDuplicateEmail = errors.New("a member with this email already exists")
)

// IsNotFound reports whether err rejects an operation because something it references is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrBorrowingNotFound)
}

// IsConflict reports whether err rejects an operation because of the current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNoCopiesAvailable) ||
		errors.Is(err, ErrAlreadyBorrowed) ||
		errors.Is(err, ErrAlreadyReturned) ||
		errors.Is(err, ErrDuplicateBook) ||
		errors.Is(err, ErrDuplicateEmail)
}

// IsValidationError reports whether err rejects the input itself.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidEmail)
}

// IsRejection reports whether err is any business rejection, as opposed to a technical failure.
func IsRejection(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsValidationError(err)
}
