package web

import (
	"time"

	"github.com/AntonStoeckl/librarydesk/circulation/features/query/dashboardstats"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listborrowings"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/openloans"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
)

const dateLayout = "2006-01-02"

// AddBookRequest is the body of POST /api/books and of the add book form.
// Range checks happen in the domain so that they are reported as invalid input.
type AddBookRequest struct {
	Title         string `json:"title" form:"title" binding:"required"`
	Author        string `json:"author" form:"author" binding:"required"`
	PublishedYear int    `json:"published_year" form:"published_year"`
	Copies        int    `json:"copies" form:"copies"`
	Genre         string `json:"genre" form:"genre"`
	ISBN          string `json:"isbn" form:"isbn"`
	Description   string `json:"description" form:"description"`
}

// AddMemberRequest is the body of POST /api/members and of the add member form.
type AddMemberRequest struct {
	Name        string `json:"name" form:"name" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
	Address     string `json:"address" form:"address"`
}

// BorrowRequest is the body of POST /api/borrowings and of the borrow form.
type BorrowRequest struct {
	MemberID int64 `json:"member_id" form:"member_id" binding:"required,gt=0"`
	BookID   int64 `json:"book_id" form:"book_id" binding:"required,gt=0"`
}

// ReturnRequest is the body of the return form. The API takes the id from the path.
type ReturnRequest struct {
	BorrowID int64 `form:"borrow_id" binding:"required,gt=0"`
}

// BookListParams are the query parameters of GET /api/books.
type BookListParams struct {
	Q         string `form:"q"`
	MinCopies int    `form:"min_copies" binding:"gte=0"`
}

// MemberListParams are the query parameters of GET /api/members.
type MemberListParams struct {
	Q string `form:"q"`
}

// BorrowingListParams are the query parameters of GET /api/borrowings.
type BorrowingListParams struct {
	Status string `form:"status"`
	Member string `form:"member"`
	Limit  int    `form:"limit" binding:"gte=0"`
}

// CreatedResponse carries the id of a created row.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// BookResponse is one book in API responses.
type BookResponse struct {
	BookID          int64  `json:"book_id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublishedYear   int    `json:"published_year"`
	AvailableCopies int    `json:"available_copies"`
	Genre           string `json:"genre,omitempty"`
	ISBN            string `json:"isbn,omitempty"`
	Description     string `json:"description,omitempty"`
}

// MemberResponse is one member in API responses.
type MemberResponse struct {
	MemberID    int64  `json:"member_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	JoinDate    string `json:"join_date"`
	Status      string `json:"status"`
}

// BorrowingResponse is one borrowing record in API responses.
type BorrowingResponse struct {
	BorrowID     int64   `json:"borrow_id"`
	MemberID     int64   `json:"member_id"`
	MemberName   string  `json:"member_name"`
	BookID       int64   `json:"book_id"`
	BookTitle    string  `json:"book_title"`
	BorrowDate   string  `json:"borrow_date"`
	DueDate      *string `json:"due_date,omitempty"`
	ReturnDate   *string `json:"return_date,omitempty"`
	Status       string  `json:"status"`
	DaysBorrowed *int    `json:"days_borrowed,omitempty"`
}

// ListResponse wraps list results together with their count.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// StatsResponse holds the dashboard counters.
type StatsResponse struct {
	TotalBooks       int64 `json:"total_books"`
	TotalMembers     int64 `json:"total_members"`
	ActiveBorrowings int64 `json:"active_borrowings"`
	AvailableCopies  int64 `json:"available_copies"`
}

// DashboardResponse is the body of GET /api/dashboard.
type DashboardResponse struct {
	Stats          StatsResponse       `json:"stats"`
	RecentActivity []BorrowingResponse `json:"recent_activity"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status          string `json:"status"`
	Dialect         string `json:"dialect"`
	Version         string `json:"version"`
	Database        string `json:"database"`
	MaxConnections  int    `json:"max_connections"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

func toBookResponse(book core.Book) BookResponse {
	return BookResponse{
		BookID:          book.BookID,
		Title:           book.Title,
		Author:          book.Author,
		PublishedYear:   book.PublishedYear,
		AvailableCopies: book.AvailableCopies,
		Genre:           book.Genre,
		ISBN:            book.ISBN,
		Description:     book.Description,
	}
}

func toMemberResponse(member core.Member) MemberResponse {
	return MemberResponse{
		MemberID:    member.MemberID,
		Name:        member.Name,
		Email:       member.Email,
		PhoneNumber: member.PhoneNumber,
		Address:     member.Address,
		JoinDate:    member.JoinDate.Format(dateLayout),
		Status:      string(member.Status),
	}
}

func toBorrowingResponse(record core.BorrowingRecord, status core.BorrowingStatus) BorrowingResponse {
	return BorrowingResponse{
		BorrowID:   record.BorrowID,
		MemberID:   record.MemberID,
		MemberName: record.MemberName,
		BookID:     record.BookID,
		BookTitle:  record.BookTitle,
		BorrowDate: record.BorrowDate.Format(dateLayout),
		DueDate:    formatOptionalDate(record.DueDate),
		ReturnDate: formatOptionalDate(record.ReturnDate),
		Status:     string(status),
	}
}

func toBorrowingResponses(entries []listborrowings.Entry) []BorrowingResponse {
	responses := make([]BorrowingResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toBorrowingResponse(entry.BorrowingRecord, entry.Status))
	}

	return responses
}

func toLoanResponses(loans []openloans.Loan) []BorrowingResponse {
	responses := make([]BorrowingResponse, 0, len(loans))
	for _, loan := range loans {
		response := toBorrowingResponse(loan.BorrowingRecord, loan.Status)
		days := loan.DaysBorrowed
		response.DaysBorrowed = &days
		responses = append(responses, response)
	}

	return responses
}

func toStatsResponse(stats dashboardstats.Stats) StatsResponse {
	return StatsResponse(stats)
}

func formatOptionalDate(date *time.Time) *string {
	if date == nil {
		return nil
	}

	formatted := date.Format(dateLayout)

	return &formatted
}
