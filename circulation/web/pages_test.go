package web_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
	. "github.com/AntonStoeckl/librarydesk/testutil/sqlengine/helper" //nolint:revive
)

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

	return recorder
}

func doForm(t *testing.T, router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

func Test_Pages_RenderWithNavigation(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	bookID := GivenBook(t, engine, "1984", "George Orwell", 1949, 3)
	memberID := GivenMember(t, engine, "Jane Doe", "jane@example.org")
	GivenBorrowing(t, engine, memberID, bookID, Day(2024, time.May, 1), nil, nil)

	testCases := []struct {
		path     string
		contains []string
	}{
		{path: "/", contains: []string{"Dashboard", "Total Books", "Recent Activity", "Jane Doe"}},
		{path: "/books", contains: []string{"View Books", "George Orwell"}},
		{path: "/books/new", contains: []string{"Add Book", `name="published_year"`}},
		{path: "/members", contains: []string{"jane@example.org", "Active"}},
		{path: "/members/new", contains: []string{"Add Member", `name="email"`}},
		{path: "/borrow", contains: []string{"Borrow Book", "1984 by George Orwell (3 available)"}},
		{path: "/return", contains: []string{"Return Book", `name="borrow_id"`, "2024-05-01"}},
		{path: "/borrowings?status=borrowed", contains: []string{"Borrowing Records", "Borrowed"}},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			// act
			recorder := doGet(t, router, tc.path)

			// assert
			require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
			assert.Contains(t, recorder.Header().Get("Content-Type"), "text/html")

			for _, expected := range tc.contains {
				assert.Contains(t, recorder.Body.String(), expected)
			}
		})
	}
}

func Test_Pages_AddBook(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// act
	added := doForm(t, router, "/books/new", url.Values{
		"title":          {"Dune"},
		"author":         {"Frank Herbert"},
		"published_year": {"1965"},
		"copies":         {"2"},
	})
	invalid := doForm(t, router, "/books/new", url.Values{
		"title":          {"Emma"},
		"author":         {"Jane Austen"},
		"published_year": {"1815"},
		"copies":         {"0"},
	})

	// assert
	assert.Equal(t, http.StatusOK, added.Code)
	assert.Contains(t, added.Body.String(), "added successfully")

	assert.Equal(t, http.StatusUnprocessableEntity, invalid.Code)
	assert.Contains(t, invalid.Body.String(), "copies must be at least 1")
	assert.Contains(t, invalid.Body.String(), `value="Jane Austen"`, "the form should keep the input")

	assert.Equal(t, int64(1), CountRows(t, engine, sqlengine.TableBooks))
}

func Test_Pages_AddMember_When_EmailExists_ShowsTheConflict(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	GivenMember(t, engine, "Jane Doe", "jane@example.org")

	// act
	recorder := doForm(t, router, "/members/new", url.Values{"name": {"Jane D."}, "email": {"jane@example.org"}})

	// assert
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "a member with this email already exists")
	assert.Equal(t, int64(1), CountRows(t, engine, sqlengine.TableMembers))
}

func Test_Pages_BorrowForm_OffersOnlyAvailableBooks(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	GivenBook(t, engine, "Dune", "Frank Herbert", 1965, 1)
	GivenBook(t, engine, "Emma", "Jane Austen", 1815, 0)
	GivenMember(t, engine, "Jane Doe", "jane@example.org")

	// act
	recorder := doGet(t, router, "/borrow")

	// assert
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Dune by Frank Herbert")
	assert.NotContains(t, recorder.Body.String(), "Emma by Jane Austen")
}

func Test_Pages_BorrowAndReturn(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	bookID := GivenBook(t, engine, "Dune", "Frank Herbert", 1965, 1)
	memberID := GivenMember(t, engine, "Jane Doe", "jane@example.org")

	// act
	borrowed := doForm(t, router, "/borrow", url.Values{
		"member_id": {strconv.FormatInt(memberID, 10)},
		"book_id":   {strconv.FormatInt(bookID, 10)},
	})
	noCopyLeft := doForm(t, router, "/borrow", url.Values{
		"member_id": {strconv.FormatInt(memberID, 10)},
		"book_id":   {strconv.FormatInt(bookID, 10)},
	})

	// assert
	assert.Equal(t, http.StatusOK, borrowed.Code)
	assert.Contains(t, borrowed.Body.String(), "Book borrowed successfully")
	assert.Equal(t, http.StatusConflict, noCopyLeft.Code)
	assert.Contains(t, noCopyLeft.Body.String(), "no copies of the book available")
	assert.Equal(t, 0, AvailableCopies(t, engine, bookID))

	// act
	returned := doForm(t, router, "/return", url.Values{"borrow_id": {"1"}})

	// assert
	assert.Equal(t, http.StatusOK, returned.Code)
	assert.Contains(t, returned.Body.String(), "Book returned successfully.")
	assert.Contains(t, returned.Body.String(), "No books are currently borrowed.")
	assert.Equal(t, 1, AvailableCopies(t, engine, bookID))
}

func Test_Pages_BorrowingRecords_When_StatusIsUnknown_ShowsTheError(t *testing.T) {
	// setup
	router, _ := givenServer(t)

	// act
	recorder := doGet(t, router, "/borrowings?status=lost")

	// assert
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "unknown status filter")
}
