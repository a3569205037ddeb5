package web_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/features/query/dashboardstats"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell"
	"github.com/AntonStoeckl/librarydesk/circulation/web"
	"github.com/AntonStoeckl/librarydesk/librarystore"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
	. "github.com/AntonStoeckl/librarydesk/testutil/sqlengine/helper" //nolint:revive
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Success   bool                `json:"success"`
	Data      jsoniter.RawMessage `json:"data"`
	Message   string              `json:"message"`
	Error     string              `json:"error"`
	Code      int                 `json:"code"`
	RequestID string              `json:"request_id"`
}

type listOf[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func givenServer(t *testing.T) (*gin.Engine, *sqlengine.Engine) {
	t.Helper()

	engine := GivenMigratedEngine(t, sqlengine.WithClock(FixedClock(2024, time.June, 1)))

	handlers, err := web.NewHandlers(engine, 14, web.Observability{})
	require.NoError(t, err, "error in arranging handlers")

	return givenRouter(t, handlers), engine
}

func givenRouter(t *testing.T, handlers web.Handlers) *gin.Engine {
	t.Helper()

	logger, _ := NewSpyLogger()

	router, err := web.NewRouter(handlers, logger)
	require.NoError(t, err, "error in arranging router")

	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	request := httptest.NewRequest(method, path, bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()

	var response envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response), recorder.Body.String())

	return response
}

func decodeData[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var data T
	require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &data), recorder.Body.String())

	return data
}

func Test_API_AddBook_Success(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// act
	recorder := doJSON(t, router, http.MethodPost, "/api/books", web.AddBookRequest{
		Title:         " 1984 ",
		Author:        "George Orwell",
		PublishedYear: 1949,
		Copies:        4,
		ISBN:          "978-0451524935",
	})

	// assert
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	created := decodeData[web.CreatedResponse](t, recorder)
	assert.Positive(t, created.ID)
	assert.Equal(t, 4, AvailableCopies(t, engine, created.ID))

	books := decodeData[listOf[web.BookResponse]](t, doJSON(t, router, http.MethodGet, "/api/books?q=orwell", nil))
	require.Equal(t, 1, books.Count)
	assert.Equal(t, "1984", books.Items[0].Title, "title should be trimmed")
	assert.Equal(t, "978-0451524935", books.Items[0].ISBN)
}

func Test_API_AddBook_Rejections(t *testing.T) {
	testCases := []struct {
		name           string
		body           any
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "zero copies",
			body:           web.AddBookRequest{Title: "Dune", Author: "Frank Herbert", PublishedYear: 1965, Copies: 0},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   web.CodeInvalidInput,
		},
		{
			name:           "year in the future",
			body:           web.AddBookRequest{Title: "Dune", Author: "Frank Herbert", PublishedYear: 2030, Copies: 1},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   web.CodeInvalidInput,
		},
		{
			name:           "missing title",
			body:           map[string]any{"author": "Frank Herbert", "published_year": 1965, "copies": 1},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   web.CodeBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			router, engine := givenServer(t)

			// act
			recorder := doJSON(t, router, http.MethodPost, "/api/books", tc.body)

			// assert
			assert.Equal(t, tc.expectedStatus, recorder.Code, recorder.Body.String())
			response := decode(t, recorder)
			assert.Equal(t, tc.expectedCode, response.Error)
			assert.Equal(t, tc.expectedStatus, response.Code)
			assert.Zero(t, CountRows(t, engine, sqlengine.TableBooks), "nothing should be stored")
		})
	}
}

func Test_API_AddBook_When_TitleAndAuthorExist_RespondsConflict(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	GivenBook(t, engine, "Dune", "Frank Herbert", 1965, 2)

	// act
	recorder := doJSON(t, router, http.MethodPost, "/api/books", web.AddBookRequest{
		Title: "Dune", Author: "Frank Herbert", PublishedYear: 1965, Copies: 1,
	})

	// assert
	assert.Equal(t, http.StatusConflict, recorder.Code)
	response := decode(t, recorder)
	assert.Equal(t, web.CodeConflict, response.Error)
	assert.Equal(t, "a book with this title and author already exists", response.Message)
}

func Test_API_AddMember(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	GivenMember(t, engine, "Jane Doe", "jane@example.org")

	testCases := []struct {
		name           string
		body           web.AddMemberRequest
		expectedStatus int
	}{
		{name: "valid", body: web.AddMemberRequest{Name: "John Roe", Email: "john@example.org"}, expectedStatus: http.StatusCreated},
		{name: "invalid email", body: web.AddMemberRequest{Name: "John Roe", Email: "john.example.org"}, expectedStatus: http.StatusUnprocessableEntity},
		{name: "duplicate email", body: web.AddMemberRequest{Name: "Jane D.", Email: "jane@example.org"}, expectedStatus: http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			recorder := doJSON(t, router, http.MethodPost, "/api/members", tc.body)

			// assert
			assert.Equal(t, tc.expectedStatus, recorder.Code, recorder.Body.String())
		})
	}

	members := decodeData[listOf[web.MemberResponse]](t, doJSON(t, router, http.MethodGet, "/api/members", nil))
	require.Equal(t, 2, members.Count)
	assert.Equal(t, "Jane Doe", members.Items[0].Name)
	assert.Equal(t, "John Roe", members.Items[1].Name)
	assert.Equal(t, "2024-06-01", members.Items[1].JoinDate)
	assert.Equal(t, "Active", members.Items[1].Status)
}

func Test_API_BorrowAndReturn(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	bookID := GivenBook(t, engine, "1984", "George Orwell", 1949, 4)
	memberID := GivenMember(t, engine, "Jane Doe", "jane@example.org")

	// act
	borrowed := doJSON(t, router, http.MethodPost, "/api/borrowings", web.BorrowRequest{MemberID: memberID, BookID: bookID})

	// assert
	require.Equal(t, http.StatusCreated, borrowed.Code, borrowed.Body.String())
	borrowID := decodeData[web.CreatedResponse](t, borrowed).ID
	assert.Equal(t, 3, AvailableCopies(t, engine, bookID))

	loans := decodeData[listOf[web.BorrowingResponse]](t, doJSON(t, router, http.MethodGet, "/api/borrowings/open", nil))
	require.Equal(t, 1, loans.Count)
	assert.Equal(t, borrowID, loans.Items[0].BorrowID)
	assert.Equal(t, "Jane Doe", loans.Items[0].MemberName)
	assert.Equal(t, "1984", loans.Items[0].BookTitle)
	assert.Equal(t, "2024-06-01", loans.Items[0].BorrowDate)
	require.NotNil(t, loans.Items[0].DueDate)
	assert.Equal(t, "2024-06-15", *loans.Items[0].DueDate)
	require.NotNil(t, loans.Items[0].DaysBorrowed)
	assert.Equal(t, 0, *loans.Items[0].DaysBorrowed)

	// act
	again := doJSON(t, router, http.MethodPost, "/api/borrowings", web.BorrowRequest{MemberID: memberID, BookID: bookID})
	returned := doJSON(t, router, http.MethodPost, "/api/borrowings/"+itoa(borrowID)+"/return", nil)
	returnedTwice := doJSON(t, router, http.MethodPost, "/api/borrowings/"+itoa(borrowID)+"/return", nil)

	// assert
	assert.Equal(t, http.StatusConflict, again.Code, "an open loan of the same book should be rejected")
	assert.Equal(t, http.StatusOK, returned.Code, returned.Body.String())
	assert.Equal(t, http.StatusConflict, returnedTwice.Code)
	assert.Equal(t, "book was already returned", decode(t, returnedTwice).Message)
	assert.Equal(t, 4, AvailableCopies(t, engine, bookID))

	records := decodeData[listOf[web.BorrowingResponse]](t, doJSON(t, router, http.MethodGet, "/api/borrowings?status=returned", nil))
	require.Equal(t, 1, records.Count)
	assert.Equal(t, "Returned", records.Items[0].Status)
	require.NotNil(t, records.Items[0].ReturnDate)
	assert.Equal(t, "2024-06-01", *records.Items[0].ReturnDate)
}

func Test_API_Borrow_Rejections(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	bookID := GivenBook(t, engine, "Dune", "Frank Herbert", 1965, 0)
	memberID := GivenMember(t, engine, "Jane Doe", "jane@example.org")

	testCases := []struct {
		name           string
		path           string
		body           any
		expectedStatus int
	}{
		{
			name:           "unknown member",
			path:           "/api/borrowings",
			body:           web.BorrowRequest{MemberID: 999, BookID: bookID},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "no copies available",
			path:           "/api/borrowings",
			body:           web.BorrowRequest{MemberID: memberID, BookID: bookID},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing ids",
			path:           "/api/borrowings",
			body:           map[string]any{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown borrowing record",
			path:           "/api/borrowings/4711/return",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed borrowing id",
			path:           "/api/borrowings/abc/return",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			recorder := doJSON(t, router, http.MethodPost, tc.path, tc.body)

			// assert
			assert.Equal(t, tc.expectedStatus, recorder.Code, recorder.Body.String())
			assert.False(t, decode(t, recorder).Success)
		})
	}

	assert.Zero(t, CountRows(t, engine, sqlengine.TableBorrowing))
	assert.Equal(t, 0, AvailableCopies(t, engine, bookID))
}

func Test_API_ListBorrowings_When_StatusIsUnknown_RespondsUnprocessableEntity(t *testing.T) {
	// setup
	router, _ := givenServer(t)

	// act
	recorder := doJSON(t, router, http.MethodGet, "/api/borrowings?status=lost", nil)

	// assert
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, decode(t, recorder).Message, `unknown status filter "lost"`)
}

func Test_API_Dashboard(t *testing.T) {
	// setup
	router, engine := givenServer(t)

	// arrange
	bookID := GivenBook(t, engine, "1984", "George Orwell", 1949, 3)
	GivenBook(t, engine, "Dune", "Frank Herbert", 1965, 2)
	memberID := GivenMember(t, engine, "Jane Doe", "jane@example.org")
	GivenBorrowing(t, engine, memberID, bookID, Day(2024, time.May, 1), nil, nil)

	// act
	recorder := doJSON(t, router, http.MethodGet, "/api/dashboard", nil)

	// assert
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	dashboard := decodeData[web.DashboardResponse](t, recorder)
	assert.Equal(t, web.StatsResponse{TotalBooks: 2, TotalMembers: 1, ActiveBorrowings: 1, AvailableCopies: 5}, dashboard.Stats)
	require.Len(t, dashboard.RecentActivity, 1)
	assert.Equal(t, "Borrowed", dashboard.RecentActivity[0].Status)
}

func Test_API_Dashboard_When_DatabaseIsEmpty_RespondsWithZeros(t *testing.T) {
	// setup
	router, _ := givenServer(t)

	// act
	recorder := doJSON(t, router, http.MethodGet, "/api/dashboard", nil)

	// assert
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"recent_activity":[]`)
	assert.Equal(t, web.StatsResponse{}, decodeData[web.DashboardResponse](t, recorder).Stats)
}

func Test_API_Health(t *testing.T) {
	// setup
	router, _ := givenServer(t)

	// act
	recorder := doJSON(t, router, http.MethodGet, "/api/health", nil)

	// assert
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	health := decodeData[web.HealthResponse](t, recorder)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, sqlengine.DialectSQLite, health.Dialect)
	assert.NotEmpty(t, health.Version)
}

type failingStatsHandler struct {
	err error
}

func (h failingStatsHandler) Handle(context.Context, dashboardstats.Query) (dashboardstats.Stats, error) {
	return dashboardstats.Stats{}, h.err
}

func Test_API_When_HandlerFailsTechnically_HidesTheCause(t *testing.T) {
	testCases := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		unexpectedInMsg string
	}{
		{
			name:            "connection failure",
			err:             errors.Join(librarystore.ErrConnectionFailure, errors.New("dial tcp 10.0.0.1:5432")),
			expectedStatus:  http.StatusServiceUnavailable,
			expectedCode:    web.CodeUnavailable,
			unexpectedInMsg: "10.0.0.1",
		},
		{
			name:            "partial write",
			err:             errors.Join(librarystore.ErrPartialWrite, errors.New("rollback: broken pipe")),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    web.CodeInternal,
			unexpectedInMsg: "broken pipe",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			router := givenRouter(t, web.Handlers{DashboardStats: failingStatsHandler{err: tc.err}})

			// act
			recorder := doJSON(t, router, http.MethodGet, "/api/dashboard", nil)

			// assert
			assert.Equal(t, tc.expectedStatus, recorder.Code)
			response := decode(t, recorder)
			assert.Equal(t, tc.expectedCode, response.Error)
			assert.NotContains(t, response.Message, tc.unexpectedInMsg)
			assert.Equal(t, recorder.Header().Get(web.HeaderRequestID), response.RequestID)
		})
	}
}

func Test_RequestID(t *testing.T) {
	// setup
	router, _ := givenServer(t)
	incoming := uuid.NewString()

	testCases := []struct {
		name     string
		header   string
		expected func(t *testing.T, got string)
	}{
		{
			name:   "valid incoming id is kept",
			header: incoming,
			expected: func(t *testing.T, got string) {
				assert.Equal(t, incoming, got)
			},
		},
		{
			name:   "missing id is generated",
			header: "",
			expected: func(t *testing.T, got string) {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			},
		},
		{
			name:   "invalid incoming id is replaced",
			header: "<script>",
			expected: func(t *testing.T, got string) {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			request := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tc.header != "" {
				request.Header.Set(web.HeaderRequestID, tc.header)
			}

			recorder := httptest.NewRecorder()

			// act
			router.ServeHTTP(recorder, request)

			// assert
			tc.expected(t, recorder.Header().Get(web.HeaderRequestID))
		})
	}
}

func Test_NewHandlers_WithMetrics_RecordsCommandAndQueryCalls(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t, sqlengine.WithClock(FixedClock(2024, time.June, 1)))
	metrics := NewMetricsCollectorSpy()
	tracing := NewTracingCollectorSpy()

	handlers, err := web.NewHandlers(engine, 0, web.Observability{Metrics: metrics, Tracing: tracing})
	require.NoError(t, err)

	router := givenRouter(t, handlers)

	// act
	doJSON(t, router, http.MethodPost, "/api/members", web.AddMemberRequest{Name: "Jane Doe", Email: "jane@example.org"})
	doJSON(t, router, http.MethodGet, "/api/members", nil)

	// assert
	assert.True(t, metrics.HasCounterRecordWithLabel(shell.CommandHandlerCallsMetric, "command_type", "AddMember"))
	assert.True(t, metrics.HasCounterRecordWithLabel(shell.QueryHandlerCallsMetric, "query_type", "ListMembers"))
	assert.NotNil(t, tracing.FindSpan(shell.SpanNameCommandHandle))
}

func Test_RequestLogger_LogsClientErrorsAtWarnLevel(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t)
	handlers, err := web.NewHandlers(engine, 0, web.Observability{})
	require.NoError(t, err)

	logger, logSpy := NewSpyLogger()
	router, err := web.NewRouter(handlers, logger)
	require.NoError(t, err)

	// act
	doJSON(t, router, http.MethodGet, "/api/borrowings?status=lost", nil)

	// assert
	record := logSpy.FindLog(slog.LevelWarn, "http request")
	require.NotNil(t, record)
	assert.Equal(t, int64(http.StatusUnprocessableEntity), record.Attrs["status"].Int64())
	assert.Equal(t, "/api/borrowings", record.Attrs["path"].String())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func Test_ContextualLogging_CarriesTheRequestID(t *testing.T) {
	// setup
	engine := GivenMigratedEngine(t)
	contextualLogger := NewContextualLoggerSpy()

	handlers, err := web.NewHandlers(engine, 0, web.Observability{ContextualLogger: contextualLogger, Tracing: NewTracingCollectorSpy()})
	require.NoError(t, err)

	router := givenRouter(t, handlers)

	// act
	added := doJSON(t, router, http.MethodPost, "/api/members", web.AddMemberRequest{Name: "Jane Doe", Email: "jane@example.org"})
	rejected := doJSON(t, router, http.MethodPost, "/api/members", web.AddMemberRequest{Name: "Jane Doe", Email: "jane@example.org"})

	// assert
	completed := contextualLogger.FindLog("info", shell.LogMsgCommandCompleted)
	require.NotNil(t, completed)
	assert.Equal(t, added.Header().Get(web.HeaderRequestID), web.RequestIDFromContext(completed.Context))

	warned := contextualLogger.FindLog("warn", shell.LogMsgCommandRejected)
	require.NotNil(t, warned)
	assert.Equal(t, rejected.Header().Get(web.HeaderRequestID), web.RequestIDFromContext(warned.Context))
	assert.Contains(t, warned.Args, shell.RejectionConflict)
}
