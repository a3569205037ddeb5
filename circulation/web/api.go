package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/addmember"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/borrowbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/command/returnbook"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/dashboardstats"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listbooks"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listborrowings"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/listmembers"
	"github.com/AntonStoeckl/librarydesk/circulation/features/query/openloans"
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore"
)

// API serves the JSON endpoints.
type API struct {
	handlers Handlers
}

// NewAPI creates the JSON API on top of the handlers.
func NewAPI(handlers Handlers) *API {
	return &API{handlers: handlers}
}

// Register adds the API routes to the group.
func (a *API) Register(group *gin.RouterGroup) {
	group.GET("/health", a.health)
	group.GET("/dashboard", a.dashboard)

	books := group.Group("/books")
	books.GET("", a.listBooks)
	books.POST("", a.addBook)

	members := group.Group("/members")
	members.GET("", a.listMembers)
	members.POST("", a.addMember)

	borrowings := group.Group("/borrowings")
	borrowings.GET("", a.listBorrowings)
	borrowings.GET("/open", a.listOpenLoans)
	borrowings.POST("", a.borrowBook)
	borrowings.POST("/:id/return", a.returnBook)
}

func (a *API) health(c *gin.Context) {
	info, err := a.handlers.Health.Ping(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, HealthResponse{
		Status:          "ok",
		Dialect:         info.Dialect,
		Version:         info.Version,
		Database:        info.Database,
		MaxConnections:  info.Pool.MaxConns,
		OpenConnections: info.Pool.TotalConns,
		InUse:           info.Pool.AcquiredConns,
		Idle:            info.Pool.IdleConns,
	}, "")
}

func (a *API) dashboard(c *gin.Context) {
	ctx := librarystore.WithEventualConsistency(c.Request.Context())

	stats, err := a.handlers.DashboardStats.Handle(ctx, dashboardstats.BuildQuery())
	if err != nil {
		respondError(c, err)
		return
	}

	recent, err := a.handlers.ListBorrowings.Handle(ctx, listborrowings.BuildRecentActivityQuery())
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, DashboardResponse{
		Stats:          toStatsResponse(stats),
		RecentActivity: toBorrowingResponses(recent.Entries),
	}, "")
}

func (a *API) listBooks(c *gin.Context) {
	var params BookListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}

	ctx := librarystore.WithEventualConsistency(c.Request.Context())

	result, err := a.handlers.ListBooks.Handle(ctx, listbooks.BuildQuery(params.Q, params.MinCopies))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]BookResponse, 0, len(result.Books))
	for _, book := range result.Books {
		items = append(items, toBookResponse(book))
	}

	respondSuccess(c, http.StatusOK, ListResponse[BookResponse]{Items: items, Count: result.Count}, "")
}

func (a *API) addBook(c *gin.Context) {
	var request AddBookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBadRequest(c, err)
		return
	}

	command := addbook.BuildCommand(
		request.Title,
		request.Author,
		request.PublishedYear,
		request.Copies,
		request.Genre,
		request.ISBN,
		request.Description,
	)

	result, err := a.handlers.AddBook.Handle(c.Request.Context(), command)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, CreatedResponse{ID: result.AffectedID}, "book added")
}

func (a *API) listMembers(c *gin.Context) {
	var params MemberListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}

	ctx := librarystore.WithEventualConsistency(c.Request.Context())

	result, err := a.handlers.ListMembers.Handle(ctx, listmembers.BuildQuery(params.Q))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]MemberResponse, 0, len(result.Members))
	for _, member := range result.Members {
		items = append(items, toMemberResponse(member))
	}

	respondSuccess(c, http.StatusOK, ListResponse[MemberResponse]{Items: items, Count: result.Count}, "")
}

func (a *API) addMember(c *gin.Context) {
	var request AddMemberRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBadRequest(c, err)
		return
	}

	command := addmember.BuildCommand(request.Name, request.Email, request.PhoneNumber, request.Address)

	result, err := a.handlers.AddMember.Handle(c.Request.Context(), command)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, CreatedResponse{ID: result.AffectedID}, "member added")
}

func (a *API) listBorrowings(c *gin.Context) {
	var params BorrowingListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}

	query, err := listborrowings.BuildQuery(params.Status, params.Member, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := librarystore.WithEventualConsistency(c.Request.Context())

	result, err := a.handlers.ListBorrowings.Handle(ctx, query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, ListResponse[BorrowingResponse]{
		Items: toBorrowingResponses(result.Entries),
		Count: result.Count,
	}, "")
}

func (a *API) listOpenLoans(c *gin.Context) {
	ctx := librarystore.WithEventualConsistency(c.Request.Context())

	result, err := a.handlers.OpenLoans.Handle(ctx, openloans.BuildQuery())
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, ListResponse[BorrowingResponse]{
		Items: toLoanResponses(result.Loans),
		Count: result.Count,
	}, "")
}

func (a *API) borrowBook(c *gin.Context) {
	var request BorrowRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := a.handlers.BorrowBook.Handle(
		c.Request.Context(),
		borrowbook.BuildCommand(request.MemberID, request.BookID),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, CreatedResponse{ID: result.AffectedID}, "book borrowed")
}

func (a *API) returnBook(c *gin.Context) {
	borrowID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || borrowID <= 0 {
		respondError(c, core.ErrBorrowingNotFound)
		return
	}

	result, err := a.handlers.ReturnBook.Handle(c.Request.Context(), returnbook.BuildCommand(borrowID))
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, CreatedResponse{ID: result.AffectedID}, "book returned")
}
