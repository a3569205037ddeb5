package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

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

//go:embed templates/*.html
var templateFS embed.FS

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is the message shown after a form was submitted.
type Flash struct {
	Kind    string
	Message string
}

// PageData is passed to every page template.
type PageData struct {
	Title     string
	Active    string
	Flash     *Flash
	RequestID string
	Content   any
}

type dashboardContent struct {
	Stats  dashboardstats.Stats
	Recent []listborrowings.Entry
}

type booksContent struct {
	Books  []core.Book
	Search string
}

type bookFormContent struct {
	Form AddBookRequest
}

type membersContent struct {
	Members []core.Member
	Search  string
}

type memberFormContent struct {
	Form AddMemberRequest
}

type borrowContent struct {
	Members []core.Member
	Books   []core.Book
	Form    BorrowRequest
}

type returnContent struct {
	Loans []openloans.Loan
}

type borrowingsContent struct {
	Entries  []listborrowings.Entry
	Statuses []core.StatusFilter
	Status   string
	Member   string
}

// ParseTemplates parses the embedded page templates.
func ParseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"date":         formatDate,
		"optionalDate": formatOptionalDateText,
	}).ParseFS(templateFS, "templates/*.html")
}

// Pages serves the HTML user interface.
type Pages struct {
	handlers Handlers
}

// NewPages creates the HTML pages on top of the handlers.
func NewPages(handlers Handlers) *Pages {
	return &Pages{handlers: handlers}
}

// Register adds the page routes to the router.
func (p *Pages) Register(router gin.IRoutes) {
	router.GET("/", p.dashboard)
	router.GET("/books", p.books)
	router.GET("/books/new", p.bookForm)
	router.POST("/books/new", p.addBook)
	router.GET("/members", p.members)
	router.GET("/members/new", p.memberForm)
	router.POST("/members/new", p.addMember)
	router.GET("/borrow", p.borrowForm)
	router.POST("/borrow", p.borrowBook)
	router.GET("/return", p.returnForm)
	router.POST("/return", p.returnBook)
	router.GET("/borrowings", p.borrowings)
}

func (p *Pages) render(c *gin.Context, status int, name string, title string, flash *Flash, content any) {
	c.HTML(status, name, PageData{
		Title:     title,
		Active:    name,
		Flash:     flash,
		RequestID: RequestIDFrom(c),
		Content:   content,
	})
}

// renderFailure shows the error page for failures that leave nothing to render.
func (p *Pages) renderFailure(c *gin.Context, title string, err error) {
	status, _ := classifyError(err)
	p.render(c, status, "error", title, &Flash{Kind: FlashError, Message: userMessage(status, err)}, nil)
}

func readContext(c *gin.Context) context.Context {
	return librarystore.WithEventualConsistency(c.Request.Context())
}

func (p *Pages) dashboard(c *gin.Context) {
	ctx := readContext(c)

	stats, err := p.handlers.DashboardStats.Handle(ctx, dashboardstats.BuildQuery())
	if err != nil {
		p.renderFailure(c, "Dashboard", err)
		return
	}

	recent, err := p.handlers.ListBorrowings.Handle(ctx, listborrowings.BuildRecentActivityQuery())
	if err != nil {
		p.renderFailure(c, "Dashboard", err)
		return
	}

	p.render(c, http.StatusOK, "dashboard", "Dashboard", nil, dashboardContent{Stats: stats, Recent: recent.Entries})
}

func (p *Pages) books(c *gin.Context) {
	search := c.Query("q")

	result, err := p.handlers.ListBooks.Handle(readContext(c), listbooks.BuildQuery(search, 0))
	if err != nil {
		p.renderFailure(c, "Books", err)
		return
	}

	p.render(c, http.StatusOK, "books", "Books", nil, booksContent{Books: result.Books, Search: search})
}

func (p *Pages) bookForm(c *gin.Context) {
	p.render(c, http.StatusOK, "book_form", "Add Book", nil, bookFormContent{})
}

func (p *Pages) addBook(c *gin.Context) {
	var form AddBookRequest
	if err := c.ShouldBind(&form); err != nil {
		p.render(c, http.StatusBadRequest, "book_form", "Add Book", errorFlash(err), bookFormContent{Form: form})
		return
	}

	command := addbook.BuildCommand(form.Title, form.Author, form.PublishedYear, form.Copies, form.Genre, form.ISBN, form.Description)

	if _, err := p.handlers.AddBook.Handle(c.Request.Context(), command); err != nil {
		status, _ := classifyError(err)
		p.render(c, status, "book_form", "Add Book", failureFlash(status, err), bookFormContent{Form: form})
		return
	}

	flash := &Flash{Kind: FlashSuccess, Message: "Book '" + command.Book.Title + "' added successfully."}
	p.render(c, http.StatusOK, "book_form", "Add Book", flash, bookFormContent{})
}

func (p *Pages) members(c *gin.Context) {
	search := c.Query("q")

	result, err := p.handlers.ListMembers.Handle(readContext(c), listmembers.BuildQuery(search))
	if err != nil {
		p.renderFailure(c, "Members", err)
		return
	}

	p.render(c, http.StatusOK, "members", "Members", nil, membersContent{Members: result.Members, Search: search})
}

func (p *Pages) memberForm(c *gin.Context) {
	p.render(c, http.StatusOK, "member_form", "Add Member", nil, memberFormContent{})
}

func (p *Pages) addMember(c *gin.Context) {
	var form AddMemberRequest
	if err := c.ShouldBind(&form); err != nil {
		p.render(c, http.StatusBadRequest, "member_form", "Add Member", errorFlash(err), memberFormContent{Form: form})
		return
	}

	command := addmember.BuildCommand(form.Name, form.Email, form.PhoneNumber, form.Address)

	if _, err := p.handlers.AddMember.Handle(c.Request.Context(), command); err != nil {
		status, _ := classifyError(err)
		p.render(c, status, "member_form", "Add Member", failureFlash(status, err), memberFormContent{Form: form})
		return
	}

	flash := &Flash{Kind: FlashSuccess, Message: "Member '" + command.Member.Name + "' added successfully."}
	p.render(c, http.StatusOK, "member_form", "Add Member", flash, memberFormContent{})
}

func (p *Pages) borrowForm(c *gin.Context) {
	p.renderBorrowForm(c, http.StatusOK, nil, BorrowRequest{})
}

func (p *Pages) borrowBook(c *gin.Context) {
	var form BorrowRequest
	if err := c.ShouldBind(&form); err != nil {
		p.renderBorrowForm(c, http.StatusBadRequest, &Flash{Kind: FlashError, Message: "Please select a member and a book."}, form)
		return
	}

	result, err := p.handlers.BorrowBook.Handle(c.Request.Context(), borrowbook.BuildCommand(form.MemberID, form.BookID))
	if err != nil {
		status, _ := classifyError(err)
		p.renderBorrowForm(c, status, failureFlash(status, err), form)
		return
	}

	flash := &Flash{Kind: FlashSuccess, Message: "Book borrowed successfully. Borrowing record #" + strconv.FormatInt(result.AffectedID, 10) + "."}
	p.renderBorrowForm(c, http.StatusOK, flash, BorrowRequest{})
}

// renderBorrowForm offers every member and the books that have a copy available.
func (p *Pages) renderBorrowForm(c *gin.Context, status int, flash *Flash, form BorrowRequest) {
	ctx := c.Request.Context()

	members, err := p.handlers.ListMembers.Handle(ctx, listmembers.BuildQuery(""))
	if err != nil {
		p.renderFailure(c, "Borrow Book", err)
		return
	}

	books, err := p.handlers.ListBooks.Handle(ctx, listbooks.BuildAvailableQuery())
	if err != nil {
		p.renderFailure(c, "Borrow Book", err)
		return
	}

	p.render(c, status, "borrow", "Borrow Book", flash, borrowContent{Members: members.Members, Books: books.Books, Form: form})
}

func (p *Pages) returnForm(c *gin.Context) {
	p.renderReturnForm(c, http.StatusOK, nil)
}

func (p *Pages) returnBook(c *gin.Context) {
	var form ReturnRequest
	if err := c.ShouldBind(&form); err != nil {
		p.renderReturnForm(c, http.StatusBadRequest, &Flash{Kind: FlashError, Message: "Please select a borrowing record."})
		return
	}

	if _, err := p.handlers.ReturnBook.Handle(c.Request.Context(), returnbook.BuildCommand(form.BorrowID)); err != nil {
		status, _ := classifyError(err)
		p.renderReturnForm(c, status, failureFlash(status, err))
		return
	}

	p.renderReturnForm(c, http.StatusOK, &Flash{Kind: FlashSuccess, Message: "Book returned successfully."})
}

func (p *Pages) renderReturnForm(c *gin.Context, status int, flash *Flash) {
	loans, err := p.handlers.OpenLoans.Handle(c.Request.Context(), openloans.BuildQuery())
	if err != nil {
		p.renderFailure(c, "Return Book", err)
		return
	}

	p.render(c, status, "return", "Return Book", flash, returnContent{Loans: loans.Loans})
}

func (p *Pages) borrowings(c *gin.Context) {
	status := c.Query("status")
	member := c.Query("member")

	content := borrowingsContent{
		Statuses: []core.StatusFilter{core.FilterAll, core.FilterBorrowed, core.FilterReturned, core.FilterOverdue},
		Status:   status,
		Member:   member,
	}

	query, err := listborrowings.BuildQuery(status, member, 0)
	if err != nil {
		code, _ := classifyError(err)
		p.render(c, code, "borrowings", "Borrowing Records", failureFlash(code, err), content)
		return
	}

	result, err := p.handlers.ListBorrowings.Handle(readContext(c), query)
	if err != nil {
		p.renderFailure(c, "Borrowing Records", err)
		return
	}

	content.Entries = result.Entries
	content.Status = string(query.Status)

	p.render(c, http.StatusOK, "borrowings", "Borrowing Records", nil, content)
}

func errorFlash(err error) *Flash {
	return &Flash{Kind: FlashError, Message: "Please fill in all required fields. (" + err.Error() + ")"}
}

func failureFlash(status int, err error) *Flash {
	return &Flash{Kind: FlashError, Message: userMessage(status, err)}
}

func formatDate(date time.Time) string {
	return date.Format(dateLayout)
}

func formatOptionalDateText(date *time.Time) string {
	if date == nil {
		return "-"
	}

	return date.Format(dateLayout)
}
