// Package listborrowings implements the Borrowing Records query.
//
// Records are listed newest first with the member's name, the book's title and the derived
// status. They can be filtered by status and by a part of the member's name. The status is
// never stored: the filter translates it into date predicates (Borrowed means no return date,
// Returned means a return date is set, Overdue means no return date and a due date before today).
//
// With a limit the query serves the "recent activity" panel of the dashboard.
package listborrowings
