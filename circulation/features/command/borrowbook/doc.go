// Package borrowbook implements the Borrow Book use case.
//
// A member borrows one copy of a book. The handler checks inside one transaction that the member
// and the book exist, that a copy is left and that the member has no open loan of the same book.
// It then inserts the borrowing record and takes one copy off the shelf. Both writes commit
// together or not at all.
//
// On PostgreSQL and MySQL the book row is locked with SELECT ... FOR UPDATE, so concurrent borrows
// of the last copy are serialized. SQLite transactions lock the whole database on begin.
package borrowbook
