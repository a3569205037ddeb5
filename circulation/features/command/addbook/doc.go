// Package addbook implements the Add Book use case.
//
// A librarian adds a title to the catalog together with the number of copies on the shelf.
// Title and author are required, at least one copy must be added and the publication year must
// lie between 1000 and next year. A book with the same title and author can only be added once.
package addbook
