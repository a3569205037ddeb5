// Package core contains the domain types of the library desk:
// books, members and the borrowing records that connect them.
//
// The types are plain values read from and written to the library database by the
// feature slices. Business rules that need no database live here: input validation for
// new books and members, and the borrowing status, which is derived from the record's
// dates and never stored.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
