// Package listbooks implements the View Books query.
//
// Books are matched by a search term against title or author and by a minimum number of
// available copies. Both filters are optional and combine with AND. The borrow form uses the
// OnlyAvailable variant to offer only books with a copy on the shelf.
package listbooks
