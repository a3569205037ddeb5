// Package web is the librarian's user interface: HTML pages for every circulation operation
// and a JSON API under /api with the same operations.
//
// The package holds no business logic. Every request is turned into a Command or Query value
// and passed to the (observable) handlers of the feature slices. Errors map to HTTP status codes:
// not found 404, conflicts and duplicates 409, invalid input 422, no database connection 503,
// anything else 500.
package web
