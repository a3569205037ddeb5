// Package returnbook implements the Return Book use case.
//
// Returning sets the return date of an open borrowing record to today and puts the copy back on
// the shelf, both inside one transaction. A record can be returned only once.
package returnbook
