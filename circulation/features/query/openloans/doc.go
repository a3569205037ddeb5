// Package openloans implements the query behind the return form: every book that is still out,
// oldest loan first, with the number of days it has been borrowed.
package openloans
