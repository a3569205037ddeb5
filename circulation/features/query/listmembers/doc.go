// Package listmembers implements the View Members query: members matched by name or email, ordered by name.
package listmembers
