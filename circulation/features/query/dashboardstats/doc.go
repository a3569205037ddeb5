// Package dashboardstats implements the figures on the dashboard: the number of books, members
// and open loans, and the number of copies on the shelves. All four are read in one statement.
package dashboardstats
