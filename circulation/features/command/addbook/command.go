package addbook

import (
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
)

const (
	commandType = "AddBook"
)

// Command represents the intent to add a book to the catalog.
type Command struct {
	Book core.NewBook
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
// Genre, ISBN and description are optional and may be empty.
func BuildCommand(
	title string,
	author string,
	publishedYear int,
	copies int,
	genre string,
	isbn string,
	description string,
) Command {
	return Command{
		Book: core.NewBook{
			Title:         title,
			Author:        author,
			PublishedYear: publishedYear,
			Copies:        copies,
			Genre:         genre,
			ISBN:          isbn,
			Description:   description,
		}.Normalize(),
	}
}
