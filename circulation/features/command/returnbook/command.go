package returnbook

const (
	commandType = "ReturnBook"
)

// Command represents the intent to return the book of a borrowing record.
type Command struct {
	BorrowID int64
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(borrowID int64) Command {
	return Command{
		BorrowID: borrowID,
	}
}
