package shell

// HandlerResult represents the outcome of a successful command handler execution.
type HandlerResult struct {
	// AffectedID is the id of the row the command created or changed:
	// the new book, the new member, or the borrowing record.
	AffectedID int64

	// Writes is the number of statements that changed rows inside the command's transaction.
	Writes int
}

// NewSuccessResult creates a HandlerResult for a completed command.
func NewSuccessResult(affectedID int64, writes int) HandlerResult {
	return HandlerResult{
		AffectedID: affectedID,
		Writes:     writes,
	}
}
