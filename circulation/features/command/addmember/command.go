package addmember

import (
	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
)

const (
	commandType = "AddMember"
)

// Command represents the intent to register a new member.
type Command struct {
	Member core.NewMember
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
// Phone number and address are optional and may be empty.
func BuildCommand(name string, email string, phoneNumber string, address string) Command {
	return Command{
		Member: core.NewMember{
			Name:        name,
			Email:       email,
			PhoneNumber: phoneNumber,
			Address:     address,
		}.Normalize(),
	}
}
