package core

import (
	"errors"
	"strings"
	"time"
)

// MemberStatus is the membership state of a member.
type MemberStatus string

// Member states. New members are Active.
const (
	MemberActive    MemberStatus = "Active"
	MemberInactive  MemberStatus = "Inactive"
	MemberSuspended MemberStatus = "Suspended"
)

// Member is a registered library user.
type Member struct {
	MemberID    MemberID
	Name        string
	Email       string
	PhoneNumber string
	Address     string
	JoinDate    Date
	Status      MemberStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMember is the input for registering a member.
type NewMember struct {
	Name        string
	Email       string
	PhoneNumber string
	Address     string
}

// Normalize trims surrounding whitespace from all fields.
func (n NewMember) Normalize() NewMember {
	n.Name = strings.TrimSpace(n.Name)
	n.Email = strings.TrimSpace(n.Email)
	n.PhoneNumber = strings.TrimSpace(n.PhoneNumber)
	n.Address = strings.TrimSpace(n.Address)

	return n
}

// Validate checks that name and email are present and that the email looks plausible.
func (n NewMember) Validate() error {
	var errs []error

	if n.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	if n.Email == "" {
		errs = append(errs, errors.New("email is required"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInput}, errs...)...)
	}

	if !IsPlausibleEmail(n.Email) {
		return ErrInvalidEmail
	}

	return nil
}

// IsPlausibleEmail reports whether the address contains both an "@" and a ".".
// Deliverability is not checked.
func IsPlausibleEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}
