package domain

import (
	"net/mail"
	"strings"
	"time"
)

type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

func NewCustomer(id, name, email string, at time.Time) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return &Customer{ID: id, Name: name, Email: email, CreatedAt: at}, nil
}

// NormalizeEmail trims the address and rejects anything that is not a bare
// RFC 5322 address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", NewValidationError("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return "", NewValidationError("email", "email must be a valid address")
	}
	return email, nil
}
