package domain

import (
	"strings"
	"time"
)

// Party is a person identified by phone number who owns accounts.
type Party struct {
	ID          string
	PhoneNumber string
	FirstName   string
	LastName    string
	CreatedAt   time.Time
}

// FullName returns "first last" without dangling spaces.
func (p *Party) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
