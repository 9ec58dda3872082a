package domain

import "time"

// Account is a registered user. Email is stored trimmed and lower-cased and
// is unique across accounts.
type Account struct {
	ID           string
	Email        string
	PasswordHash string // argon2id PHC string
	Name         string // optional display name
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// DisplayName is the name if set, otherwise the email.
func (a Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}
