package core

import "time"

// DefaultCurrencySymbol is applied at registration; users can change
// it later via settings.
const DefaultCurrencySymbol = "Rs."

// User owns all categories, buckets and transactions. Ownership is a
// foreign key enforced on every query; the authenticated user id is
// passed explicitly into every core operation.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	CurrencySymbol string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
