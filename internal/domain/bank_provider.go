package domain

import "time"

// UnknownBankName is shown when an item's bank code has no provider record.
const UnknownBankName = "Unknown Bank"

// BankProvider is an external bank reachable through the payment gateway.
type BankProvider struct {
	ID          string
	BankCode    string
	Name        string
	IsActive    bool
	APIEndpoint string
	CreatedAt   time.Time
}
