package domain

import "time"

// AccountType distinguishes personal and business accounts
type AccountType string

const (
	AccountTypePersonal AccountType = "personal"
	AccountTypeBusiness AccountType = "business"
)

// AccountStatus represents the lifecycle state of an account
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

// Account represents a bank account referenced by transactions and logins.
// Accounts are never deleted while analysis runs; transactions reference
// them by id without owning them.
type Account struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Phone     string        `json:"phone,omitempty"`
	Email     string        `json:"email,omitempty"`
	Type      AccountType   `json:"type"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// AccountIdentity is the lean identity DTO embedded in risk records
type AccountIdentity struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Identity converts an Account to its identity DTO
func (a *Account) Identity() AccountIdentity {
	return AccountIdentity{
		AccountID: a.ID,
		Name:      a.Name,
		Phone:     a.Phone,
		Email:     a.Email,
		Type:      string(a.Type),
	}
}

// PlaceholderIdentity stands in for an account whose identity lookup failed.
// Records are still returned, never dropped.
func PlaceholderIdentity(accountID int64) AccountIdentity {
	return AccountIdentity{
		AccountID: accountID,
		Name:      "unknown",
	}
}

// Login represents an account login event. Immutable, append-only.
type Login struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	LoginAt   time.Time `json:"login_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
