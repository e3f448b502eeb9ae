package domain

// AccountKind classifies an account.
type AccountKind string

const (
	AccountChecking AccountKind = "checking"
	AccountSavings  AccountKind = "savings"
	AccountCredit   AccountKind = "credit"
	AccountCash     AccountKind = "cash"
)

// IsValid checks if the kind is a known value.
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountChecking, AccountSavings, AccountCredit, AccountCash:
		return true
	}
	return false
}

// Account is a tracked balance holder.
// Corresponds to accounts table in PostgreSQL.
type Account struct {
	AccountID string      `json:"accountId"`
	Name      string      `json:"name"`
	Kind      AccountKind `json:"kind"`
	Currency  string      `json:"currency"` // ISO 4217 code
	Balance   float64     `json:"balance"`  // current balance in account currency
	CreatedAt int64       `json:"createdAt"` // Unix timestamp in milliseconds
}
