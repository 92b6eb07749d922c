package models

// Account is a row of the accounts table.
type Account struct {
	AccountID          string `db:"account_id"`
	Code               string `db:"code"`
	Name               string `db:"name"`
	AccountType        string `db:"account_type"`
	Description        string `db:"description"`
	IsRetainedEarnings bool   `db:"is_retained_earnings"`
	AuditFields
}
