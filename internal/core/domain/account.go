package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// EntrySide indicates whether a journal line is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalSide returns the side on which balances of this type increase.
func (t AccountType) NormalSide() EntrySide {
	if t == Asset || t == Expense {
		return Debit
	}
	return Credit
}

// IsTemporary reports whether balances of this type are zeroed at period end.
func (t AccountType) IsTemporary() bool {
	return t == Revenue || t == Expense
}

// Account is an entry in the chart of accounts. Accounts are provisioned from
// configuration and never modified by the ledger.
type Account struct {
	AccountID          string      `json:"accountID"` // Stable identifier derived from Code
	Code               string      `json:"code"`      // Unique, immutable
	Name               string      `json:"name"`
	AccountType        AccountType `json:"accountType"`
	Description        string      `json:"description"`
	IsRetainedEarnings bool        `json:"isRetainedEarnings"` // Target of the closing entry
	AuditFields
}

// NormalSide returns the account's normal balance side.
func (a Account) NormalSide() EntrySide {
	return a.AccountType.NormalSide()
}
