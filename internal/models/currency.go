package models

// Currency is a row of the currencies table.
type Currency struct {
	CurrencyCode string `db:"currency_code"` // Primary Key (e.g., "USD")
	Symbol       string `db:"symbol"`
	Name         string `db:"name"`
	Precision    int32  `db:"precision"`
	IsBase       bool   `db:"is_base"`
	AuditFields
}
