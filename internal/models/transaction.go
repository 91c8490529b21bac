package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// MaxTransactionAmount is the largest amount a single transaction may carry.
var MaxTransactionAmount = decimal.RequireFromString("999999999.99")

// Transaction represents a single income or expense entry. Its type must
// match the type of the category it references.
type Transaction struct {
	Base
	Type        TransactionType `gorm:"not null;index" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Description string          `gorm:"size:200;not null" json:"description"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
