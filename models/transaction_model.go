package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionTypeIncome  = "INCOME"
	TransactionTypeExpense = "EXPENSE"
)

// Transaction is a ledger entry against a FinancialAccount.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"accountId"`
	Type            string          `gorm:"size:16;not null" json:"type"`
	Amount          decimal.Decimal `gorm:"type:numeric(16,2);not null" json:"amount"`
	Category        string          `gorm:"size:64" json:"category"`
	Description     string          `gorm:"type:text" json:"description"`
	Reference       string          `gorm:"size:64;index" json:"reference"`
	CreatedBy       string          `gorm:"size:64" json:"createdBy"`
	TransactionDate time.Time       `json:"transactionDate"`

	Account FinancialAccount `gorm:"foreignKey:AccountID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
