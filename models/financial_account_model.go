package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AccountTypeCash = "CASH"
	AccountTypeBank = "BANK"
)

type FinancialAccount struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Type      string          `gorm:"size:16;not null" json:"type"`
	Balance   decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0" json:"balance"`
	IsDefault bool            `gorm:"default:false" json:"isDefault"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *FinancialAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
