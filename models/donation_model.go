package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DonationStatusPendingVerification = "PENDING_VERIFICATION"
	DonationStatusConfirmed           = "CONFIRMED"
	DonationStatusCancelled           = "CANCELLED"
)

type Donation struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID  *string         `gorm:"size:64;index" json:"campaignId"`
	DonorName   string          `gorm:"size:255;not null" json:"donorName"`
	DonorEmail  string          `gorm:"size:255" json:"donorEmail"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Reference   string          `gorm:"size:64;not null;index" json:"reference"`
	Status      string          `gorm:"size:32;not null" json:"status"`
	ConfirmedAt *time.Time      `json:"confirmedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
