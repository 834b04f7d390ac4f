package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SppStatusUnpaid              = "UNPAID"
	SppStatusPendingVerification = "PENDING_VERIFICATION"
	SppStatusPaid                = "PAID"
)

// SppRecord is a monthly tuition bill for one student.
type SppRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID     string          `gorm:"size:64;not null;index:idx_spp_student_period" json:"studentId"`
	Period        string          `gorm:"size:7;not null;index:idx_spp_student_period" json:"period"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaidAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"paidAmount"`
	Status        string          `gorm:"size:32;not null" json:"status"`
	ReceiptNumber *string         `gorm:"size:100" json:"receiptNumber"`
	PaidAt        *time.Time      `json:"paidAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *SppRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
