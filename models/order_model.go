package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OrderStatusPendingPayment      = "PENDING_PAYMENT"
	OrderStatusPendingVerification = "PENDING_VERIFICATION"
	OrderStatusCompleted           = "COMPLETED"
	OrderStatusCancelled           = "CANCELLED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
)

const (
	PaymentMethodMidtrans       = "MIDTRANS"
	PaymentMethodManualTransfer = "MANUAL_TRANSFER"
	PaymentMethodManualBCA      = "MANUAL_BCA"
	PaymentMethodManualBSI      = "MANUAL_BSI"
	PaymentMethodManualMandiri  = "MANUAL_MANDIRI"
)

const (
	ItemTypeSPP      = "SPP"
	ItemTypeDonation = "DONATION"
)

type Order struct {
	ID                 string          `gorm:"size:64;primaryKey" json:"id"`
	CustomerName       string          `gorm:"size:255;not null" json:"customerName"`
	CustomerEmail      string          `gorm:"size:255" json:"customerEmail"`
	CustomerPhone      string          `gorm:"size:32" json:"customerPhone"`
	Total              decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	PaymentMethod      string          `gorm:"size:32;not null" json:"paymentMethod"`
	Status             string          `gorm:"size:32;not null;index" json:"status"`
	PaymentStatus      string          `gorm:"size:16;not null" json:"paymentStatus"`
	Items              datatypes.JSON  `json:"items"`
	BankAccount        *string         `gorm:"size:100" json:"bankAccount"`
	ProofFilePath      *string         `gorm:"size:500" json:"proofFilePath"`
	GatewayToken       *string         `gorm:"size:255" json:"-"`
	GatewayRedirectURL *string         `gorm:"size:500" json:"gatewayRedirectUrl,omitempty"`
	VerifiedBy         *string         `gorm:"size:64" json:"verifiedBy"`
	VerifiedAt         *time.Time      `json:"verifiedAt"`
	VerificationNotes  *string         `gorm:"type:text" json:"verificationNotes"`
	PaidAt             *time.Time      `json:"paidAt"`
	Notes              *string         `gorm:"type:text" json:"notes"`

	AuditEvents []OrderAuditEvent `gorm:"foreignKey:OrderID" json:"auditEvents,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemMetadata carries the per-domain keys settlement needs to find its records.
type ItemMetadata struct {
	StudentID  string `json:"studentId,omitempty"`
	Period     string `json:"period,omitempty"`
	CampaignID string `json:"campaignId,omitempty"`
	HalaqahID  string `json:"halaqahId,omitempty"`
}

type OrderItem struct {
	ItemType string          `json:"itemType"`
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Metadata ItemMetadata    `json:"metadata"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	qty := i.Quantity
	if qty <= 0 {
		qty = 1
	}
	return i.Price.Mul(decimal.NewFromInt(int64(qty)))
}

func (o *Order) ParseItems() ([]OrderItem, error) {
	if len(o.Items) == 0 {
		return nil, nil
	}
	var items []OrderItem
	if err := json.Unmarshal(o.Items, &items); err != nil {
		return nil, fmt.Errorf("order %s has malformed items: %w", o.ID, err)
	}
	return items, nil
}

func (o *Order) SetItems(items []OrderItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	o.Items = datatypes.JSON(raw)
	return nil
}

func IsManualPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodManualTransfer, PaymentMethodManualBCA, PaymentMethodManualBSI, PaymentMethodManualMandiri:
		return true
	}
	return false
}
