package services

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/tpq_payments/cache"
	"github.com/anjiri1684/tpq_payments/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const confirmationTTL = 30 * time.Second

const (
	BucketAwaitingVerification = "awaiting verification"
	BucketSuccess              = "success"
	BucketRejected             = "rejected"
	BucketUnknown              = "unknown"
)

var bucketLabels = map[string]string{
	BucketAwaitingVerification: "Menunggu verifikasi admin",
	BucketSuccess:              "Pembayaran berhasil",
	BucketRejected:             "Pembayaran ditolak",
	BucketUnknown:              "Status tidak diketahui",
}

type Confirmation struct {
	OrderID            string                   `json:"orderId"`
	CustomerName       string                   `json:"customerName"`
	CustomerEmail      string                   `json:"customerEmail"`
	Total              decimal.Decimal          `json:"total"`
	PaymentMethod      string                   `json:"paymentMethod"`
	Status             string                   `json:"status"`
	PaymentStatus      string                   `json:"paymentStatus"`
	StatusBucket       string                   `json:"statusBucket"`
	StatusLabel        string                   `json:"statusLabel"`
	BankAccount        *string                  `json:"bankAccount"`
	ProofFilePath      *string                  `json:"proofFilePath"`
	GatewayRedirectURL *string                  `json:"gatewayRedirectUrl,omitempty"`
	VerifiedAt         *time.Time               `json:"verifiedAt"`
	VerificationNotes  *string                  `json:"verificationNotes"`
	PaidAt             *time.Time               `json:"paidAt"`
	Items              []models.OrderItem       `json:"items"`
	AuditTrail         []models.OrderAuditEvent `json:"auditTrail"`
	CreatedAt          time.Time                `json:"createdAt"`
}

func StatusBucket(status, paymentStatus string) string {
	switch {
	case status == models.OrderStatusPendingVerification:
		return BucketAwaitingVerification
	case status == models.OrderStatusCompleted && paymentStatus == models.PaymentStatusPaid:
		return BucketSuccess
	case status == models.OrderStatusCancelled || paymentStatus == models.PaymentStatusFailed:
		return BucketRejected
	default:
		return BucketUnknown
	}
}

// GetConfirmation serves the payer's status page. refresh skips the cache.
func GetConfirmation(ctx context.Context, db *gorm.DB, orderID string, refresh bool) (*Confirmation, error) {
	key := cache.Key("confirmation", orderID)
	if !refresh {
		var cached Confirmation
		if cache.GetJSON(ctx, key, &cached) {
			return &cached, nil
		}
	}

	var order models.Order
	err := db.WithContext(ctx).
		Preload("AuditEvents", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at asc") }).
		First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := order.ParseItems()
	if err != nil {
		return nil, err
	}

	bucket := StatusBucket(order.Status, order.PaymentStatus)
	view := &Confirmation{
		OrderID:            order.ID,
		CustomerName:       order.CustomerName,
		CustomerEmail:      order.CustomerEmail,
		Total:              order.Total,
		PaymentMethod:      order.PaymentMethod,
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		StatusBucket:       bucket,
		StatusLabel:        bucketLabels[bucket],
		BankAccount:        order.BankAccount,
		ProofFilePath:      order.ProofFilePath,
		GatewayRedirectURL: order.GatewayRedirectURL,
		VerifiedAt:         order.VerifiedAt,
		VerificationNotes:  order.VerificationNotes,
		PaidAt:             order.PaidAt,
		Items:              items,
		AuditTrail:         order.AuditEvents,
		CreatedAt:          order.CreatedAt,
	}

	cache.SetJSON(ctx, key, view, confirmationTTL)
	return view, nil
}
