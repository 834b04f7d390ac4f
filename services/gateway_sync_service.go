package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/tpq_payments/cache"
	"github.com/anjiri1684/tpq_payments/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const GatewayActor = "midtrans"

type GatewayNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
	SignatureKey      string `json:"signature_key"`
}

type GatewaySyncResult struct {
	OrderID  string   `json:"orderId"`
	Applied  bool     `json:"applied"`
	Status   string   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
	// NeedsReview marks a gateway payment that arrived after the order fell back to manual transfer.
	NeedsReview bool `json:"needsReview,omitempty"`
}

type gatewayDecision int

const (
	decisionIgnore gatewayDecision = iota
	decisionSettle
	decisionFail
)

func decide(transactionStatus, fraudStatus string) gatewayDecision {
	switch strings.ToLower(transactionStatus) {
	case "settlement":
		return decisionSettle
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "", "accept":
			return decisionSettle
		case "deny":
			return decisionFail
		}
		return decisionIgnore
	case "deny", "cancel", "expire", "failure":
		return decisionFail
	}
	return decisionIgnore
}

// ApplyGatewayStatus moves a PENDING_PAYMENT order according to a gateway status report.
// Webhooks and the reconciliation job both land here, so replays are absorbed by the conditional update.
func ApplyGatewayStatus(db *gorm.DB, n GatewayNotification) (*GatewaySyncResult, error) {
	if n.OrderID == "" {
		return nil, &ValidationError{Field: "order_id", Message: "order_id wajib diisi"}
	}

	res := &GatewaySyncResult{OrderID: n.OrderID}
	t := transition{
		from:    models.OrderStatusPendingPayment,
		actorID: GatewayActor,
		notes:   fmt.Sprintf("%s via %s (%s)", n.TransactionStatus, n.PaymentType, n.TransactionID),
	}

	decision := decide(n.TransactionStatus, n.FraudStatus)
	switch decision {
	case decisionSettle:
		if err := checkGrossAmount(db, n); err != nil {
			return nil, err
		}
		t.to, t.paymentStatus, t.settle = models.OrderStatusCompleted, models.PaymentStatusPaid, true
		t.auditAction = models.AuditActionGatewaySettlement
	case decisionFail:
		t.to, t.paymentStatus, t.release = models.OrderStatusCancelled, models.PaymentStatusFailed, true
		t.auditAction = models.AuditActionGatewayFailure
	default:
		var order models.Order
		if err := db.Select("id", "status").First(&order, "id = ?", n.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOrderNotFound
			}
			return nil, err
		}
		res.Status = order.Status
		return res, nil
	}

	now := time.Now()
	var (
		order    *models.Order
		warnings []string
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, warnings, err = applyTransition(tx, n.OrderID, t, now)
		return err
	})
	if err != nil {
		if decision == decisionSettle && errors.Is(err, ErrOrderAlreadyVerified) &&
			order != nil && order.Status == models.OrderStatusPendingVerification {
			return flagLateSettlement(db, order, t.notes, now)
		}
		return nil, err
	}

	log.Printf("✅ Gateway %s applied to order %s: %s", n.TransactionStatus, n.OrderID, t.to)
	afterVerification(order, t.to, t.paymentStatus, GatewayActor, "", now)

	res.Applied = true
	res.Status = t.to
	res.Warnings = warnings
	return res, nil
}

// flagLateSettlement records a gateway settlement for an order already waiting on manual
// verification. The order stays in the manual queue; the audit event tells the admin the money arrived.
func flagLateSettlement(db *gorm.DB, order *models.Order, notes string, now time.Time) (*GatewaySyncResult, error) {
	res := &GatewaySyncResult{OrderID: order.ID, Status: order.Status, NeedsReview: true}

	var seen int64
	if err := db.Model(&models.OrderAuditEvent{}).
		Where("order_id = ? AND action = ?", order.ID, models.AuditActionGatewaySettlement).
		Count(&seen).Error; err != nil {
		return nil, err
	}
	if seen > 0 {
		return res, nil
	}

	log.Printf("⚠️ Gateway settlement for order %s arrived after manual fallback, admin review needed", order.ID)
	if err := appendAudit(db, models.OrderAuditEvent{
		OrderID:   order.ID,
		Action:    models.AuditActionGatewaySettlement,
		ActorID:   strPtr(GatewayActor),
		Notes:     strPtr("Pembayaran gateway diterima setelah pesanan dialihkan ke transfer manual: " + notes),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	cache.Delete(context.Background(), cache.Key("confirmation", order.ID))
	return res, nil
}

func checkGrossAmount(db *gorm.DB, n GatewayNotification) error {
	if n.GrossAmount == "" {
		return nil
	}
	gross, err := decimal.NewFromString(n.GrossAmount)
	if err != nil {
		return &ValidationError{Field: "gross_amount", Message: "gross_amount tidak valid"}
	}

	var order models.Order
	if err := db.Select("id", "total").First(&order, "id = ?", n.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if !order.Total.Equal(gross) {
		log.Printf("⚠️ Gateway amount %s does not match order %s total %s", gross, n.OrderID, order.Total)
		return fmt.Errorf("%w: order %s", ErrAmountMismatch, n.OrderID)
	}
	return nil
}
