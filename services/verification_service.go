package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/tpq_payments/cache"
	"github.com/anjiri1684/tpq_payments/events"
	"github.com/anjiri1684/tpq_payments/models"
	"github.com/anjiri1684/tpq_payments/notifications"
	"gorm.io/gorm"
)

const (
	ActionApprove    = "APPROVE"
	ActionReject     = "REJECT"
	ActionApproveAll = "APPROVE_ALL"
	ActionRejectAll  = "REJECT_ALL"
)

type ItemOutcome string

const (
	OutcomeOK               ItemOutcome = "OK"
	OutcomeNotFound         ItemOutcome = "NOT_FOUND"
	OutcomeAlreadyVerified  ItemOutcome = "ALREADY_VERIFIED"
	OutcomeSettlementFailed ItemOutcome = "SETTLEMENT_FAILED"
	OutcomeError            ItemOutcome = "ERROR"
)

type VerifyRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Action  string `json:"action" validate:"required,oneof=APPROVE REJECT"`
	AdminID string `json:"adminId" validate:"required"`
	Notes   string `json:"notes"`
}

type VerifyResult struct {
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	VerifiedAt    time.Time `json:"verifiedAt"`
	VerifiedBy    string    `json:"verifiedBy"`
	Warnings      []string  `json:"warnings,omitempty"`
}

type BulkVerifyRequest struct {
	Action   string   `json:"action" validate:"required,oneof=APPROVE_ALL REJECT_ALL"`
	OrderIDs []string `json:"orderIds" validate:"required,min=1"`
	AdminID  string   `json:"adminId" validate:"required"`
	Notes    string   `json:"notes"`
}

type BulkItemResult struct {
	OrderID  string      `json:"orderId"`
	Success  bool        `json:"success"`
	Outcome  ItemOutcome `json:"outcome"`
	Message  string      `json:"message"`
	Warnings []string    `json:"warnings,omitempty"`
}

type BulkSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type BulkVerifyResult struct {
	Results []BulkItemResult `json:"results"`
	Summary BulkSummary      `json:"summary"`
}

// VerifyOrder approves or rejects one PENDING_VERIFICATION order. Approval and settlement commit
// together; a settlement failure rolls the approval back and returns *SettlementError.
func VerifyOrder(db *gorm.DB, req VerifyRequest) (*VerifyResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return verifyOne(db, req.OrderID, req.Action, req.AdminID, req.Notes)
}

// BulkVerify runs each id as its own transaction. Only request validation fails the call;
// per-order failures land in the results.
func BulkVerify(db *gorm.DB, req BulkVerifyRequest) (*BulkVerifyResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	action := ActionApprove
	if req.Action == ActionRejectAll {
		action = ActionReject
	}

	out := &BulkVerifyResult{Results: make([]BulkItemResult, 0, len(req.OrderIDs))}
	for _, id := range req.OrderIDs {
		item := BulkItemResult{OrderID: id}
		if id == "" {
			item.Outcome = OutcomeError
			item.Message = "ID pesanan kosong"
		} else {
			res, err := verifyOne(db, id, action, req.AdminID, req.Notes)
			item.Outcome, item.Message = classifyVerifyError(err, action)
			if res != nil {
				item.Warnings = res.Warnings
			}
		}
		item.Success = item.Outcome == OutcomeOK
		if item.Success {
			out.Summary.Success++
		} else {
			out.Summary.Failed++
		}
		out.Results = append(out.Results, item)
	}
	out.Summary.Total = len(req.OrderIDs)
	return out, nil
}

func verifyOne(db *gorm.DB, orderID, action, adminID, notes string) (*VerifyResult, error) {
	t := transition{
		from:        models.OrderStatusPendingVerification,
		actorID:     adminID,
		notes:       notes,
		auditAction: action,
		verified:    true,
	}
	switch action {
	case ActionApprove:
		t.to, t.paymentStatus, t.settle = models.OrderStatusCompleted, models.PaymentStatusPaid, true
	case ActionReject:
		t.to, t.paymentStatus, t.release = models.OrderStatusCancelled, models.PaymentStatusFailed, true
	default:
		return nil, ErrInvalidAction
	}

	now := time.Now()
	var (
		order    *models.Order
		warnings []string
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, warnings, err = applyTransition(tx, orderID, t, now)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) && !errors.Is(err, ErrOrderAlreadyVerified) {
			log.Printf("🔥 Failed to %s order %s: %v", action, orderID, err)
		}
		return nil, err
	}

	log.Printf("✅ Order %s %s by %s", orderID, t.to, adminID)
	afterVerification(order, t.to, t.paymentStatus, adminID, notes, now)

	return &VerifyResult{
		OrderID:       orderID,
		Status:        t.to,
		PaymentStatus: t.paymentStatus,
		VerifiedAt:    now,
		VerifiedBy:    adminID,
		Warnings:      warnings,
	}, nil
}

// afterVerification runs the post-commit side effects. None of them can undo the transition.
func afterVerification(order *models.Order, status, paymentStatus, actorID, notes string, now time.Time) {
	cache.Delete(context.Background(), cache.Key("confirmation", order.ID))

	evt := events.PaymentEvent{
		OrderID:       order.ID,
		Status:        status,
		PaymentStatus: paymentStatus,
		PaymentMethod: order.PaymentMethod,
		Amount:        order.Total,
		ActorID:       actorID,
		OccurredAt:    now,
	}
	go events.PublishPaymentVerified(evt)

	if order.CustomerEmail == "" {
		return
	}
	go notifications.NotifyPaymentVerified(notifications.PaymentNotification{
		OrderID:  order.ID,
		Payer:    notifications.Recipient{Name: order.CustomerName, Email: order.CustomerEmail},
		Total:    order.Total,
		Approved: paymentStatus == models.PaymentStatusPaid,
		Notes:    notes,
	})
}

func classifyVerifyError(err error, action string) (ItemOutcome, string) {
	var settleErr *SettlementError
	switch {
	case err == nil:
		if action == ActionReject {
			return OutcomeOK, "Pembayaran berhasil ditolak"
		}
		return OutcomeOK, "Pembayaran berhasil disetujui"
	case errors.Is(err, ErrOrderNotFound):
		return OutcomeNotFound, "Pesanan tidak ditemukan"
	case errors.Is(err, ErrOrderAlreadyVerified):
		return OutcomeAlreadyVerified, "Pesanan sudah diverifikasi sebelumnya"
	case errors.As(err, &settleErr):
		return OutcomeSettlementFailed, fmt.Sprintf("Gagal memproses penyelesaian pembayaran (%s)", settleErr.Step)
	default:
		return OutcomeError, "Terjadi kesalahan saat memproses pesanan"
	}
}
