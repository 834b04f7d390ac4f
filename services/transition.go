package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/tpq_payments/models"
	"gorm.io/gorm"
)

type transition struct {
	from          string
	to            string
	paymentStatus string
	actorID       string
	notes         string
	auditAction   string
	settle        bool
	// release hands reserved SPP bills and donations back when the order does not complete.
	release bool
	// verified stamps verified_by/verified_at; gateway-driven transitions leave them empty.
	verified bool
}

// applyTransition moves one order from t.from to t.to with a single conditional UPDATE so two
// concurrent callers cannot both pass the state check. It must run inside a transaction.
func applyTransition(tx *gorm.DB, orderID string, t transition, now time.Time) (*models.Order, []string, error) {
	updates := map[string]any{
		"status":         t.to,
		"payment_status": t.paymentStatus,
		"updated_at":     now,
	}
	if t.paymentStatus == models.PaymentStatusPaid {
		updates["paid_at"] = now
	} else {
		updates["paid_at"] = nil
	}
	if t.verified {
		updates["verified_by"] = t.actorID
		updates["verified_at"] = now
		if t.notes != "" {
			updates["verification_notes"] = t.notes
		}
	}

	affected, err := conditionalUpdate(tx, orderID, t.from, updates)
	if err != nil {
		return nil, nil, err
	}

	var order models.Order
	if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}
	if affected == 0 {
		return &order, nil, fmt.Errorf("%w: current status %s", ErrOrderAlreadyVerified, order.Status)
	}

	if err := appendAudit(tx, models.OrderAuditEvent{
		OrderID:       order.ID,
		Action:        t.auditAction,
		ActorID:       strPtr(t.actorID),
		Notes:         strPtr(t.notes),
		BankAccount:   order.BankAccount,
		ProofFilePath: order.ProofFilePath,
		CreatedAt:     now,
	}); err != nil {
		return nil, nil, err
	}

	if t.release {
		if err := releaseOrder(tx, &order, now); err != nil {
			return nil, nil, &SettlementError{OrderID: order.ID, Step: "release", Err: err}
		}
	}
	if !t.settle {
		return &order, nil, nil
	}

	warnings, err := settleOrder(tx, &order, t.actorID, now)
	if err != nil {
		return nil, nil, err
	}
	if len(warnings) > 0 {
		log.Printf("⚠️ Order %s settled with warnings: %s", order.ID, strings.Join(warnings, "; "))
		if err := appendAudit(tx, models.OrderAuditEvent{
			OrderID:   order.ID,
			Action:    models.AuditActionSettlementWarning,
			ActorID:   strPtr(t.actorID),
			Notes:     strPtr(strings.Join(warnings, "; ")),
			CreatedAt: now,
		}); err != nil {
			return nil, nil, err
		}
	}
	return &order, warnings, nil
}

// conditionalUpdate reports how many rows left the from state. Zero means another caller got there first.
func conditionalUpdate(tx *gorm.DB, orderID, from string, updates map[string]any) (int64, error) {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func appendAudit(tx *gorm.DB, evt models.OrderAuditEvent) error {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}
	return tx.Create(&evt).Error
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
