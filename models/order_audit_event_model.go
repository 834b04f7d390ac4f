package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditActionCheckout          = "CHECKOUT"
	AuditActionGatewayFallback   = "GATEWAY_FALLBACK"
	AuditActionProofSubmitted    = "PROOF_SUBMITTED"
	AuditActionApprove           = "APPROVE"
	AuditActionReject            = "REJECT"
	AuditActionGatewaySettlement = "GATEWAY_SETTLEMENT"
	AuditActionGatewayFailure    = "GATEWAY_FAILURE"
	AuditActionSettlementWarning = "SETTLEMENT_WARNING"
)

// OrderAuditEvent rows are insert-only; nothing in the codebase updates or deletes them.
type OrderAuditEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       string    `gorm:"size:64;not null;index" json:"orderId"`
	Action        string    `gorm:"size:32;not null" json:"action"`
	ActorID       *string   `gorm:"size:64" json:"actorId"`
	Notes         *string   `gorm:"type:text" json:"notes"`
	BankAccount   *string   `gorm:"size:100" json:"bankAccount,omitempty"`
	ProofFilePath *string   `gorm:"size:500" json:"proofFilePath,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (e *OrderAuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
