package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/tpq_payments/cache"
	"github.com/anjiri1684/tpq_payments/events"
	"github.com/anjiri1684/tpq_payments/models"
	"github.com/anjiri1684/tpq_payments/payments"
	"github.com/anjiri1684/tpq_payments/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutRequest struct {
	CustomerName  string             `json:"customerName" validate:"required"`
	CustomerEmail string             `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone string             `json:"customerPhone"`
	PaymentMethod string             `json:"paymentMethod" validate:"required,oneof=MIDTRANS MANUAL_TRANSFER MANUAL_BCA MANUAL_BSI MANUAL_MANDIRI"`
	BankAccount   string             `json:"bankAccount"`
	Notes         string             `json:"notes"`
	Items         []models.OrderItem `json:"items" validate:"required,min=1"`
}

type CheckoutResult struct {
	OrderID          string          `json:"orderId"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"paymentStatus"`
	PaymentMethod    string          `json:"paymentMethod"`
	Total            decimal.Decimal `json:"total"`
	RedirectURL      string          `json:"redirectUrl,omitempty"`
	Token            string          `json:"token,omitempty"`
	DevMode          bool            `json:"devMode,omitempty"`
	FallbackToManual bool            `json:"fallbackToManual"`
	GatewayStatus    string          `json:"gatewayStatus,omitempty"`
	Error            string          `json:"error,omitempty"`
}

type SubmitProofRequest struct {
	BankAccount   string `json:"bankAccount" validate:"required"`
	ProofFilePath string `json:"proofFilePath" validate:"required"`
}

func validateItems(items []models.OrderItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		switch item.ItemType {
		case models.ItemTypeSPP:
			if item.Metadata.StudentID == "" && item.ItemID == "" {
				return total, &ValidationError{Field: field, Message: "Item SPP wajib menyertakan studentId"}
			}
		case models.ItemTypeDonation:
		default:
			return total, &ValidationError{Field: field, Message: fmt.Sprintf("Jenis item %q tidak valid", item.ItemType)}
		}
		if strings.TrimSpace(item.Name) == "" {
			return total, &ValidationError{Field: field, Message: "Nama item wajib diisi"}
		}
		if !item.Price.IsPositive() {
			return total, &ValidationError{Field: field, Message: "Harga item harus lebih dari 0"}
		}
		total = total.Add(item.Subtotal())
	}
	return total, nil
}

// Checkout persists the order first, then asks the gateway for a hosted page when the method
// is not manual. A gateway that cannot be reached turns the order into a manual transfer.
func Checkout(ctx context.Context, db *gorm.DB, gw *payments.GatewayService, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	total, err := validateItems(req.Items)
	if err != nil {
		return nil, err
	}

	manual := models.IsManualPaymentMethod(req.PaymentMethod)
	status := models.OrderStatusPendingVerification
	if !manual {
		status = models.OrderStatusPendingPayment
	}

	now := time.Now()
	order := models.Order{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: req.CustomerPhone,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
		BankAccount:   strPtr(req.BankAccount),
		Notes:         strPtr(req.Notes),
	}
	if err := order.SetItems(req.Items); err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		id, err := utils.GenerateUniqueOrderID(tx, now)
		if err != nil {
			return err
		}
		order.ID = id
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := reserveItems(tx, &order, req.Items); err != nil {
			return err
		}
		return appendAudit(tx, models.OrderAuditEvent{
			OrderID:     order.ID,
			Action:      models.AuditActionCheckout,
			Notes:       strPtr(req.Notes),
			BankAccount: order.BankAccount,
			CreatedAt:   now,
		})
	})
	if err != nil {
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			log.Printf("🔥 Checkout failed for %s: %v", req.CustomerName, err)
		}
		return nil, err
	}

	result := &CheckoutResult{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		Total:         total,
	}
	if !manual {
		if err := payThroughGateway(ctx, db, gw, &order, req.Items, result); err != nil {
			return nil, err
		}
	}

	go events.PublishPaymentCheckout(events.PaymentEvent{
		OrderID:       order.ID,
		Status:        result.Status,
		PaymentStatus: result.PaymentStatus,
		PaymentMethod: result.PaymentMethod,
		Amount:        total,
		OccurredAt:    now,
	})
	log.Printf("✅ Order %s created (%s, %s)", order.ID, result.PaymentMethod, result.Status)
	return result, nil
}

// reserveItems moves referenced SPP bills to PENDING_VERIFICATION and opens one donation row per donation item.
func reserveItems(tx *gorm.DB, order *models.Order, items []models.OrderItem) error {
	for _, item := range items {
		switch item.ItemType {
		case models.ItemTypeSPP:
			record, err := findSppRecord(tx, item, models.SppStatusUnpaid)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ValidationError{
					Field:   "items",
					Message: fmt.Sprintf("Tagihan SPP santri %s periode %s tidak ditemukan atau sudah dibayar", item.Metadata.StudentID, item.Metadata.Period),
				}
			}
			if err != nil {
				return err
			}
			if err := tx.Model(&models.SppRecord{}).
				Where("id = ? AND status = ?", record.ID, models.SppStatusUnpaid).
				Update("status", models.SppStatusPendingVerification).Error; err != nil {
				return err
			}
		case models.ItemTypeDonation:
			donation := models.Donation{
				CampaignID: strPtr(item.Metadata.CampaignID),
				DonorName:  order.CustomerName,
				DonorEmail: order.CustomerEmail,
				Amount:     item.Subtotal(),
				Reference:  order.ID,
				Status:     models.DonationStatusPendingVerification,
			}
			if err := tx.Create(&donation).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func payThroughGateway(ctx context.Context, db *gorm.DB, gw *payments.GatewayService, order *models.Order, items []models.OrderItem, result *CheckoutResult) error {
	var outcome payments.Outcome = payments.ManualFallbackRequired{Reason: "payment gateway not configured"}
	if gw != nil {
		outcome = gw.Pay(ctx, paymentRequestFor(order, items))
	}

	switch o := outcome.(type) {
	case payments.GatewaySuccess:
		if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"gateway_token":        o.Token,
			"gateway_redirect_url": o.RedirectURL,
		}).Error; err != nil {
			return err
		}
		result.RedirectURL = o.RedirectURL
		result.Token = o.Token
		result.DevMode = o.DevMode
		return nil
	case payments.ManualFallbackRequired:
		return fallBackToManual(db, order, o.Reason, result)
	case payments.GatewayExhausted:
		reason := fmt.Sprintf("gateway gagal setelah %d percobaan", o.Attempts)
		if o.LastError != nil {
			reason = o.LastError.Error()
		}
		return fallBackToManual(db, order, reason, result)
	default:
		return fmt.Errorf("unexpected gateway outcome %T", outcome)
	}
}

func fallBackToManual(db *gorm.DB, order *models.Order, reason string, result *CheckoutResult) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPendingPayment).
			Updates(map[string]any{
				"payment_method": models.PaymentMethodManualTransfer,
				"status":         models.OrderStatusPendingVerification,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %s left PENDING_PAYMENT before fallback", ErrOrderAlreadyVerified, order.ID)
		}
		return appendAudit(tx, models.OrderAuditEvent{
			OrderID: order.ID,
			Action:  models.AuditActionGatewayFallback,
			Notes:   strPtr(reason),
		})
	})
	if err != nil {
		return err
	}

	result.Status = models.OrderStatusPendingVerification
	result.PaymentMethod = models.PaymentMethodManualTransfer
	result.FallbackToManual = true
	result.GatewayStatus = payments.StatusManualTransferRequired
	result.Error = reason
	return nil
}

func paymentRequestFor(order *models.Order, items []models.OrderItem) payments.PaymentRequest {
	lines := make([]payments.LineItem, 0, len(items))
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		id := item.ItemID
		if id == "" {
			id = item.ItemType
		}
		lines = append(lines, payments.LineItem{ID: id, Name: item.Name, Price: item.Price, Quantity: qty})
	}
	return payments.PaymentRequest{
		OrderID: order.ID,
		Amount:  order.Total,
		Customer: payments.Customer{
			Name:  order.CustomerName,
			Email: order.CustomerEmail,
			Phone: order.CustomerPhone,
		},
		Items: lines,
	}
}

// SubmitProof records the transfer proof while the order still awaits verification.
func SubmitProof(db *gorm.DB, orderID string, req SubmitProofRequest) (*models.Order, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderStatusPendingVerification).
			Updates(map[string]any{
				"bank_account":    req.BankAccount,
				"proof_file_path": req.ProofFilePath,
			})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: current status %s", ErrOrderAlreadyVerified, order.Status)
		}
		return appendAudit(tx, models.OrderAuditEvent{
			OrderID:       orderID,
			Action:        models.AuditActionProofSubmitted,
			BankAccount:   strPtr(req.BankAccount),
			ProofFilePath: strPtr(req.ProofFilePath),
		})
	})
	if err != nil {
		return nil, err
	}

	cache.Delete(context.Background(), cache.Key("confirmation", orderID))
	return &order, nil
}
