package services

import (
	"context"
	"testing"

	"github.com/anjiri1684/tpq_payments/models"
	"github.com/anjiri1684/tpq_payments/payments"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, id, status string, total int64, items ...models.OrderItem) models.Order {
	t.Helper()
	order := models.Order{
		ID:            id,
		CustomerName:  "Fulan bin Fulan",
		CustomerEmail: "fulan@example.com",
		CustomerPhone: "08123456789",
		Total:         decimal.NewFromInt(total),
		PaymentMethod: models.PaymentMethodManualBSI,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
	}
	if status == models.OrderStatusCompleted {
		order.PaymentStatus = models.PaymentStatusPaid
	}
	if err := order.SetItems(items); err != nil {
		t.Fatalf("SetItems: %v", err)
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order %s: %v", id, err)
	}
	return order
}

func seedCashAccount(t *testing.T, db *gorm.DB, balance int64) models.FinancialAccount {
	t.Helper()
	acct := models.FinancialAccount{
		Name:      "Kas Utama",
		Type:      models.AccountTypeCash,
		Balance:   decimal.NewFromInt(balance),
		IsDefault: true,
	}
	if err := db.Create(&acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acct
}

func seedSpp(t *testing.T, db *gorm.DB, studentID, period, status string) models.SppRecord {
	t.Helper()
	rec := models.SppRecord{
		StudentID: studentID,
		Period:    period,
		Amount:    decimal.NewFromInt(150000),
		Status:    status,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed spp: %v", err)
	}
	return rec
}

func seedDonation(t *testing.T, db *gorm.DB, reference string, amount int64) models.Donation {
	t.Helper()
	d := models.Donation{
		DonorName: "Hamba Allah",
		Amount:    decimal.NewFromInt(amount),
		Reference: reference,
		Status:    models.DonationStatusPendingVerification,
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed donation: %v", err)
	}
	return d
}

func sppItem(studentID, period string, price int64) models.OrderItem {
	return models.OrderItem{
		ItemType: models.ItemTypeSPP,
		ItemID:   "spp-" + studentID,
		Name:     "SPP " + period,
		Price:    decimal.NewFromInt(price),
		Quantity: 1,
		Metadata: models.ItemMetadata{StudentID: studentID, Period: period},
	}
}

func donationItem(price int64) models.OrderItem {
	return models.OrderItem{
		ItemType: models.ItemTypeDonation,
		ItemID:   "campaign-1",
		Name:     "Infaq Pembangunan",
		Price:    decimal.NewFromInt(price),
		Quantity: 1,
		Metadata: models.ItemMetadata{CampaignID: "campaign-1"},
	}
}

func loadOrder(t *testing.T, db *gorm.DB, id string) models.Order {
	t.Helper()
	var o models.Order
	if err := db.First(&o, "id = ?", id).Error; err != nil {
		t.Fatalf("load order %s: %v", id, err)
	}
	return o
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func auditActions(t *testing.T, db *gorm.DB, orderID string) []string {
	t.Helper()
	var evts []models.OrderAuditEvent
	if err := db.Where("order_id = ?", orderID).Order("created_at asc").Find(&evts).Error; err != nil {
		t.Fatalf("load audit: %v", err)
	}
	out := make([]string, 0, len(evts))
	for _, e := range evts {
		out = append(out, e.Action)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeGateway struct {
	createFn func(ctx context.Context, req payments.PaymentRequest) (*payments.ChargeResult, error)
	calls    int
}

func (f *fakeGateway) CreateTransaction(ctx context.Context, req payments.PaymentRequest) (*payments.ChargeResult, error) {
	f.calls++
	return f.createFn(ctx, req)
}

func (f *fakeGateway) TransactionStatus(ctx context.Context, orderID string) (*payments.TransactionStatus, error) {
	return &payments.TransactionStatus{OrderID: orderID, TransactionStatus: "pending"}, nil
}

func (f *fakeGateway) CancelTransaction(ctx context.Context, orderID string) error { return nil }

func (f *fakeGateway) Name() string { return "fake" }
