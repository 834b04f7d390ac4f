package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PaymentRequest)
		want   error
	}{
		{"valid", func(*PaymentRequest) {}, nil},
		{"missing order", func(r *PaymentRequest) { r.OrderID = " " }, ErrMissingOrderID},
		{"zero amount", func(r *PaymentRequest) { r.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(r *PaymentRequest) { r.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"missing customer", func(r *PaymentRequest) { r.Customer.Name = "" }, ErrMissingCustomer},
		{"no items", func(r *PaymentRequest) { r.Items = nil }, ErrNoItems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if err := req.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMidtransDevModeWithoutCredentials(t *testing.T) {
	g := NewMidtransGateway("", "http://tpq.local/", false)
	if g.Configured() {
		t.Fatal("gateway without server key must not be configured")
	}

	res, err := g.CreateTransaction(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if !res.Success || !res.DevMode {
		t.Fatalf("expected dev-mode success, got %+v", res)
	}
	if res.RedirectURL != "http://tpq.local/payment/dev-checkout?order_id=ORD-1" {
		t.Errorf("redirect = %s", res.RedirectURL)
	}

	st, err := g.TransactionStatus(context.Background(), "ORD-1")
	if err != nil || st.TransactionStatus != "pending" {
		t.Errorf("status = %+v, err = %v", st, err)
	}
	if err := g.CancelTransaction(context.Background(), "ORD-1"); err != nil {
		t.Errorf("cancel in dev mode: %v", err)
	}
}

func TestMidtransRejectsInvalidRequestBeforeCalling(t *testing.T) {
	g := NewMidtransGateway("", "http://tpq.local", false)
	req := validRequest()
	req.Items = nil

	res, err := g.CreateTransaction(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || !strings.Contains(res.Error, "item") {
		t.Errorf("expected item validation failure, got %+v", res)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Infaq Pembangunan Masjid", 5); got != "Infaq" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("SPP", 50); got != "SPP" {
		t.Errorf("truncate = %q", got)
	}
}
