package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingOrderID  = errors.New("order id is required")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrMissingCustomer = errors.New("customer name is required")
	ErrNoItems         = errors.New("at least one item is required")
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type LineItem struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

type PaymentRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	Customer Customer
	Items    []LineItem
}

func (r PaymentRequest) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return ErrMissingOrderID
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Customer.Name) == "" {
		return ErrMissingCustomer
	}
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	return nil
}

// ChargeResult mirrors the hosted-page response: either a redirect or an error.
type ChargeResult struct {
	Success     bool
	RedirectURL string
	Token       string
	Error       string
	DevMode     bool
}

type TransactionStatus struct {
	OrderID           string
	TransactionStatus string
	StatusCode        string
	GrossAmount       string
	FraudStatus       string
	PaymentType       string
	DevMode           bool
}

// Gateway is the contract every hosted-payment provider adapter satisfies.
type Gateway interface {
	CreateTransaction(ctx context.Context, req PaymentRequest) (*ChargeResult, error)
	TransactionStatus(ctx context.Context, orderID string) (*TransactionStatus, error)
	CancelTransaction(ctx context.Context, orderID string) error
	Name() string
}
