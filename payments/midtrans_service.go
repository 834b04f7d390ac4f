package payments

import (
	"context"
	"fmt"
	"log"
	"strings"

	config "github.com/anjiri1684/tpq_payments/configs"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

type MidtransGateway struct {
	serverKey string
	baseURL   string
	snap      snap.Client
	core      coreapi.Client
}

func NewMidtransGateway(serverKey, baseURL string, production bool) *MidtransGateway {
	g := &MidtransGateway{
		serverKey: serverKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
	if serverKey == "" {
		return g
	}

	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g.snap.New(serverKey, env)
	g.core.New(serverKey, env)
	return g
}

func NewMidtransGatewayFromEnv() *MidtransGateway {
	g := NewMidtransGateway(
		config.Config("MIDTRANS_SERVER_KEY"),
		config.ConfigDefault("APP_BASE_URL", "http://localhost:8080"),
		config.ConfigBool("MIDTRANS_IS_PRODUCTION", false),
	)
	if !g.Configured() {
		log.Println("⚠️ MIDTRANS_SERVER_KEY not set, payment gateway running in development mode.")
	}
	return g
}

func (g *MidtransGateway) Name() string { return "midtrans" }

func (g *MidtransGateway) Configured() bool { return g.serverKey != "" }

func (g *MidtransGateway) ServerKey() string { return g.serverKey }

func (g *MidtransGateway) CreateTransaction(ctx context.Context, req PaymentRequest) (*ChargeResult, error) {
	if err := req.Validate(); err != nil {
		return &ChargeResult{Success: false, Error: err.Error()}, nil
	}

	if !g.Configured() {
		return &ChargeResult{
			Success:     true,
			RedirectURL: fmt.Sprintf("%s/payment/dev-checkout?order_id=%s", g.baseURL, req.OrderID),
			Token:       "dev-" + req.OrderID,
			DevMode:     true,
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  truncate(it.Name, 50),
			Price: it.Price.Round(0).IntPart(),
			Qty:   int32(qty),
		})
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount.Round(0).IntPart(),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &items,
		Callbacks: &snap.Callbacks{
			Finish: fmt.Sprintf("%s/payment/confirmation/%s", g.baseURL, req.OrderID),
		},
	}

	resp, mErr := g.snap.CreateTransaction(snapReq)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans create transaction: %s", mErr.GetMessage())
	}
	if resp == nil || resp.RedirectURL == "" {
		return &ChargeResult{Success: false, Error: "midtrans returned no redirect url"}, nil
	}

	return &ChargeResult{Success: true, RedirectURL: resp.RedirectURL, Token: resp.Token}, nil
}

func (g *MidtransGateway) TransactionStatus(ctx context.Context, orderID string) (*TransactionStatus, error) {
	if orderID == "" {
		return nil, ErrMissingOrderID
	}
	if !g.Configured() {
		return &TransactionStatus{OrderID: orderID, TransactionStatus: "pending", StatusCode: "201", DevMode: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, mErr := g.core.CheckTransaction(orderID)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans check transaction %s: %s", orderID, mErr.GetMessage())
	}
	return &TransactionStatus{
		OrderID:           res.OrderID,
		TransactionStatus: res.TransactionStatus,
		StatusCode:        res.StatusCode,
		GrossAmount:       res.GrossAmount,
		FraudStatus:       res.FraudStatus,
		PaymentType:       res.PaymentType,
	}, nil
}

func (g *MidtransGateway) CancelTransaction(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrMissingOrderID
	}
	if !g.Configured() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, mErr := g.core.CancelTransaction(orderID); mErr != nil {
		return fmt.Errorf("midtrans cancel transaction %s: %s", orderID, mErr.GetMessage())
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
