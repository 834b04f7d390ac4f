package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	config "github.com/anjiri1684/tpq_payments/configs"
)

const (
	DefaultMaxAttempts = 2
	DefaultRetryDelay  = time.Second

	StatusManualTransferRequired = "MANUAL_TRANSFER_REQUIRED"
)

// Outcome is one of GatewaySuccess, ManualFallbackRequired or GatewayExhausted.
type Outcome interface {
	outcome()
}

type GatewaySuccess struct {
	RedirectURL string
	Token       string
	Attempts    int
	DevMode     bool
}

// ManualFallbackRequired means the gateway was not tried at all (disabled by configuration).
type ManualFallbackRequired struct {
	Reason string
}

type GatewayExhausted struct {
	Attempts  int
	LastError error
}

func (GatewaySuccess) outcome()         {}
func (ManualFallbackRequired) outcome() {}
func (GatewayExhausted) outcome()       {}

type GatewayService struct {
	gateway     Gateway
	enabled     bool
	maxAttempts int
	retryDelay  time.Duration
}

type Option func(*GatewayService)

func WithMaxAttempts(n int) Option {
	return func(s *GatewayService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(s *GatewayService) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

func WithEnabled(enabled bool) Option {
	return func(s *GatewayService) { s.enabled = enabled }
}

func NewGatewayService(gateway Gateway, opts ...Option) *GatewayService {
	s := &GatewayService{
		gateway:     gateway,
		enabled:     true,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GatewayService) Gateway() Gateway { return s.gateway }

// Pay never returns an error: every failure path degrades to a manual-transfer outcome.
func (s *GatewayService) Pay(ctx context.Context, req PaymentRequest) Outcome {
	if !s.enabled || s.gateway == nil {
		return ManualFallbackRequired{Reason: "payment gateway disabled"}
	}

	var lastErr error
	attempts := 0
	for attempts < s.maxAttempts {
		attempts++
		res, err := s.attempt(ctx, req)
		if err == nil {
			return GatewaySuccess{RedirectURL: res.RedirectURL, Token: res.Token, Attempts: attempts, DevMode: res.DevMode}
		}
		lastErr = err
		log.Printf("🔥 Payment gateway attempt %d/%d for order %s failed: %v", attempts, s.maxAttempts, req.OrderID, err)

		if attempts < s.maxAttempts {
			if err := sleepCtx(ctx, s.retryDelay); err != nil {
				lastErr = err
				break
			}
		}
	}

	log.Printf("⚠️ Payment gateway exhausted for order %s after %d attempt(s), falling back to manual transfer", req.OrderID, attempts)
	return GatewayExhausted{Attempts: attempts, LastError: lastErr}
}

func (s *GatewayService) attempt(ctx context.Context, req PaymentRequest) (res *ChargeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()

	res, err = s.gateway.CreateTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("gateway returned empty response")
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "gateway rejected the transaction"
		}
		return nil, errors.New(msg)
	}
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	Provider Gateway
	Service  *GatewayService
)

func InitGateway() {
	mt := NewMidtransGatewayFromEnv()
	Provider = mt
	Service = NewGatewayService(mt,
		WithEnabled(config.ConfigBool("PAYMENT_GATEWAY_ENABLED", true)),
		WithMaxAttempts(config.ConfigInt("PAYMENT_GATEWAY_MAX_ATTEMPTS", DefaultMaxAttempts)),
		WithRetryDelay(time.Duration(config.ConfigInt("PAYMENT_GATEWAY_RETRY_DELAY_MS", int(DefaultRetryDelay/time.Millisecond)))*time.Millisecond),
	)
	log.Printf("✅ Payment gateway %s initialized", mt.Name())
}

// WebhookServerKey is the key webhook signatures are checked against.
func WebhookServerKey() string {
	if mt, ok := Provider.(*MidtransGateway); ok {
		return mt.ServerKey()
	}
	return config.Config("MIDTRANS_SERVER_KEY")
}
