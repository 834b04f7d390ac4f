package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/mail"
	"time"

	config "github.com/anjiri1684/tpq_payments/configs"
	"github.com/shopspring/decimal"
)

var brevoURL = "https://api.brevo.com/v3/smtp/email"

// Recipient is the payer an order notification goes to.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PaymentNotification tells a payer how verification of their order ended.
type PaymentNotification struct {
	OrderID  string
	Payer    Recipient
	Total    decimal.Decimal
	Approved bool
	Notes    string
}

func (n PaymentNotification) render() (subject, body string) {
	if n.Approved {
		return PaymentApprovedEmail(n.OrderID, n.Total)
	}
	return PaymentRejectedEmail(n.OrderID, n.Notes)
}

// PaymentMailer delivers payment notifications through the Brevo transactional API.
type PaymentMailer struct {
	APIKey string
	Sender Recipient
	client *http.Client
}

var EmailClient *PaymentMailer

type brevoMessage struct {
	Sender      Recipient   `json:"sender"`
	To          []Recipient `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
	Tags        []string    `json:"tags,omitempty"`
}

func InitEmailService() {
	apiKey := config.Config("BREVO_API_KEY")
	senderEmail := config.Config("EMAIL_SENDER")

	if apiKey == "" || senderEmail == "" {
		log.Println("⚠️ Email service not configured. Missing BREVO_API_KEY or EMAIL_SENDER.")
		EmailClient = nil
		return
	}

	EmailClient = &PaymentMailer{
		APIKey: apiKey,
		Sender: Recipient{Name: config.ConfigDefault("EMAIL_SENDER_NAME", "TPQ"), Email: senderEmail},
		client: &http.Client{Timeout: 10 * time.Second},
	}
	log.Println("✅ Email service initialized successfully.")
}

// Deliver sends one notification. Payers without a usable address are an error the caller logs.
func (m *PaymentMailer) Deliver(n PaymentNotification) error {
	addr, err := mail.ParseAddress(n.Payer.Email)
	if err != nil {
		return fmt.Errorf("order %s: invalid payer email %q: %w", n.OrderID, n.Payer.Email, err)
	}
	to := Recipient{Name: n.Payer.Name, Email: addr.Address}
	if to.Name == "" {
		to.Name = "Wali Santri"
	}

	subject, body := n.render()
	msg := brevoMessage{
		Sender:      m.Sender,
		To:          []Recipient{to},
		Subject:     subject,
		HTMLContent: body,
		Tags:        []string{"payment-verification"},
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("order %s: marshal message: %w", n.OrderID, err)
	}

	req, err := http.NewRequest(http.MethodPost, brevoURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("order %s: build request: %w", n.OrderID, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", m.APIKey)
	req.Header.Set("content-type", "application/json")

	client := m.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("order %s: send: %w", n.OrderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("order %s: brevo returned %d: %s", n.OrderID, resp.StatusCode, string(detail))
	}
	return nil
}

// NotifyPaymentVerified is fire-and-forget; a disabled mailer or a failed send never reaches the caller.
func NotifyPaymentVerified(n PaymentNotification) {
	if EmailClient == nil || n.Payer.Email == "" {
		return
	}
	if err := EmailClient.Deliver(n); err != nil {
		log.Printf("🔥 Failed to send payment notification: %v", err)
		return
	}
	log.Printf("✅ Payment notification for order %s sent to %s", n.OrderID, n.Payer.Email)
}
