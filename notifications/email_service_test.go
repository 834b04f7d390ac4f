package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDeliverPostsRenderedNotification(t *testing.T) {
	var got brevoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			t.Errorf("api-key header = %q", r.Header.Get("api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	old := brevoURL
	brevoURL = srv.URL
	defer func() { brevoURL = old }()

	m := &PaymentMailer{APIKey: "key", Sender: Recipient{Name: "TPQ", Email: "tpq@example.com"}}
	n := PaymentNotification{
		OrderID:  "ORD-7",
		Payer:    Recipient{Email: "wali@example.com"},
		Total:    decimal.NewFromInt(150000),
		Approved: true,
	}
	if err := m.Deliver(n); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(got.To) != 1 || got.To[0].Email != "wali@example.com" || got.To[0].Name == "" {
		t.Errorf("recipients = %+v", got.To)
	}
	if got.Sender.Email != "tpq@example.com" || !strings.Contains(got.Subject, "ORD-7") || !strings.Contains(got.HTMLContent, "150000") {
		t.Errorf("message = %+v", got)
	}
}

func TestDeliverRejectedUsesAdminNotes(t *testing.T) {
	var got brevoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	old := brevoURL
	brevoURL = srv.URL
	defer func() { brevoURL = old }()

	m := &PaymentMailer{APIKey: "key"}
	err := m.Deliver(PaymentNotification{OrderID: "ORD-8", Payer: Recipient{Name: "Ummu", Email: "ummu@example.com"}, Notes: "nominal kurang"})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !strings.Contains(got.Subject, "Ditolak") || !strings.Contains(got.HTMLContent, "nominal kurang") {
		t.Errorf("message = %+v", got)
	}
}

func TestDeliverFailures(t *testing.T) {
	m := &PaymentMailer{APIKey: "key"}
	if err := m.Deliver(PaymentNotification{OrderID: "ORD-9", Payer: Recipient{Email: "not-an-email"}}); err == nil {
		t.Fatal("expected error for invalid payer email")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	old := brevoURL
	brevoURL = srv.URL
	defer func() { brevoURL = old }()

	err := m.Deliver(PaymentNotification{OrderID: "ORD-9", Payer: Recipient{Email: "wali@example.com"}, Approved: true})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want brevo status in error", err)
	}
}

func TestPaymentEmails(t *testing.T) {
	subject, body := PaymentApprovedEmail("ORD-1", decimal.NewFromInt(150000))
	if !strings.Contains(subject, "ORD-1") || !strings.Contains(body, "150000") {
		t.Errorf("approved email = %q / %q", subject, body)
	}

	_, body = PaymentRejectedEmail("ORD-2", "<script>")
	if strings.Contains(body, "<script>") {
		t.Error("notes must be escaped")
	}
}
