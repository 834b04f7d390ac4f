package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/tpq_payments/database"
	"github.com/anjiri1684/tpq_payments/database/dbtest"
	"github.com/anjiri1684/tpq_payments/models"
	"github.com/anjiri1684/tpq_payments/payments"
	"github.com/anjiri1684/tpq_payments/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	db := dbtest.Open(t)
	prevDB, prevProvider, prevService := database.DB, payments.Provider, payments.Service
	database.DB = db
	t.Cleanup(func() {
		database.DB, payments.Provider, payments.Service = prevDB, prevProvider, prevService
	})

	app := fiber.New()
	routes.AuthRoutes(app)
	routes.PaymentRoutes(app)
	routes.AdminRoutes(app)
	return app, db
}

func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func seedPending(t *testing.T, db *gorm.DB, id, status string, amount int64) {
	t.Helper()
	o := models.Order{
		ID:            id,
		CustomerName:  "Fatimah",
		CustomerEmail: "fatimah@example.com",
		Total:         decimal.NewFromInt(amount),
		PaymentMethod: models.PaymentMethodManualBCA,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
	}
	if status == models.OrderStatusCompleted {
		o.PaymentStatus = models.PaymentStatusPaid
	}
	if err := o.SetItems([]models.OrderItem{{
		ItemType: models.ItemTypeDonation,
		ItemID:   "camp-1",
		Name:     "Wakaf Al-Quran",
		Price:    decimal.NewFromInt(amount),
		Quantity: 1,
	}}); err != nil {
		t.Fatalf("SetItems: %v", err)
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func statusOf(t *testing.T, db *gorm.DB, id string) string {
	t.Helper()
	var o models.Order
	if err := db.First(&o, "id = ?", id).Error; err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return o.Status
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	app, _ := newTestApp(t)

	if code, _ := doJSON(t, app, http.MethodGet, "/api/v1/admin/manual-payments", "", nil); code != fiber.StatusBadRequest {
		t.Errorf("no token: status = %d", code)
	}
	if code, _ := doJSON(t, app, http.MethodGet, "/api/v1/admin/manual-payments", "garbage.token.here", nil); code != fiber.StatusUnauthorized {
		t.Errorf("bad token: status = %d", code)
	}
	if code, _ := doJSON(t, app, http.MethodGet, "/api/v1/admin/manual-payments", tokenFor(t, "u1", "wali"), nil); code != fiber.StatusForbidden {
		t.Errorf("non-admin: status = %d", code)
	}
}

func TestListManualPaymentsEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	seedPending(t, db, "ORD-1", models.OrderStatusPendingVerification, 10000)
	seedPending(t, db, "ORD-2", models.OrderStatusPendingVerification, 20000)
	seedPending(t, db, "ORD-3", models.OrderStatusCompleted, 30000)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/admin/manual-payments?page=1&limit=1", tokenFor(t, "admin-1", "admin"), nil)
	if code != fiber.StatusOK || body["success"] != true {
		t.Fatalf("status = %d body = %v", code, body)
	}
	list, _ := body["payments"].([]any)
	if len(list) != 1 {
		t.Errorf("payments = %v", body["payments"])
	}
	pagination, _ := body["pagination"].(map[string]any)
	if pagination["totalCount"] != float64(2) || pagination["totalPages"] != float64(2) || pagination["hasNext"] != true || pagination["hasPrev"] != false {
		t.Errorf("pagination = %v", pagination)
	}
}

func TestVerifyManualPaymentEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	token := tokenFor(t, "admin-1", "admin")
	seedPending(t, db, "ORD-1", models.OrderStatusPendingVerification, 10000)

	code, body := doJSON(t, app, http.MethodPut, "/api/v1/admin/manual-payments", token, map[string]any{
		"orderId": "ORD-1", "action": "APPROVE", "adminId": "admin-7", "notes": "ok",
	})
	if code != fiber.StatusOK {
		t.Fatalf("approve: status = %d body = %v", code, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["status"] != models.OrderStatusCompleted || data["paymentStatus"] != models.PaymentStatusPaid || data["verifiedBy"] != "admin-7" {
		t.Errorf("data = %v", data)
	}

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"already verified", map[string]any{"orderId": "ORD-1", "action": "REJECT", "adminId": "a"}, fiber.StatusBadRequest},
		{"not found", map[string]any{"orderId": "ORD-404", "action": "APPROVE", "adminId": "a"}, fiber.StatusNotFound},
		{"missing order id", map[string]any{"action": "APPROVE", "adminId": "a"}, fiber.StatusBadRequest},
		{"invalid action", map[string]any{"orderId": "ORD-1", "action": "MAYBE", "adminId": "a"}, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		code, body := doJSON(t, app, http.MethodPut, "/api/v1/admin/manual-payments", token, tc.body)
		if code != tc.want {
			t.Errorf("%s: status = %d, want %d (%v)", tc.name, code, tc.want, body)
		}
		if body["success"] != false || body["error"] == "" {
			t.Errorf("%s: body = %v", tc.name, body)
		}
	}
	if statusOf(t, db, "ORD-1") != models.OrderStatusCompleted {
		t.Error("second verification changed the order")
	}
}

func TestVerifyManualPaymentDefaultsAdminFromToken(t *testing.T) {
	app, db := newTestApp(t)
	seedPending(t, db, "ORD-1", models.OrderStatusPendingVerification, 10000)

	code, body := doJSON(t, app, http.MethodPut, "/api/v1/admin/manual-payments", tokenFor(t, "admin-from-token", "admin"), map[string]any{
		"orderId": "ORD-1", "action": "REJECT",
	})
	if code != fiber.StatusOK {
		t.Fatalf("status = %d body = %v", code, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["verifiedBy"] != "admin-from-token" {
		t.Errorf("verifiedBy = %v", data["verifiedBy"])
	}
}

func TestBulkVerifyEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	seedPending(t, db, "ord_2", models.OrderStatusPendingVerification, 10000)
	seedPending(t, db, "ord_3", models.OrderStatusCompleted, 10000)

	code, body := doJSON(t, app, http.MethodPost, "/api/v1/admin/manual-payments", tokenFor(t, "a1", "admin"), map[string]any{
		"action": "APPROVE_ALL", "orderIds": []string{"ord_2", "ord_3"}, "adminId": "a1",
	})
	if code != fiber.StatusOK || body["success"] != true {
		t.Fatalf("status = %d body = %v", code, body)
	}
	summary, _ := body["summary"].(map[string]any)
	if summary["total"] != float64(2) || summary["success"] != float64(1) || summary["failed"] != float64(1) {
		t.Errorf("summary = %v", summary)
	}
	results, _ := body["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("results = %v", body["results"])
	}
	second, _ := results[1].(map[string]any)
	if second["orderId"] != "ord_3" || second["success"] != false || second["message"] == "" {
		t.Errorf("results[1] = %v", second)
	}
	if statusOf(t, db, "ord_2") != models.OrderStatusCompleted {
		t.Error("ord_2 not completed")
	}

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/manual-payments", tokenFor(t, "a1", "admin"), map[string]any{
		"action": "APPROVE_ALL", "adminId": "a1",
	})
	if code != fiber.StatusBadRequest {
		t.Errorf("missing orderIds: status = %d", code)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	payments.Service = payments.NewGatewayService(nil, payments.WithEnabled(false))

	item := map[string]any{"itemType": "DONATION", "itemId": "camp-1", "name": "Infaq", "price": "25000", "quantity": 2}

	code, body := doJSON(t, app, http.MethodPost, "/api/v1/payments/checkout", "", map[string]any{
		"customerName": "Aisyah", "paymentMethod": "MANUAL_BSI", "items": []any{item},
	})
	if code != fiber.StatusCreated || body["fallbackToManual"] != false {
		t.Fatalf("manual: status = %d body = %v", code, body)
	}
	data, _ := body["data"].(map[string]any)
	orderID, _ := data["orderId"].(string)
	if statusOf(t, db, orderID) != models.OrderStatusPendingVerification {
		t.Errorf("manual order status = %s", statusOf(t, db, orderID))
	}
	if data["total"] != "50000" {
		t.Errorf("total = %v", data["total"])
	}

	code, body = doJSON(t, app, http.MethodPost, "/api/v1/payments/checkout", "", map[string]any{
		"customerName": "Aisyah", "paymentMethod": "MIDTRANS", "items": []any{item},
	})
	if code != fiber.StatusCreated {
		t.Fatalf("gateway: status = %d body = %v", code, body)
	}
	if body["success"] != true || body["fallbackToManual"] != true || body["status"] != payments.StatusManualTransferRequired {
		t.Errorf("fallback body = %v", body)
	}

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/payments/checkout", "", map[string]any{
		"customerName": "Aisyah", "paymentMethod": "MANUAL_BSI",
	})
	if code != fiber.StatusBadRequest {
		t.Errorf("no items: status = %d", code)
	}
}

func TestProofAndConfirmationEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	seedPending(t, db, "ORD-1", models.OrderStatusPendingVerification, 10000)

	code, body := doJSON(t, app, http.MethodPost, "/api/v1/payments/ORD-1/proof", "", map[string]any{
		"bankAccount": "BSI 7001", "proofFilePath": "tpq_payment_proofs/x.jpg",
	})
	if code != fiber.StatusOK {
		t.Fatalf("proof: status = %d body = %v", code, body)
	}

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/payments/ORD-1/confirmation?refresh=true", "", nil)
	if code != fiber.StatusOK {
		t.Fatalf("confirmation: status = %d body = %v", code, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["statusBucket"] != "awaiting verification" || data["bankAccount"] != "BSI 7001" {
		t.Errorf("confirmation = %v", data)
	}

	if code, _ := doJSON(t, app, http.MethodGet, "/api/v1/payments/ORD-404/confirmation", "", nil); code != fiber.StatusNotFound {
		t.Errorf("missing order: status = %d", code)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app, db := newTestApp(t)
	payments.Provider = payments.NewMidtransGateway("server-key", "http://localhost:8080", false)
	seedPending(t, db, "ORD-G", models.OrderStatusPendingPayment, 50000)

	payload := map[string]any{
		"order_id":           "ORD-G",
		"status_code":        "200",
		"gross_amount":       "50000.00",
		"transaction_status": "settlement",
		"signature_key":      payments.Signature("ORD-G", "200", "50000.00", "wrong-key"),
	}
	code, _ := doJSON(t, app, http.MethodPost, "/api/v1/payments/webhook", "", payload)
	if code != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
	if statusOf(t, db, "ORD-G") != models.OrderStatusPendingPayment {
		t.Error("untrusted webhook changed the order")
	}

	payload["signature_key"] = payments.Signature("ORD-G", "200", "50000.00", "server-key")
	code, body := doJSON(t, app, http.MethodPost, "/api/v1/payments/webhook", "", payload)
	if code != fiber.StatusOK {
		t.Fatalf("valid webhook: status = %d body = %v", code, body)
	}
	if statusOf(t, db, "ORD-G") != models.OrderStatusCompleted {
		t.Error("valid settlement webhook did not complete the order")
	}

	code, body = doJSON(t, app, http.MethodPost, "/api/v1/payments/webhook", "", payload)
	if code != fiber.StatusOK || body["message"] != "Webhook sudah diproses" {
		t.Errorf("replay: status = %d body = %v", code, body)
	}
}
