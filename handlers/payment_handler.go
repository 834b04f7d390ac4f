package handlers

import (
	"errors"
	"log"

	"github.com/anjiri1684/tpq_payments/database"
	"github.com/anjiri1684/tpq_payments/payments"
	"github.com/anjiri1684/tpq_payments/services"
	"github.com/gofiber/fiber/v2"
)

func Checkout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Format data tidak valid")
	}

	res, err := services.Checkout(c.UserContext(), database.DB, payments.Service, req)
	if err != nil {
		return serviceError(c, err)
	}

	body := fiber.Map{
		"success":          true,
		"message":          "Pesanan berhasil dibuat",
		"data":             res,
		"fallbackToManual": res.FallbackToManual,
	}
	if res.FallbackToManual {
		body["message"] = "Gateway pembayaran tidak tersedia, silakan lakukan transfer manual"
		body["status"] = res.GatewayStatus
		body["error"] = res.Error
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

func SubmitPaymentProof(c *fiber.Ctx) error {
	var req services.SubmitProofRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Format data tidak valid")
	}

	order, err := services.SubmitProof(database.DB, c.Params("orderId"), req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Bukti transfer berhasil dikirim, menunggu verifikasi admin",
		"data": fiber.Map{
			"orderId":       order.ID,
			"status":        order.Status,
			"bankAccount":   order.BankAccount,
			"proofFilePath": order.ProofFilePath,
		},
	})
}

func GetPaymentConfirmation(c *fiber.Ctx) error {
	view, err := services.GetConfirmation(c.UserContext(), database.DB, c.Params("orderId"), c.QueryBool("refresh", false))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": view})
}

// HandleGatewayWebhook trusts nothing in the payload until the signature matches.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	var n services.GatewayNotification
	if err := c.BodyParser(&n); err != nil {
		return badRequest(c, "Payload webhook tidak valid")
	}

	if !payments.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, payments.WebhookServerKey(), n.SignatureKey) {
		log.Printf("⚠️ Rejected webhook for order %s: invalid signature", n.OrderID)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Signature tidak valid"})
	}

	res, err := services.ApplyGatewayStatus(database.DB, n)
	if errors.Is(err, services.ErrOrderAlreadyVerified) {
		return c.JSON(fiber.Map{"success": true, "message": "Webhook sudah diproses"})
	}
	if err != nil {
		return serviceError(c, err)
	}

	if res.NeedsReview {
		return c.JSON(fiber.Map{"success": true, "message": "Pembayaran dicatat, menunggu verifikasi admin", "data": res})
	}
	return c.JSON(fiber.Map{"success": true, "message": "Webhook diproses", "data": res})
}

func GetGatewayStatus(c *fiber.Ctx) error {
	if payments.Provider == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": "Gateway pembayaran belum dikonfigurasi"})
	}

	status, err := payments.Provider.TransactionStatus(c.UserContext(), c.Params("orderId"))
	if err != nil {
		log.Printf("🔥 Gateway status lookup for %s failed: %v", c.Params("orderId"), err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "Gagal mengambil status dari gateway pembayaran"})
	}
	return c.JSON(fiber.Map{"success": true, "data": status})
}

// CancelGatewayTransaction cancels at the gateway first, then fails the local order the same way a cancel webhook would.
func CancelGatewayTransaction(c *fiber.Ctx) error {
	if payments.Provider == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": "Gateway pembayaran belum dikonfigurasi"})
	}

	orderID := c.Params("orderId")
	if err := payments.Provider.CancelTransaction(c.UserContext(), orderID); err != nil {
		log.Printf("🔥 Gateway cancel for %s failed: %v", orderID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "Gagal membatalkan transaksi di gateway pembayaran"})
	}

	res, err := services.ApplyGatewayStatus(database.DB, services.GatewayNotification{
		OrderID:           orderID,
		TransactionStatus: "cancel",
		PaymentType:       "admin",
		TransactionID:     currentUserID(c),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Transaksi gateway dibatalkan", "data": res})
}
