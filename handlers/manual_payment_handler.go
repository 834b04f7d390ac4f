package handlers

import (
	"fmt"

	"github.com/anjiri1684/tpq_payments/database"
	"github.com/anjiri1684/tpq_payments/services"
	"github.com/gofiber/fiber/v2"
)

func ListManualPayments(c *fiber.Ctx) error {
	payments, pagination, err := services.ListManualPayments(database.DB, services.ManualPaymentQuery{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"payments":   payments,
		"pagination": pagination,
	})
}

func BulkVerifyManualPayments(c *fiber.Ctx) error {
	var req services.BulkVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Format data tidak valid")
	}
	if req.AdminID == "" {
		req.AdminID = currentUserID(c)
	}

	res, err := services.BulkVerify(database.DB, req)
	if err != nil {
		return serviceError(c, err)
	}

	verb := "disetujui"
	if req.Action == services.ActionRejectAll {
		verb = "ditolak"
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d dari %d pembayaran berhasil %s", res.Summary.Success, res.Summary.Total, verb),
		"results": res.Results,
		"summary": res.Summary,
	})
}

func VerifyManualPayment(c *fiber.Ctx) error {
	var req services.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Format data tidak valid")
	}
	if req.AdminID == "" {
		req.AdminID = currentUserID(c)
	}

	res, err := services.VerifyOrder(database.DB, req)
	if err != nil {
		return serviceError(c, err)
	}

	message := "Pembayaran berhasil disetujui"
	if req.Action == services.ActionReject {
		message = "Pembayaran berhasil ditolak"
	}
	body := fiber.Map{
		"success": true,
		"message": message,
		"data": fiber.Map{
			"orderId":       res.OrderID,
			"status":        res.Status,
			"paymentStatus": res.PaymentStatus,
			"verifiedAt":    res.VerifiedAt,
			"verifiedBy":    res.VerifiedBy,
		},
	}
	if len(res.Warnings) > 0 {
		body["warnings"] = res.Warnings
	}
	return c.JSON(body)
}
