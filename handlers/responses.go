package handlers

import (
	"errors"
	"log"

	"github.com/anjiri1684/tpq_payments/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const msgServerError = "Terjadi kesalahan server"

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": message})
}

// serviceError maps workflow errors onto the HTTP statuses the admin UI expects.
func serviceError(c *fiber.Ctx, err error) error {
	var vErr *services.ValidationError
	var sErr *services.SettlementError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": vErr.Message, "field": vErr.Field})
	case errors.Is(err, services.ErrInvalidAction):
		return badRequest(c, "Aksi tidak valid")
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Pesanan tidak ditemukan"})
	case errors.Is(err, services.ErrOrderAlreadyVerified):
		return badRequest(c, "Pesanan sudah diverifikasi sebelumnya")
	case errors.Is(err, services.ErrAmountMismatch):
		return badRequest(c, "Jumlah pembayaran tidak sesuai dengan total pesanan")
	case errors.As(err, &sErr):
		log.Printf("🔥 Settlement failed for order %s at %s: %v", sErr.OrderID, sErr.Step, sErr.Err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Gagal memproses penyelesaian pembayaran, persetujuan dibatalkan"})
	default:
		log.Printf("🔥 %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": msgServerError})
	}
}

// currentUserID reads the user_id claim when the route sits behind middleware.Protected.
func currentUserID(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	id, _ := claims["user_id"].(string)
	return id
}
