package routes

import (
	"github.com/anjiri1684/tpq_payments/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments")
	payments.Post("/checkout", handlers.Checkout)
	payments.Post("/webhook", handlers.HandleGatewayWebhook)
	payments.Get("/proof-upload-signature", handlers.GenerateProofUploadSignature)
	payments.Post("/:orderId/proof", handlers.SubmitPaymentProof)
	payments.Get("/:orderId/confirmation", handlers.GetPaymentConfirmation)
}
