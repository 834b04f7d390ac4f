package routes

import (
	"github.com/anjiri1684/tpq_payments/handlers"
	"github.com/anjiri1684/tpq_payments/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	manual := admin.Group("/manual-payments")
	manual.Get("", handlers.ListManualPayments)
	manual.Post("", handlers.BulkVerifyManualPayments)
	manual.Put("", handlers.VerifyManualPayment)

	gateway := admin.Group("/payments")
	gateway.Get("/:orderId/gateway-status", handlers.GetGatewayStatus)
	gateway.Post("/:orderId/gateway-cancel", handlers.CancelGatewayTransaction)
}
