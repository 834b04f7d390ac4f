package main

import (
	"log"
	"time"

	"github.com/anjiri1684/tpq_payments/cache"
	config "github.com/anjiri1684/tpq_payments/configs"
	"github.com/anjiri1684/tpq_payments/database"
	"github.com/anjiri1684/tpq_payments/events"
	"github.com/anjiri1684/tpq_payments/jobs"
	"github.com/anjiri1684/tpq_payments/notifications"
	"github.com/anjiri1684/tpq_payments/payments"
	"github.com/anjiri1684/tpq_payments/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	if err := database.SeedDefaultCashAccount(database.DB); err != nil {
		log.Fatalf("🔥 Failed to seed default cash account: %v", err)
	}

	cache.ConnectRedis()
	events.InitProducer()
	notifications.InitEmailService()
	payments.InitGateway()

	c := cron.New()
	c.AddFunc("*/5 * * * *", jobs.ReconcileGatewayPayments)
	c.AddFunc("*/5 * * * *", jobs.ExpireStaleGatewayPayments)
	go c.Start()
	log.Println("✅ Cron jobs for gateway reconciliation scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "TPQ Payments",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Terjadi kesalahan server"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  config.ConfigDefault("CORS_ALLOW_ORIGINS", "*"),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "TPQ Payments API",
		})
	})

	routes.AuthRoutes(app)
	routes.PaymentRoutes(app)
	routes.AdminRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigDefault("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
