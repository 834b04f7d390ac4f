package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	config "github.com/anjiri1684/tpq_payments/configs"
	"github.com/anjiri1684/tpq_payments/database"
	"github.com/anjiri1684/tpq_payments/models"
	"github.com/anjiri1684/tpq_payments/payments"
	"github.com/anjiri1684/tpq_payments/services"
	"gorm.io/gorm"
)

const (
	reconcileAfter = 10 * time.Minute
	batchSize      = 50
	gatewayTimeout = 20 * time.Second
)

// ReconcileGatewayPayments asks the gateway about orders whose webhook never arrived.
func ReconcileGatewayPayments() {
	log.Println("Running job: ReconcileGatewayPayments...")
	applied := reconcileGatewayOrders(database.DB, payments.Provider, time.Now())
	if applied > 0 {
		log.Printf("✅ Reconciled %d gateway order(s)", applied)
	}
}

// ExpireStaleGatewayPayments cancels hosted-page orders nobody paid in time.
func ExpireStaleGatewayPayments() {
	log.Println("Running job: ExpireStaleGatewayPayments...")
	maxAge := time.Duration(config.ConfigInt("GATEWAY_PENDING_EXPIRY_HOURS", 24)) * time.Hour
	expired := expireGatewayOrders(database.DB, payments.Provider, time.Now(), maxAge)
	if expired > 0 {
		log.Printf("✅ Expired %d stale gateway order(s)", expired)
	}
}

func pendingGatewayOrders(db *gorm.DB, createdBefore time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := db.Select("id", "status", "created_at").
		Where("status = ? AND created_at < ?", models.OrderStatusPendingPayment, createdBefore).
		Order("created_at asc").
		Limit(batchSize).
		Find(&orders).Error
	return orders, err
}

func reconcileGatewayOrders(db *gorm.DB, gw payments.Gateway, now time.Time) int {
	if gw == nil {
		return 0
	}
	orders, err := pendingGatewayOrders(db, now.Add(-reconcileAfter))
	if err != nil {
		log.Printf("Error loading pending gateway orders: %v", err)
		return 0
	}

	applied := 0
	for _, order := range orders {
		ctx, cancel := context.WithTimeout(context.Background(), gatewayTimeout)
		status, err := gw.TransactionStatus(ctx, order.ID)
		cancel()
		if err != nil {
			log.Printf("Error checking gateway status for %s: %v", order.ID, err)
			continue
		}
		if status.DevMode {
			continue
		}

		res, err := services.ApplyGatewayStatus(db, services.GatewayNotification{
			OrderID:           order.ID,
			TransactionStatus: status.TransactionStatus,
			FraudStatus:       status.FraudStatus,
			StatusCode:        status.StatusCode,
			GrossAmount:       status.GrossAmount,
			PaymentType:       status.PaymentType,
			TransactionID:     "reconcile",
		})
		if err != nil {
			if !errors.Is(err, services.ErrOrderAlreadyVerified) {
				log.Printf("🔥 Failed to reconcile order %s: %v", order.ID, err)
			}
			continue
		}
		if res.Applied {
			applied++
		}
	}
	return applied
}

func expireGatewayOrders(db *gorm.DB, gw payments.Gateway, now time.Time, maxAge time.Duration) int {
	orders, err := pendingGatewayOrders(db, now.Add(-maxAge))
	if err != nil {
		log.Printf("Error loading stale gateway orders: %v", err)
		return 0
	}

	expired := 0
	for _, order := range orders {
		if gw != nil {
			ctx, cancel := context.WithTimeout(context.Background(), gatewayTimeout)
			if err := gw.CancelTransaction(ctx, order.ID); err != nil {
				// the gateway usually expires these itself; the local order still has to close
				log.Printf("⚠️ Gateway cancel for stale order %s failed: %v", order.ID, err)
			}
			cancel()
		}

		_, err := services.ApplyGatewayStatus(db, services.GatewayNotification{
			OrderID:           order.ID,
			TransactionStatus: "expire",
			PaymentType:       "job",
			TransactionID:     "expiry",
		})
		if err != nil {
			if !errors.Is(err, services.ErrOrderAlreadyVerified) {
				log.Printf("🔥 Failed to expire order %s: %v", order.ID, err)
			}
			continue
		}
		expired++
	}
	return expired
}
