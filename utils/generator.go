package utils

import (
	"math/rand"
	"time"

	"github.com/anjiri1684/tpq_payments/models"
	"gorm.io/gorm"
)

const orderSuffixLength = 6
const letterBytes = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateUniqueOrderID returns ids shaped ORD-YYYYMMDD-XXXXXX that are not yet in the orders table.
func GenerateUniqueOrderID(tx *gorm.DB, now time.Time) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, orderSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		id := "ORD-" + now.Format("20060102") + "-" + string(b)

		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return id, nil
		}
	}
}

func ReceiptNumber(orderID string) string {
	return "KW-" + orderID
}
