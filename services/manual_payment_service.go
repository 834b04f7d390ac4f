package services

import (
	"math"
	"strings"
	"time"

	"github.com/anjiri1684/tpq_payments/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	StatusFilterAll  = "ALL"
)

var manualMethods = []string{
	models.PaymentMethodManualTransfer,
	models.PaymentMethodManualBCA,
	models.PaymentMethodManualBSI,
	models.PaymentMethodManualMandiri,
}

type ManualPaymentQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

type ManualPayment struct {
	ID            string                   `json:"id"`
	OrderID       string                   `json:"orderId"`
	CustomerName  string                   `json:"customerName"`
	CustomerEmail string                   `json:"customerEmail"`
	CustomerPhone string                   `json:"customerPhone"`
	Amount        decimal.Decimal          `json:"amount"`
	PaymentMethod string                   `json:"paymentMethod"`
	Status        string                   `json:"status"`
	PaymentStatus string                   `json:"paymentStatus"`
	ProofFilePath *string                  `json:"proofFilePath"`
	BankAccount   *string                  `json:"bankAccount"`
	Items         []models.OrderItem       `json:"items"`
	CreatedAt     time.Time                `json:"createdAt"`
	PaidAt        *time.Time               `json:"paidAt"`
	Metadata      []models.OrderAuditEvent `json:"metadata"`
}

func (q *ManualPaymentQuery) normalize() {
	q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
	if q.Status == "" {
		q.Status = models.OrderStatusPendingVerification
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	q.Search = strings.TrimSpace(q.Search)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ListManualPayments pages through manually paid orders, newest first.
func ListManualPayments(db *gorm.DB, q ManualPaymentQuery) ([]ManualPayment, Pagination, error) {
	q.normalize()

	base := db.Model(&models.Order{}).Where("payment_method IN ?", manualMethods)
	if q.Status != StatusFilterAll {
		base = base.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		like := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		base = base.Where(`(LOWER(customer_name) LIKE ? ESCAPE '\' OR LOWER(customer_email) LIKE ? ESCAPE '\' OR LOWER(id) LIKE ? ESCAPE '\')`, like, like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var orders []models.Order
	err := base.Session(&gorm.Session{}).
		Preload("AuditEvents", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at asc") }).
		Order("created_at desc").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	out := make([]ManualPayment, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		items, err := o.ParseItems()
		if err != nil {
			return nil, Pagination{}, err
		}
		out = append(out, ManualPayment{
			ID:            o.ID,
			OrderID:       o.ID,
			CustomerName:  o.CustomerName,
			CustomerEmail: o.CustomerEmail,
			CustomerPhone: o.CustomerPhone,
			Amount:        o.Total,
			PaymentMethod: o.PaymentMethod,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			ProofFilePath: o.ProofFilePath,
			BankAccount:   o.BankAccount,
			Items:         items,
			CreatedAt:     o.CreatedAt,
			PaidAt:        o.PaidAt,
			Metadata:      o.AuditEvents,
		})
	}

	totalPages := int(math.Ceil(float64(total) / float64(q.Limit)))
	return out, Pagination{
		Page:       q.Page,
		Limit:      q.Limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1,
	}, nil
}
