package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/tpq_payments/models"
	"github.com/anjiri1684/tpq_payments/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ledgerCategoryPayment = "PEMBAYARAN_TPQ"

// settleOrder applies the downstream effects of an approved order: SPP records are marked paid,
// donations confirmed and one income entry is posted to the default cash account.
// Missing downstream rows become warnings; database failures abort the whole approval.
func settleOrder(tx *gorm.DB, order *models.Order, actorID string, now time.Time) ([]string, error) {
	items, err := order.ParseItems()
	if err != nil {
		return nil, &SettlementError{OrderID: order.ID, Step: "parse_items", Err: err}
	}

	var warnings []string
	donationsDone := false
	for _, item := range items {
		switch item.ItemType {
		case models.ItemTypeSPP:
			w, err := settleSppItem(tx, order, item, now)
			if err != nil {
				return nil, &SettlementError{OrderID: order.ID, Step: "spp", Err: err}
			}
			warnings = append(warnings, w...)
		case models.ItemTypeDonation:
			if donationsDone {
				continue
			}
			donationsDone = true
			w, err := confirmDonations(tx, order, now)
			if err != nil {
				return nil, &SettlementError{OrderID: order.ID, Step: "donation", Err: err}
			}
			warnings = append(warnings, w...)
		default:
			warnings = append(warnings, fmt.Sprintf("Jenis item %q tidak dikenal, dilewati", item.ItemType))
		}
	}

	w, err := postIncome(tx, order, actorID, now)
	if err != nil {
		return nil, &SettlementError{OrderID: order.ID, Step: "ledger", Err: err}
	}
	return append(warnings, w...), nil
}

func settleSppItem(tx *gorm.DB, order *models.Order, item models.OrderItem, now time.Time) ([]string, error) {
	record, err := findSppRecord(tx, item, models.SppStatusPendingVerification)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{fmt.Sprintf("Tagihan SPP santri %s periode %s tidak ditemukan", item.Metadata.StudentID, item.Metadata.Period)}, nil
	}
	if err != nil {
		return nil, err
	}

	res := tx.Model(&models.SppRecord{}).
		Where("id = ? AND status = ?", record.ID, models.SppStatusPendingVerification).
		Updates(map[string]any{
			"status":         models.SppStatusPaid,
			"paid_amount":    item.Subtotal(),
			"receipt_number": utils.ReceiptNumber(order.ID),
			"paid_at":        now,
			"updated_at":     now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return []string{fmt.Sprintf("Tagihan SPP %s sudah diproses sebelumnya", record.ID)}, nil
	}
	return nil, nil
}

// findSppRecord matches by record id when the item carries one, otherwise by student and period.
func findSppRecord(tx *gorm.DB, item models.OrderItem, status string) (*models.SppRecord, error) {
	var record models.SppRecord
	q := tx.Where("status = ?", status)
	if id, err := uuid.Parse(item.ItemID); err == nil {
		q = q.Where("id = ?", id)
	} else {
		if item.Metadata.StudentID == "" {
			return nil, gorm.ErrRecordNotFound
		}
		q = q.Where("student_id = ?", item.Metadata.StudentID)
		if item.Metadata.Period != "" {
			q = q.Where("period = ?", item.Metadata.Period)
		}
	}
	if err := q.Order("period asc").First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func confirmDonations(tx *gorm.DB, order *models.Order, now time.Time) ([]string, error) {
	res := tx.Model(&models.Donation{}).
		Where("reference = ? AND status = ?", order.ID, models.DonationStatusPendingVerification).
		Updates(map[string]any{
			"status":       models.DonationStatusConfirmed,
			"confirmed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return []string{fmt.Sprintf("Donasi untuk pesanan %s tidak ditemukan", order.ID)}, nil
	}
	return nil, nil
}

// releaseOrder undoes the checkout reservation of a rejected or failed order so its SPP bills
// can be paid again. Donation pledges of the order are cancelled.
func releaseOrder(tx *gorm.DB, order *models.Order, now time.Time) error {
	items, err := order.ParseItems()
	if err != nil {
		return err
	}

	donations := false
	for _, item := range items {
		switch item.ItemType {
		case models.ItemTypeSPP:
			record, err := findSppRecord(tx, item, models.SppStatusPendingVerification)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.Model(&models.SppRecord{}).
				Where("id = ? AND status = ?", record.ID, models.SppStatusPendingVerification).
				Updates(map[string]any{"status": models.SppStatusUnpaid, "updated_at": now}).Error; err != nil {
				return err
			}
		case models.ItemTypeDonation:
			donations = true
		}
	}
	if !donations {
		return nil
	}

	return tx.Model(&models.Donation{}).
		Where("reference = ? AND status = ?", order.ID, models.DonationStatusPendingVerification).
		Updates(map[string]any{"status": models.DonationStatusCancelled, "updated_at": now}).Error
}

func postIncome(tx *gorm.DB, order *models.Order, actorID string, now time.Time) ([]string, error) {
	var account models.FinancialAccount
	err := tx.Where("type = ? AND is_default = ?", models.AccountTypeCash, true).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{"Akun kas default tidak ditemukan, pencatatan kas dilewati"}, nil
	}
	if err != nil {
		return nil, err
	}

	entry := models.Transaction{
		AccountID:       account.ID,
		Type:            models.TransactionTypeIncome,
		Amount:          order.Total,
		Category:        ledgerCategoryPayment,
		Description:     fmt.Sprintf("Pembayaran pesanan %s a.n. %s", order.ID, order.CustomerName),
		Reference:       order.ID,
		CreatedBy:       actorID,
		TransactionDate: now,
	}
	if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
		return nil, err
	}

	return nil, tx.Model(&models.FinancialAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", order.Total),
			"updated_at": now,
		}).Error
}
