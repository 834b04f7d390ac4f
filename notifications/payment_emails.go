package notifications

import (
	"fmt"
	"html"

	"github.com/shopspring/decimal"
)

func PaymentApprovedEmail(orderID string, total decimal.Decimal) (string, string) {
	subject := fmt.Sprintf("Pembayaran %s Telah Diverifikasi", orderID)
	body := fmt.Sprintf(
		"<h1>Pembayaran Berhasil</h1><p>Assalamu'alaikum,</p><p>Pembayaran Anda untuk pesanan <b>%s</b> sebesar <b>Rp %s</b> telah diverifikasi oleh admin. Jazakumullahu khairan.</p>",
		html.EscapeString(orderID), total.StringFixedBank(0),
	)
	return subject, body
}

func PaymentRejectedEmail(orderID, notes string) (string, string) {
	subject := fmt.Sprintf("Pembayaran %s Ditolak", orderID)
	reason := "Bukti transfer tidak dapat diverifikasi."
	if notes != "" {
		reason = notes
	}
	body := fmt.Sprintf(
		"<h1>Pembayaran Ditolak</h1><p>Assalamu'alaikum,</p><p>Mohon maaf, pembayaran untuk pesanan <b>%s</b> tidak dapat kami verifikasi.</p><p><b>Catatan admin:</b> %s</p>",
		html.EscapeString(orderID), html.EscapeString(reason),
	)
	return subject, body
}
