package utils

import (
	"fmt"

	"qart_back_end/internal/models"

	"github.com/skip2/go-qrcode"
)

// ReceiptQR encode la référence du reçu en PNG, scannable au retrait ou au support
func ReceiptQR(receipt *models.Receipt) ([]byte, error) {
	payload := fmt.Sprintf("QART-RECEIPT\n%s\n%s\n%.2f", receipt.ID, receipt.Email, receipt.Total)
	return qrcode.Encode(payload, qrcode.Medium, 256)
}
