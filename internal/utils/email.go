package utils

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"qart_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

const receiptQRName = "receipt-qr.png"

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer envoie les e-mails transactionnels via SMTP. Sans hôte configuré, les envois sont seulement journalisés.
type Mailer struct {
	cfg MailConfig
}

func NewMailer(cfg MailConfig) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// SendReceipt envoie le reçu de checkout avec son QR code embarqué
func (m *Mailer) SendReceipt(ctx context.Context, user *models.User, receipt *models.Receipt) error {
	msg, err := BuildReceiptMessage(m.cfg.From, user, receipt)
	if err != nil {
		return err
	}
	return m.send(ctx, user.Email, msg)
}

func (m *Mailer) SendWelcome(ctx context.Context, user *models.User) error {
	msg, err := BuildWelcomeMessage(m.cfg.From, user)
	if err != nil {
		return err
	}
	return m.send(ctx, user.Email, msg)
}

func (m *Mailer) send(ctx context.Context, to string, msg *mail.Msg) error {
	if !m.Enabled() {
		log.Println("⚠️ SMTP non configuré, e-mail non envoyé à", to)
		return nil
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSendWithContext(ctx, msg)
}

func BuildReceiptMessage(from string, user *models.User, receipt *models.Receipt) (*mail.Msg, error) {
	msg, err := newMessage(from, user.Email, "Your Qart order receipt")
	if err != nil {
		return nil, err
	}

	qr, err := ReceiptQR(receipt)
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %w", err)
	}
	if err := msg.EmbedReader(receiptQRName, bytes.NewReader(qr)); err != nil {
		return nil, err
	}

	msg.SetBodyString(mail.TypeTextHTML, receiptHTML(user, receipt))
	return msg, nil
}

func BuildWelcomeMessage(from string, user *models.User) (*mail.Msg, error) {
	msg, err := newMessage(from, user.Email, "Welcome to Qart")
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h1>Welcome %s!</h1>
	<p>Your wallet has been credited with %.2f to get you started.</p>
	<p>Set your delivery address before your first checkout.</p>
</body>
</html>`, html.EscapeString(user.Name), user.WalletMoney))
	return msg, nil
}

func newMessage(from, to, subject string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	return msg, nil
}

func receiptHTML(user *models.User, receipt *models.Receipt) string {
	var rows strings.Builder
	for _, item := range receipt.Items {
		fmt.Fprintf(&rows, `
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f</td>
				<td>%.2f</td>
			</tr>`, html.EscapeString(item.Product.Name), item.Quantity, item.Product.Cost, item.Product.Cost*float64(item.Quantity))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2>Thanks for your order, %s</h2>
		<p>Receipt <strong>%s</strong></p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr><th>Product</th><th>Quantity</th><th>Unit cost</th><th>Total</th></tr>
			</thead>
			<tbody>%s
			</tbody>
			<tfoot>
				<tr><td colspan="3" style="text-align: right; font-weight: bold;">Total:</td><td>%.2f</td></tr>
			</tfoot>
		</table>
		<p>Remaining wallet balance: %.2f</p>
		<p>Delivered to: %s</p>
		<img src="cid:%s" alt="receipt QR code" width="160" height="160">
	</div>
</body>
</html>`, html.EscapeString(user.Name), receipt.ID, rows.String(), receipt.Total, receipt.Balance,
		html.EscapeString(user.Address), receiptQRName)
}
