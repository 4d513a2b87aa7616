package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/formpay/formpay/internal/config"
)

type SMTPProvider struct {
	cfg config.EmailConfig
}

func NewSMTP(cfg config.EmailConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	auth := smtp.PlainAuth("", p.cfg.SMTPUsername, p.cfg.SMTPPassword, p.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", p.cfg.SMTPHost, p.cfg.SMTPPort)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to[0], subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, p.cfg.SMTPFrom, to, msg)
}

var confirmationTmpl = template.Must(template.New("payment_confirmation").Parse(`
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Payment received</h2>
    <p>Thanks for your payment for <strong>{{.ProductName}}</strong>.</p>
    <table cellpadding="4">
      <tr><td>Amount</td><td><strong>{{.Amount}} {{.Currency}}</strong></td></tr>
      <tr><td>Reference</td><td>{{.OrderID}}</td></tr>
    </table>
    <p>Keep this email as your receipt.</p>
  </body>
</html>
`))

func (p *SMTPProvider) SendPaymentConfirmation(ctx context.Context, data PaymentConfirmation) error {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render confirmation template: %w", err)
	}
	subject := fmt.Sprintf("Payment received for %s", data.ProductName)
	return p.Send(ctx, []string{data.To}, subject, body.String())
}
