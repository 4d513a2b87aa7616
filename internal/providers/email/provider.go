package email

import "context"

// PaymentConfirmation is the template data for the post-settlement email.
type PaymentConfirmation struct {
	To          string
	OrderID     string
	ProductName string
	Amount      string
	Currency    string
}

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendPaymentConfirmation(ctx context.Context, data PaymentConfirmation) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (p *NoOpProvider) SendPaymentConfirmation(ctx context.Context, data PaymentConfirmation) error {
	return nil
}
