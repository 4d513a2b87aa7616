package cashfree

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/formpay/formpay/internal/gateway/domain"
)

const testSecret = "cf_webhook_secret"

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(Config{
		ClientID:      "client",
		ClientSecret:  "secret",
		WebhookSecret: testSecret,
	}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return adapter
}

func sign(t *testing.T, timestamp string, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signedHeaders(t *testing.T, body []byte) http.Header {
	t.Helper()
	headers := http.Header{}
	headers.Set("x-webhook-timestamp", "1724300000")
	headers.Set("x-webhook-signature", sign(t, "1724300000", body))
	return headers
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("decimal %q: %v", raw, err)
	}
	return value
}

func TestVerifyWebhook(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)

	if err := adapter.VerifyWebhook(context.Background(), body, signedHeaders(t, body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyWebhookTamperedBody(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{"data":{"order":{"order_amount":100}}}`)
	headers := signedHeaders(t, body)

	tampered := []byte(`{"data":{"order":{"order_amount":999}}}`)
	if err := adapter.VerifyWebhook(context.Background(), tampered, headers); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyWebhookMissingHeaders(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{}`)

	if err := adapter.VerifyWebhook(context.Background(), body, http.Header{}); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseWebhookOrderShape(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"event_time": "2026-08-20T10:15:00Z",
		"data": {
			"order": {
				"order_id": "cf_order_123",
				"order_amount": 1000.00,
				"order_currency": "INR",
				"order_tags": {"order_id": "local-uuid", "form_id": "form-1"}
			},
			"payment": {
				"payment_status": "SUCCESS",
				"payment_amount": 1000.00,
				"payment_time": "2026-08-20T10:14:58Z"
			},
			"customer_details": {"customer_email": "payer@example.com"}
		}
	}`)

	notification, err := adapter.ParseWebhook(context.Background(), body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if notification.ProviderOrderRef != "cf_order_123" {
		t.Fatalf("primary ref = %q", notification.ProviderOrderRef)
	}
	if notification.ReportedStatus != domain.StatusCaptured {
		t.Fatalf("status = %q, want captured", notification.ReportedStatus)
	}
	if !notification.ReportedAmount.Equal(mustDecimal(t, "1000.00")) {
		t.Fatalf("amount = %s", notification.ReportedAmount)
	}
	if notification.Currency != "INR" {
		t.Fatalf("currency = %q", notification.Currency)
	}
	if notification.PayerEmail != "payer@example.com" {
		t.Fatalf("payer email = %q", notification.PayerEmail)
	}
	if notification.FormID != "form-1" {
		t.Fatalf("form id = %q", notification.FormID)
	}
	if len(notification.SecondaryRefs) != 1 || notification.SecondaryRefs[0] != "local-uuid" {
		t.Fatalf("secondary refs = %v", notification.SecondaryRefs)
	}
}

func TestParseWebhookLinkShape(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{
		"type": "PAYMENT_LINK_EVENT",
		"event_time": "2026-08-20T10:15:00Z",
		"data": {
			"link": {
				"link_id": "local-uuid",
				"cf_link_id": 987654,
				"link_status": "PAID",
				"link_amount": 500.00,
				"link_currency": "INR",
				"link_notes": {"order_id": "local-uuid"}
			}
		}
	}`)

	notification, err := adapter.ParseWebhook(context.Background(), body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if notification.ProviderOrderRef != "987654" {
		t.Fatalf("primary ref = %q", notification.ProviderOrderRef)
	}
	if notification.ReportedStatus != domain.StatusCaptured {
		t.Fatalf("status = %q, want captured", notification.ReportedStatus)
	}
	if len(notification.SecondaryRefs) == 0 || notification.SecondaryRefs[0] != "local-uuid" {
		t.Fatalf("secondary refs = %v", notification.SecondaryRefs)
	}
}

func TestParseWebhookLinkActiveIsPending(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{
		"data": {
			"link": {
				"link_id": "local-uuid",
				"link_status": "ACTIVE",
				"link_amount": 500.00,
				"link_currency": "INR"
			}
		}
	}`)

	notification, err := adapter.ParseWebhook(context.Background(), body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if notification.ReportedStatus != domain.StatusPending {
		t.Fatalf("status = %q, want pending", notification.ReportedStatus)
	}
}

func TestParseWebhookUnknownShapeIgnored(t *testing.T) {
	adapter := newTestAdapter(t)

	if _, err := adapter.ParseWebhook(context.Background(), []byte(`{"type":"REFUND_WEBHOOK","data":{}}`)); !errors.Is(err, domain.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored, got %v", err)
	}
}

func TestParseRedirectIsAdvisory(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.ParseRedirect(context.Background(), url.Values{"order_id": {"local-uuid"}})
	if err != nil {
		t.Fatalf("ParseRedirect: %v", err)
	}
	if result.Authoritative {
		t.Fatal("redirect must not be authoritative")
	}
	if result.Notification.ProviderOrderRef != "local-uuid" {
		t.Fatalf("ref = %q", result.Notification.ProviderOrderRef)
	}
	if result.Notification.ReportedStatus != domain.StatusPending {
		t.Fatalf("status = %q, want pending", result.Notification.ReportedStatus)
	}
}
