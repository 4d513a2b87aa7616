package razorpay

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"go.uber.org/zap"

	"github.com/formpay/formpay/internal/gateway/domain"
)

const (
	testKeySecret     = "rzp_key_secret"
	testWebhookSecret = "rzp_webhook_secret"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(Config{
		KeyID:         "rzp_test_key",
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
	}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return adapter
}

func signedHeaders(body []byte) http.Header {
	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", signHex(testWebhookSecret, body))
	return headers
}

func TestVerifyWebhook(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{"event":"payment.captured"}`)

	if err := adapter.VerifyWebhook(context.Background(), body, signedHeaders(body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyWebhookTamperedBody(t *testing.T) {
	adapter := newTestAdapter(t)
	headers := signedHeaders([]byte(`{"event":"payment.captured","amount":100}`))

	tampered := []byte(`{"event":"payment.captured","amount":999}`)
	if err := adapter.VerifyWebhook(context.Background(), tampered, headers); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseWebhookPaymentCaptured(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{
		"event": "payment.captured",
		"created_at": 1755684900,
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_abc",
					"order_id": "order_xyz",
					"amount": 100000,
					"currency": "INR",
					"status": "captured",
					"email": "payer@example.com",
					"notes": {"order_id": "local-uuid", "form_id": "form-1"}
				}
			}
		}
	}`)

	notification, err := adapter.ParseWebhook(context.Background(), body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if notification.ProviderOrderRef != "order_xyz" {
		t.Fatalf("primary ref = %q", notification.ProviderOrderRef)
	}
	if notification.ReportedStatus != domain.StatusCaptured {
		t.Fatalf("status = %q, want captured", notification.ReportedStatus)
	}
	if notification.ReportedAmount.String() != "1000" {
		t.Fatalf("amount = %s, want 1000", notification.ReportedAmount)
	}
	if notification.FormID != "form-1" {
		t.Fatalf("form id = %q", notification.FormID)
	}
	want := map[string]bool{"pay_abc": true, "local-uuid": true}
	if len(notification.SecondaryRefs) != len(want) {
		t.Fatalf("secondary refs = %v", notification.SecondaryRefs)
	}
	for _, ref := range notification.SecondaryRefs {
		if !want[ref] {
			t.Fatalf("unexpected secondary ref %q", ref)
		}
	}
}

func TestParseWebhookPaymentLinkPaid(t *testing.T) {
	adapter := newTestAdapter(t)
	body := []byte(`{
		"event": "payment_link.paid",
		"created_at": 1755684900,
		"payload": {
			"payment_link": {
				"entity": {
					"id": "plink_123",
					"reference_id": "local-uuid",
					"status": "paid",
					"amount": 50000,
					"currency": "INR",
					"notes": {"form_id": "form-2"}
				}
			}
		}
	}`)

	notification, err := adapter.ParseWebhook(context.Background(), body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if notification.ProviderOrderRef != "plink_123" {
		t.Fatalf("primary ref = %q", notification.ProviderOrderRef)
	}
	if notification.ReportedStatus != domain.StatusCaptured {
		t.Fatalf("status = %q, want captured", notification.ReportedStatus)
	}
	if len(notification.SecondaryRefs) != 1 || notification.SecondaryRefs[0] != "local-uuid" {
		t.Fatalf("secondary refs = %v", notification.SecondaryRefs)
	}
}

func TestParseWebhookUninterestingEventIgnored(t *testing.T) {
	adapter := newTestAdapter(t)

	if _, err := adapter.ParseWebhook(context.Background(), []byte(`{"event":"payment.authorized","payload":{}}`)); !errors.Is(err, domain.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored, got %v", err)
	}
}

func redirectQuery(linkID, referenceID, status, paymentID string) url.Values {
	return url.Values{
		"razorpay_payment_link_id":           {linkID},
		"razorpay_payment_link_reference_id": {referenceID},
		"razorpay_payment_link_status":       {status},
		"razorpay_payment_id":                {paymentID},
	}
}

func TestParseRedirectSignedIsAuthoritative(t *testing.T) {
	adapter := newTestAdapter(t)

	query := redirectQuery("plink_123", "local-uuid", "paid", "pay_abc")
	signed := "plink_123|local-uuid|paid|pay_abc"
	query.Set("razorpay_signature", signHex(testKeySecret, []byte(signed)))

	result, err := adapter.ParseRedirect(context.Background(), query)
	if err != nil {
		t.Fatalf("ParseRedirect: %v", err)
	}
	if !result.Authoritative {
		t.Fatal("signed redirect must be authoritative")
	}
	if result.Notification.ReportedStatus != domain.StatusCaptured {
		t.Fatalf("status = %q, want captured", result.Notification.ReportedStatus)
	}
}

func TestParseRedirectBadSignature(t *testing.T) {
	adapter := newTestAdapter(t)

	query := redirectQuery("plink_123", "local-uuid", "paid", "pay_abc")
	query.Set("razorpay_signature", signHex(testKeySecret, []byte("plink_123|local-uuid|failed|pay_abc")))

	if _, err := adapter.ParseRedirect(context.Background(), query); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseRedirectUnsignedIsAdvisory(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.ParseRedirect(context.Background(), redirectQuery("plink_123", "local-uuid", "paid", ""))
	if err != nil {
		t.Fatalf("ParseRedirect: %v", err)
	}
	if result.Authoritative {
		t.Fatal("unsigned redirect must not be authoritative")
	}
	if result.Notification.ReportedStatus != domain.StatusPending {
		t.Fatalf("status = %q, want pending", result.Notification.ReportedStatus)
	}
}
