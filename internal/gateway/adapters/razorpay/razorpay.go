package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/formpay/formpay/internal/gateway/domain"
	"github.com/formpay/formpay/internal/gateway/rest"
	"github.com/formpay/formpay/internal/money"
)

type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	FeeModel      money.FeeModel
}

type Adapter struct {
	cfg  Config
	rest *rest.Client
	log  *zap.Logger
}

func NewAdapter(cfg Config, client *rest.Client, log *zap.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, domain.ErrInvalidConfig
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	return &Adapter{
		cfg:  cfg,
		rest: client,
		log:  log.Named("gateway.razorpay"),
	}, nil
}

func (a *Adapter) Provider() string { return "razorpay" }

func (a *Adapter) FeeModel() money.FeeModel { return a.cfg.FeeModel }

// VerifyWebhook checks X-Razorpay-Signature: hex HMAC-SHA256 of the raw body
// under the webhook secret.
func (a *Adapter) VerifyWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	secret := strings.TrimSpace(a.cfg.WebhookSecret)
	if secret == "" {
		return domain.ErrInvalidSignature
	}
	signature := strings.TrimSpace(headers.Get("X-Razorpay-Signature"))
	if signature == "" {
		return domain.ErrInvalidSignature
	}

	if !hmac.Equal([]byte(signature), []byte(signHex(secret, payload))) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type webhookEnvelope struct {
	Event     string         `json:"event"`
	CreatedAt int64          `json:"created_at"`
	Payload   webhookPayload `json:"payload"`
}

type webhookPayload struct {
	Payment     *entityWrapper[paymentEntity]     `json:"payment"`
	PaymentLink *entityWrapper[paymentLinkEntity] `json:"payment_link"`
}

type entityWrapper[T any] struct {
	Entity T `json:"entity"`
}

type paymentEntity struct {
	ID        string            `json:"id"`
	OrderID   string            `json:"order_id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Email     string            `json:"email"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

type paymentLinkEntity struct {
	ID          string            `json:"id"`
	ReferenceID string            `json:"reference_id"`
	Status      string            `json:"status"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Notes       map[string]string `json:"notes"`
}

func (a *Adapter) ParseWebhook(ctx context.Context, payload []byte) (*domain.PaymentNotification, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	switch strings.TrimSpace(envelope.Event) {
	case "payment.captured", "payment.failed", "payment_link.paid", "payment_link.cancelled", "payment_link.expired":
	default:
		return nil, domain.ErrEventIgnored
	}

	payment := envelope.Payload.Payment
	link := envelope.Payload.PaymentLink
	if payment == nil && link == nil {
		return nil, domain.ErrInvalidPayload
	}

	notification := &domain.PaymentNotification{
		Provider:   a.Provider(),
		OccurredAt: unixTime(envelope.CreatedAt),
		RawPayload: payload,
	}

	if payment != nil {
		entity := payment.Entity
		notification.ProviderOrderRef = strings.TrimSpace(entity.OrderID)
		notification.PayerEmail = strings.TrimSpace(entity.Email)
		notification.ReportedStatus = normalizeStatus(entity.Status)
		notification.ReportedAmount = paiseToMajor(entity.Amount)
		notification.Currency = strings.ToUpper(strings.TrimSpace(entity.Currency))
		if entity.CreatedAt > 0 {
			notification.OccurredAt = unixTime(entity.CreatedAt)
		}
		appendRef(notification, entity.ID)
		appendRef(notification, entity.Notes["order_id"])
		notification.FormID = strings.TrimSpace(entity.Notes["form_id"])
	}

	if link != nil {
		entity := link.Entity
		if notification.ProviderOrderRef == "" {
			notification.ProviderOrderRef = strings.TrimSpace(entity.ID)
		} else {
			appendRef(notification, entity.ID)
		}
		appendRef(notification, entity.ReferenceID)
		if notification.ReportedStatus == "" {
			notification.ReportedStatus = normalizeStatus(entity.Status)
		}
		if notification.ReportedAmount.IsZero() {
			notification.ReportedAmount = paiseToMajor(entity.Amount)
		}
		if notification.Currency == "" {
			notification.Currency = strings.ToUpper(strings.TrimSpace(entity.Currency))
		}
		if notification.FormID == "" {
			notification.FormID = strings.TrimSpace(entity.Notes["form_id"])
		}
	}

	if notification.ProviderOrderRef == "" && len(notification.SecondaryRefs) == 0 {
		return nil, domain.ErrInvalidPayload
	}
	return notification, nil
}

// ParseRedirect verifies the payment-link callback signature:
// HMAC-SHA256(link_id|reference_id|status|payment_id) under the key secret.
// A valid signature makes the result authoritative.
func (a *Adapter) ParseRedirect(ctx context.Context, query url.Values) (*domain.RedirectResult, error) {
	linkID := strings.TrimSpace(query.Get("razorpay_payment_link_id"))
	referenceID := strings.TrimSpace(query.Get("razorpay_payment_link_reference_id"))
	status := strings.TrimSpace(query.Get("razorpay_payment_link_status"))
	paymentID := strings.TrimSpace(query.Get("razorpay_payment_id"))
	signature := strings.TrimSpace(query.Get("razorpay_signature"))
	if linkID == "" {
		return nil, domain.ErrInvalidPayload
	}

	notification := &domain.PaymentNotification{
		Provider:         a.Provider(),
		ProviderOrderRef: linkID,
		ReportedStatus:   normalizeStatus(status),
		OccurredAt:       time.Now().UTC(),
	}
	appendRef(notification, referenceID)

	if signature == "" {
		// Unsigned hit: advisory only.
		notification.ReportedStatus = domain.StatusPending
		return &domain.RedirectResult{Notification: notification, Authoritative: false}, nil
	}

	signed := strings.Join([]string{linkID, referenceID, status, paymentID}, "|")
	if !hmac.Equal([]byte(signature), []byte(signHex(a.cfg.KeySecret, []byte(signed)))) {
		return nil, domain.ErrInvalidSignature
	}
	return &domain.RedirectResult{Notification: notification, Authoritative: true}, nil
}

type paymentLinkResponse struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ShortURL    string `json:"short_url"`
}

func (a *Adapter) FetchStatus(ctx context.Context, providerOrderRef string) (*domain.PaymentNotification, error) {
	providerOrderRef = strings.TrimSpace(providerOrderRef)
	if providerOrderRef == "" {
		return nil, domain.ErrInvalidPayload
	}

	var resp paymentLinkResponse
	endpoint := fmt.Sprintf("%s/v1/payment_links/%s", strings.TrimRight(a.cfg.BaseURL, "/"), url.PathEscape(providerOrderRef))
	if err := a.rest.DoJSON(ctx, http.MethodGet, endpoint, a.authHeaders(), nil, &resp); err != nil {
		return nil, err
	}

	notification := &domain.PaymentNotification{
		Provider:         a.Provider(),
		ProviderOrderRef: providerOrderRef,
		ReportedStatus:   normalizeStatus(resp.Status),
		ReportedAmount:   paiseToMajor(resp.Amount),
		Currency:         strings.ToUpper(strings.TrimSpace(resp.Currency)),
		OccurredAt:       time.Now().UTC(),
	}
	appendRef(notification, resp.ReferenceID)
	return notification, nil
}

type createLinkRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	ReferenceID    string            `json:"reference_id"`
	Description    string            `json:"description,omitempty"`
	Customer       map[string]string `json:"customer,omitempty"`
	Notes          map[string]string `json:"notes,omitempty"`
	CallbackURL    string            `json:"callback_url,omitempty"`
	CallbackMethod string            `json:"callback_method,omitempty"`
}

func (a *Adapter) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.CheckoutSession, error) {
	body := createLinkRequest{
		Amount:      majorToPaise(req.Amount),
		Currency:    req.Currency,
		ReferenceID: req.OrderID,
		Description: req.ProductName,
		Notes:       map[string]string{"order_id": req.OrderID},
	}
	if req.PayerEmail != "" {
		body.Customer = map[string]string{"email": req.PayerEmail}
	}
	if req.ReturnURL != "" {
		body.CallbackURL = req.ReturnURL
		body.CallbackMethod = "get"
	}

	var resp paymentLinkResponse
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/v1/payment_links"
	if err := a.rest.DoJSON(ctx, http.MethodPost, endpoint, a.authHeaders(), body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.ShortURL == "" {
		return nil, domain.ErrInvalidPayload
	}

	return &domain.CheckoutSession{
		ProviderOrderRef: resp.ID,
		CheckoutURL:      resp.ShortURL,
	}, nil
}

func (a *Adapter) authHeaders() map[string]string {
	credentials := base64.StdEncoding.EncodeToString([]byte(a.cfg.KeyID + ":" + a.cfg.KeySecret))
	return map[string]string{"Authorization": "Basic " + credentials}
}

func signHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeStatus(raw string) domain.ReportedStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "captured", "paid":
		return domain.StatusCaptured
	case "failed", "cancelled", "expired":
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}

func appendRef(notification *domain.PaymentNotification, ref string) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == notification.ProviderOrderRef {
		return
	}
	for _, existing := range notification.SecondaryRefs {
		if existing == ref {
			return
		}
	}
	notification.SecondaryRefs = append(notification.SecondaryRefs, ref)
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}

func paiseToMajor(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-2)
}

func majorToPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
