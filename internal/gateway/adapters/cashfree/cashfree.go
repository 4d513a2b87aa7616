package cashfree

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
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

const apiVersion = "2023-08-01"

type Config struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	FeeModel      money.FeeModel
}

type Adapter struct {
	cfg  Config
	rest *rest.Client
	log  *zap.Logger
}

func NewAdapter(cfg Config, client *rest.Client, log *zap.Logger) (*Adapter, error) {
	cfg.WebhookSecret = strings.TrimSpace(cfg.WebhookSecret)
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, domain.ErrInvalidConfig
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cashfree.com"
	}
	return &Adapter{
		cfg:  cfg,
		rest: client,
		log:  log.Named("gateway.cashfree"),
	}, nil
}

func (a *Adapter) Provider() string { return "cashfree" }

func (a *Adapter) FeeModel() money.FeeModel { return a.cfg.FeeModel }

// VerifyWebhook checks the x-webhook-signature header: base64 of
// HMAC-SHA256(timestamp + rawBody) under the webhook secret.
func (a *Adapter) VerifyWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if a.cfg.WebhookSecret == "" {
		return domain.ErrInvalidSignature
	}
	signature := strings.TrimSpace(headers.Get("x-webhook-signature"))
	timestamp := strings.TrimSpace(headers.Get("x-webhook-timestamp"))
	if signature == "" || timestamp == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.cfg.WebhookSecret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type webhookEnvelope struct {
	Type      string      `json:"type"`
	EventTime string      `json:"event_time"`
	Data      webhookData `json:"data"`
}

type webhookData struct {
	Order    *webhookOrder    `json:"order"`
	Payment  *webhookPayment  `json:"payment"`
	Link     *webhookLink     `json:"link"`
	Customer *webhookCustomer `json:"customer_details"`
}

type webhookOrder struct {
	OrderID       string          `json:"order_id"`
	OrderAmount   decimal.Decimal `json:"order_amount"`
	OrderCurrency string          `json:"order_currency"`
	OrderTags     map[string]any  `json:"order_tags"`
}

type webhookPayment struct {
	PaymentStatus string          `json:"payment_status"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentTime   string          `json:"payment_time"`
}

type webhookLink struct {
	LinkID       string          `json:"link_id"`
	CfLinkID     json.Number     `json:"cf_link_id"`
	LinkStatus   string          `json:"link_status"`
	LinkAmount   decimal.Decimal `json:"link_amount"`
	LinkCurrency string          `json:"link_currency"`
	LinkNotes    map[string]any  `json:"link_notes"`
}

type webhookCustomer struct {
	CustomerEmail string `json:"customer_email"`
}

func (a *Adapter) ParseWebhook(ctx context.Context, payload []byte) (*domain.PaymentNotification, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	switch {
	case envelope.Data.Order != nil && envelope.Data.Payment != nil:
		return a.parseOrderWebhook(envelope, payload)
	case envelope.Data.Link != nil:
		return a.parseLinkWebhook(envelope, payload)
	default:
		return nil, domain.ErrEventIgnored
	}
}

func (a *Adapter) parseOrderWebhook(envelope webhookEnvelope, payload []byte) (*domain.PaymentNotification, error) {
	order := envelope.Data.Order
	payment := envelope.Data.Payment
	if strings.TrimSpace(order.OrderID) == "" {
		return nil, domain.ErrInvalidPayload
	}

	amount := payment.PaymentAmount
	if amount.IsZero() {
		amount = order.OrderAmount
	}

	notification := &domain.PaymentNotification{
		Provider:         a.Provider(),
		ProviderOrderRef: strings.TrimSpace(order.OrderID),
		ReportedStatus:   normalizeStatus(payment.PaymentStatus),
		ReportedAmount:   amount,
		Currency:         strings.ToUpper(strings.TrimSpace(order.OrderCurrency)),
		OccurredAt:       parseEventTime(payment.PaymentTime, envelope.EventTime),
		RawPayload:       payload,
	}
	if envelope.Data.Customer != nil {
		notification.PayerEmail = strings.TrimSpace(envelope.Data.Customer.CustomerEmail)
	}
	if formID := readTag(order.OrderTags, "form_id"); formID != "" {
		notification.FormID = formID
	}
	if localID := readTag(order.OrderTags, "order_id"); localID != "" {
		notification.SecondaryRefs = append(notification.SecondaryRefs, localID)
	}
	return notification, nil
}

func (a *Adapter) parseLinkWebhook(envelope webhookEnvelope, payload []byte) (*domain.PaymentNotification, error) {
	link := envelope.Data.Link
	if strings.TrimSpace(link.LinkID) == "" {
		return nil, domain.ErrInvalidPayload
	}

	notification := &domain.PaymentNotification{
		Provider:         a.Provider(),
		ProviderOrderRef: link.CfLinkID.String(),
		SecondaryRefs:    []string{strings.TrimSpace(link.LinkID)},
		ReportedStatus:   normalizeStatus(link.LinkStatus),
		ReportedAmount:   link.LinkAmount,
		Currency:         strings.ToUpper(strings.TrimSpace(link.LinkCurrency)),
		OccurredAt:       parseEventTime("", envelope.EventTime),
		RawPayload:       payload,
	}
	if envelope.Data.Customer != nil {
		notification.PayerEmail = strings.TrimSpace(envelope.Data.Customer.CustomerEmail)
	}
	if formID := readTag(link.LinkNotes, "form_id"); formID != "" {
		notification.FormID = formID
	}
	if localID := readTag(link.LinkNotes, "order_id"); localID != "" {
		notification.SecondaryRefs = append(notification.SecondaryRefs, localID)
	}
	return notification, nil
}

// ParseRedirect handles the return_url hit. Cashfree does not sign redirect
// parameters, so the result is never authoritative: the caller must re-fetch
// the order status before committing anything.
func (a *Adapter) ParseRedirect(ctx context.Context, query url.Values) (*domain.RedirectResult, error) {
	ref := strings.TrimSpace(query.Get("order_id"))
	if ref == "" {
		ref = strings.TrimSpace(query.Get("link_id"))
	}
	if ref == "" {
		return nil, domain.ErrInvalidPayload
	}

	return &domain.RedirectResult{
		Notification: &domain.PaymentNotification{
			Provider:         a.Provider(),
			ProviderOrderRef: ref,
			ReportedStatus:   domain.StatusPending,
			OccurredAt:       time.Now().UTC(),
		},
		Authoritative: false,
	}, nil
}

type linkStatusResponse struct {
	CfLinkID     json.Number     `json:"cf_link_id"`
	LinkID       string          `json:"link_id"`
	LinkStatus   string          `json:"link_status"`
	LinkAmount   decimal.Decimal `json:"link_amount"`
	LinkCurrency string          `json:"link_currency"`
	CustomerInfo struct {
		CustomerEmail string `json:"customer_email"`
	} `json:"customer_details"`
}

// FetchStatus queries the payment link by its caller-assigned link_id, which
// is the local order id used when the link was created.
func (a *Adapter) FetchStatus(ctx context.Context, providerOrderRef string) (*domain.PaymentNotification, error) {
	providerOrderRef = strings.TrimSpace(providerOrderRef)
	if providerOrderRef == "" {
		return nil, domain.ErrInvalidPayload
	}

	var resp linkStatusResponse
	endpoint := fmt.Sprintf("%s/pg/links/%s", strings.TrimRight(a.cfg.BaseURL, "/"), url.PathEscape(providerOrderRef))
	if err := a.rest.DoJSON(ctx, http.MethodGet, endpoint, a.authHeaders(), nil, &resp); err != nil {
		return nil, err
	}

	primaryRef := resp.CfLinkID.String()
	if primaryRef == "" || primaryRef == "0" {
		primaryRef = providerOrderRef
	}
	notification := &domain.PaymentNotification{
		Provider:         a.Provider(),
		ProviderOrderRef: primaryRef,
		PayerEmail:       strings.TrimSpace(resp.CustomerInfo.CustomerEmail),
		ReportedStatus:   normalizeStatus(resp.LinkStatus),
		ReportedAmount:   resp.LinkAmount,
		Currency:         strings.ToUpper(strings.TrimSpace(resp.LinkCurrency)),
		OccurredAt:       time.Now().UTC(),
	}
	if linkID := strings.TrimSpace(resp.LinkID); linkID != "" {
		notification.SecondaryRefs = append(notification.SecondaryRefs, linkID)
	}
	return notification, nil
}

type createLinkRequest struct {
	LinkID          string          `json:"link_id"`
	LinkAmount      decimal.Decimal `json:"link_amount"`
	LinkCurrency    string          `json:"link_currency"`
	LinkPurpose     string          `json:"link_purpose"`
	CustomerDetails struct {
		CustomerEmail string `json:"customer_email"`
	} `json:"customer_details"`
	LinkNotes map[string]string `json:"link_notes,omitempty"`
	LinkMeta  struct {
		ReturnURL string `json:"return_url,omitempty"`
	} `json:"link_meta"`
}

type createLinkResponse struct {
	CfLinkID json.Number `json:"cf_link_id"`
	LinkID   string      `json:"link_id"`
	LinkURL  string      `json:"link_url"`
}

func (a *Adapter) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.CheckoutSession, error) {
	body := createLinkRequest{
		LinkID:       req.OrderID,
		LinkAmount:   req.Amount,
		LinkCurrency: req.Currency,
		LinkPurpose:  req.ProductName,
		LinkNotes:    map[string]string{"order_id": req.OrderID},
	}
	body.CustomerDetails.CustomerEmail = req.PayerEmail
	body.LinkMeta.ReturnURL = req.ReturnURL

	var resp createLinkResponse
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/pg/links"
	if err := a.rest.DoJSON(ctx, http.MethodPost, endpoint, a.authHeaders(), body, &resp); err != nil {
		return nil, err
	}
	if resp.LinkURL == "" {
		return nil, domain.ErrInvalidPayload
	}

	ref := resp.CfLinkID.String()
	if ref == "" || ref == "0" {
		ref = resp.LinkID
	}
	return &domain.CheckoutSession{
		ProviderOrderRef: ref,
		CheckoutURL:      resp.LinkURL,
	}, nil
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{
		"x-client-id":     a.cfg.ClientID,
		"x-client-secret": a.cfg.ClientSecret,
		"x-api-version":   apiVersion,
	}
}

func normalizeStatus(raw string) domain.ReportedStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "PAID":
		return domain.StatusCaptured
	case "FAILED", "USER_DROPPED", "CANCELLED", "EXPIRED", "VOID":
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}

func parseEventTime(primary string, fallback string) time.Time {
	for _, raw := range []string{primary, fallback} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Now().UTC()
}

func readTag(tags map[string]any, key string) string {
	if tags == nil {
		return ""
	}
	value, ok := tags[key]
	if !ok {
		return ""
	}
	if cast, ok := value.(string); ok {
		return strings.TrimSpace(cast)
	}
	return ""
}
