package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/formpay/formpay/internal/config"
	"github.com/formpay/formpay/internal/gateway/adapters"
	gatewaydomain "github.com/formpay/formpay/internal/gateway/domain"
	"github.com/formpay/formpay/internal/money"
	obsmetrics "github.com/formpay/formpay/internal/observability/metrics"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
	"github.com/formpay/formpay/internal/providers/email"
	"github.com/formpay/formpay/internal/reconcile/domain"
	settlementdomain "github.com/formpay/formpay/internal/settlement/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Adapters *adapters.Registry
	Orders   orderdomain.Repository
	Ledger   settlementdomain.Service
	Mailer   email.Provider
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	adapters *adapters.Registry
	orders   orderdomain.Repository
	ledger   settlementdomain.Service
	mailer   email.Provider
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reconcile.service"),
		cfg:      p.Cfg,
		adapters: p.Adapters,
		orders:   p.Orders,
		ledger:   p.Ledger,
		mailer:   p.Mailer,
		metrics:  p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*domain.Result, error) {
	adapter, err := s.adapters.Get(provider)
	if err != nil {
		return nil, err
	}
	if !json.Valid(payload) {
		return nil, gatewaydomain.ErrInvalidPayload
	}

	if err := adapter.VerifyWebhook(ctx, payload, headers); err != nil {
		s.log.Warn("webhook signature rejected", zap.String("provider", adapter.Provider()))
		s.count(adapter.Provider(), "forged")
		return nil, err
	}

	notification, err := adapter.ParseWebhook(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.count(adapter.Provider(), "received")

	return s.Reconcile(ctx, notification)
}

func (s *Service) VerifyRedirect(ctx context.Context, provider string, query url.Values) (*domain.Result, error) {
	adapter, err := s.adapters.Get(provider)
	if err != nil {
		return nil, err
	}

	redirect, err := adapter.ParseRedirect(ctx, query)
	if err != nil {
		return nil, err
	}

	notification := redirect.Notification
	if !redirect.Authoritative {
		// Never settle off an unsigned redirect parameter: ask the provider
		// what actually happened.
		fetched, err := adapter.FetchStatus(ctx, notification.ProviderOrderRef)
		if err != nil {
			return nil, err
		}
		notification = fetched
	}

	return s.Reconcile(ctx, notification)
}

func (s *Service) Reconcile(ctx context.Context, notification *gatewaydomain.PaymentNotification) (*domain.Result, error) {
	if notification == nil {
		return nil, domain.ErrMalformed
	}

	order, err := s.resolve(ctx, notification)
	if err != nil {
		return nil, err
	}

	if notification.Currency != "" && !strings.EqualFold(notification.Currency, order.Currency) {
		s.log.Error("notification currency does not match order",
			zap.String("order_id", order.OrderID),
			zap.String("order_currency", order.Currency),
			zap.String("reported_currency", notification.Currency),
		)
		return nil, domain.ErrMalformed
	}

	switch notification.ReportedStatus {
	case gatewaydomain.StatusCaptured:
		return s.settlePaid(ctx, order, notification)
	case gatewaydomain.StatusFailed:
		return s.settleFailed(ctx, order)
	default:
		// Nothing conclusive happened; leave the order alone.
		return &domain.Result{Order: order}, nil
	}
}

func (s *Service) settlePaid(ctx context.Context, order *orderdomain.Order, notification *gatewaydomain.PaymentNotification) (*domain.Result, error) {
	adapter, err := s.adapters.Get(order.Provider)
	if err != nil {
		return nil, err
	}

	// The split is always computed from the order's recorded gross, not the
	// reported amount; a mismatch is logged for manual review.
	if !notification.ReportedAmount.IsZero() && !notification.ReportedAmount.Equal(order.GrossAmount) {
		s.log.Warn("reported amount differs from order gross",
			zap.String("order_id", order.OrderID),
			zap.String("order_gross", order.GrossAmount.String()),
			zap.String("reported", notification.ReportedAmount.String()),
		)
	}

	split, err := money.Compute(order.GrossAmount, adapter.FeeModel(), s.cfg.PlatformRate)
	if err != nil {
		return nil, err
	}

	outcome, settled, err := s.ledger.ApplyIfAbsent(ctx, order.OrderID, orderdomain.StatusPaid, &split)
	if err != nil {
		return nil, err
	}
	s.count(order.Provider, "settle_"+string(outcome))

	switch outcome {
	case settlementdomain.OutcomeApplied:
		s.sendConfirmation(ctx, settled)
		return &domain.Result{Order: settled, Applied: true}, nil
	case settlementdomain.OutcomeAlreadyTerminal:
		if settled == nil {
			settled = order
		}
		return &domain.Result{Order: settled}, nil
	default:
		return nil, domain.ErrOrderNotFound
	}
}

func (s *Service) settleFailed(ctx context.Context, order *orderdomain.Order) (*domain.Result, error) {
	outcome, settled, err := s.ledger.ApplyIfAbsent(ctx, order.OrderID, orderdomain.StatusFailed, nil)
	if err != nil {
		return nil, err
	}
	s.count(order.Provider, "settle_"+string(outcome))

	switch outcome {
	case settlementdomain.OutcomeApplied:
		return &domain.Result{Order: settled, Applied: true}, nil
	case settlementdomain.OutcomeAlreadyTerminal:
		if settled == nil {
			settled = order
		}
		return &domain.Result{Order: settled}, nil
	default:
		return nil, domain.ErrOrderNotFound
	}
}

// sendConfirmation is fire-and-forget: the settlement is already committed
// and a mail failure must not surface as a reconciliation failure.
func (s *Service) sendConfirmation(ctx context.Context, order *orderdomain.Order) {
	if s.mailer == nil || order == nil || order.PayerEmail == "" {
		return
	}
	if err := s.mailer.SendPaymentConfirmation(ctx, email.PaymentConfirmation{
		To:          order.PayerEmail,
		OrderID:     order.OrderID,
		ProductName: order.ProductName,
		Amount:      order.GrossAmount.StringFixed(2),
		Currency:    order.Currency,
	}); err != nil {
		s.log.Warn("confirmation email failed",
			zap.String("order_id", order.OrderID),
			zap.Error(err),
		)
	}
}

func (s *Service) count(provider string, event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordReconciliation(provider, event)
}
