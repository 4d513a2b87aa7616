package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/formpay/formpay/internal/config"
	"github.com/formpay/formpay/internal/gateway/adapters"
	gatewaydomain "github.com/formpay/formpay/internal/gateway/domain"
	"github.com/formpay/formpay/internal/money"
	"github.com/formpay/formpay/internal/order/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Cfg      config.Config
	Adapters *adapters.Registry
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	cfg      config.Config
	adapters *adapters.Registry
	repo     domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		cfg:      p.Cfg,
		adapters: p.Adapters,
		repo:     p.Repo,
	}
}

// Create validates a form submission, computes the display split, creates the
// provider payment link and persists the Order. The split computed here and
// the one recorded at settlement come from the same pure function over the
// same inputs, so they always agree.
func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.CreateOrderResponse, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	adapter, err := s.adapters.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	split, err := money.Compute(req.GrossAmount, adapter.FeeModel(), s.cfg.PlatformRate)
	if err != nil {
		return nil, domain.ErrInvalidAmount
	}

	orderID := uuid.NewString()
	now := time.Now().UTC()
	order := &domain.Order{
		ID:          s.genID.Generate(),
		OrderID:     orderID,
		Provider:    strings.ToLower(req.Provider),
		FormID:      req.FormID,
		PayeeID:     snowflake.ID(req.PayeeID),
		PayerEmail:  req.PayerEmail,
		ProductName: req.ProductName,
		GrossAmount: req.GrossAmount,
		Currency:    req.Currency,
		Status:      domain.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, order); err != nil {
		return nil, err
	}

	session, err := adapter.CreateOrder(ctx, gatewaydomain.CreateOrderRequest{
		OrderID:     orderID,
		Amount:      req.GrossAmount,
		Currency:    req.Currency,
		PayerEmail:  req.PayerEmail,
		ProductName: req.ProductName,
		ReturnURL:   fmt.Sprintf("%s/verify/%s?order_id=%s", s.cfg.PublicBaseURL, order.Provider, orderID),
	})
	if err != nil {
		s.log.Error("create payment link failed",
			zap.String("order_id", orderID),
			zap.String("provider", order.Provider),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.repo.SetProviderOrderRef(ctx, s.db, orderID, session.ProviderOrderRef); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", orderID),
		zap.String("provider", order.Provider),
		zap.String("provider_order_ref", session.ProviderOrderRef),
		zap.String("gross_amount", req.GrossAmount.String()),
	)

	return &domain.CreateOrderResponse{
		OrderID:     orderID,
		CheckoutURL: session.CheckoutURL,
		GatewayFee:  split.GatewayFee,
		PlatformFee: split.PlatformCommission,
		NetToPayee:  split.NetToPayee,
	}, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrInvalidRequest
	}
	order, err := s.repo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func validateCreate(req *domain.CreateOrderRequest) error {
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	req.FormID = strings.TrimSpace(req.FormID)
	req.PayerEmail = strings.TrimSpace(strings.ToLower(req.PayerEmail))
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))

	if req.Provider == "" || req.FormID == "" || req.PayerEmail == "" || req.ProductName == "" {
		return domain.ErrInvalidRequest
	}
	if !strings.Contains(req.PayerEmail, "@") {
		return domain.ErrInvalidRequest
	}
	if req.Currency == "" {
		return domain.ErrInvalidCurrency
	}
	if req.GrossAmount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	// Amounts are minor-unit precise; anything finer never survives a round
	// trip through the providers.
	if !req.GrossAmount.Equal(req.GrossAmount.Round(2)) {
		return domain.ErrInvalidAmount
	}
	if req.PayeeID == 0 {
		return domain.ErrInvalidRequest
	}
	return nil
}
