package gateway

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/formpay/formpay/internal/config"
	"github.com/formpay/formpay/internal/gateway/adapters"
	"github.com/formpay/formpay/internal/gateway/adapters/cashfree"
	"github.com/formpay/formpay/internal/gateway/adapters/razorpay"
	"github.com/formpay/formpay/internal/gateway/domain"
	"github.com/formpay/formpay/internal/gateway/rest"
	"github.com/formpay/formpay/internal/money"
)

var Module = fx.Module("gateway",
	fx.Provide(rest.NewClient),
	fx.Provide(NewRegistry),
)

// NewRegistry builds one adapter per configured provider. A provider without
// credentials is simply not registered; its webhooks are rejected with
// provider_not_found.
func NewRegistry(cfg config.Config, client *rest.Client, log *zap.Logger) (*adapters.Registry, error) {
	var list []domain.Adapter

	if cfg.Cashfree.Configured() {
		adapter, err := cashfree.NewAdapter(cashfree.Config{
			BaseURL:       cfg.Cashfree.BaseURL,
			ClientID:      cfg.Cashfree.KeyID,
			ClientSecret:  cfg.Cashfree.KeySecret,
			WebhookSecret: cfg.Cashfree.WebhookSecret,
			FeeModel:      feeModel(cfg.Cashfree),
		}, client, log)
		if err != nil {
			return nil, err
		}
		list = append(list, adapter)
	}

	if cfg.Razorpay.Configured() {
		adapter, err := razorpay.NewAdapter(razorpay.Config{
			BaseURL:       cfg.Razorpay.BaseURL,
			KeyID:         cfg.Razorpay.KeyID,
			KeySecret:     cfg.Razorpay.KeySecret,
			WebhookSecret: cfg.Razorpay.WebhookSecret,
			FeeModel:      feeModel(cfg.Razorpay),
		}, client, log)
		if err != nil {
			return nil, err
		}
		list = append(list, adapter)
	}

	if len(list) == 0 {
		log.Warn("no payment provider configured")
	}
	return adapters.NewRegistry(list...), nil
}

func feeModel(p config.ProviderConfig) money.FeeModel {
	return money.FeeModel{
		Rate:     p.FeeRate,
		FixedFee: p.FeeFixed,
		TaxOnFee: p.FeeTaxRate,
	}
}
