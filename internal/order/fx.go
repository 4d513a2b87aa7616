package order

import (
	"go.uber.org/fx"

	"github.com/formpay/formpay/internal/order/repository"
	"github.com/formpay/formpay/internal/order/service"
)

var Module = fx.Module("order",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
