package reconcile

import (
	"go.uber.org/fx"

	"github.com/formpay/formpay/internal/reconcile/service"
)

var Module = fx.Module("reconcile",
	fx.Provide(service.NewService),
)
