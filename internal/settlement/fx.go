package settlement

import (
	"go.uber.org/fx"

	"github.com/formpay/formpay/internal/settlement/service"
)

var Module = fx.Module("settlement",
	fx.Provide(service.NewService),
)
