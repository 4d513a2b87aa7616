package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/formpay/formpay/internal/config"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite is only used for local development and tests.
			return conn.AutoMigrate(&orderdomain.Order{}, &orderdomain.CommissionRecord{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
