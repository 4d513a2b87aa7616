package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/formpay/formpay/internal/config"
	"github.com/formpay/formpay/internal/gateway"
	"github.com/formpay/formpay/internal/migration"
	"github.com/formpay/formpay/internal/observability"
	"github.com/formpay/formpay/internal/order"
	"github.com/formpay/formpay/internal/providers/email"
	"github.com/formpay/formpay/internal/reconcile"
	"github.com/formpay/formpay/internal/server"
	"github.com/formpay/formpay/internal/settlement"
	"github.com/formpay/formpay/pkg/db"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Functional Domains
		gateway.Module,
		order.Module,
		settlement.Module,
		reconcile.Module,
		email.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
