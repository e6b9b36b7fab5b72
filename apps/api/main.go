package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/clock"
	"github.com/groundplan/groundplan/internal/config"
	"github.com/groundplan/groundplan/internal/migration"
	"github.com/groundplan/groundplan/internal/observability"
	"github.com/groundplan/groundplan/internal/server"
	"github.com/groundplan/groundplan/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

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
