package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/billing"
	"github.com/groundplan/groundplan/internal/cashflow"
	"github.com/groundplan/groundplan/internal/clock"
	"github.com/groundplan/groundplan/internal/config"
	"github.com/groundplan/groundplan/internal/expense"
	"github.com/groundplan/groundplan/internal/funding"
	"github.com/groundplan/groundplan/internal/migration"
	"github.com/groundplan/groundplan/internal/observability"
	"github.com/groundplan/groundplan/internal/project"
	"github.com/groundplan/groundplan/internal/scheduler"
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

		// Domain services required by the jobs
		project.Module,
		funding.Module,
		expense.Module,
		cashflow.Module,
		billing.Module,

		// No server module
		scheduler.Module,
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
