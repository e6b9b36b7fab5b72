package cashflow

import (
	"github.com/groundplan/groundplan/internal/cashflow/repository"
	"github.com/groundplan/groundplan/internal/cashflow/service"
	"github.com/groundplan/groundplan/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("cashflow",
	fx.Provide(func(cfg config.Config) service.Config {
		return service.Config{IncludePartialFunding: cfg.IncludePartialFunding}
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
