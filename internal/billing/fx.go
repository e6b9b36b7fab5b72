package billing

import (
	"github.com/groundplan/groundplan/internal/billing/repository"
	"github.com/groundplan/groundplan/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
