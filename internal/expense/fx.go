package expense

import (
	"github.com/groundplan/groundplan/internal/expense/repository"
	"github.com/groundplan/groundplan/internal/expense/service"
	"go.uber.org/fx"
)

var Module = fx.Module("expense",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
