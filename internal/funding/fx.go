package funding

import (
	"github.com/groundplan/groundplan/internal/funding/repository"
	"github.com/groundplan/groundplan/internal/funding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("funding",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
