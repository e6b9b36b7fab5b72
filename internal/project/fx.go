package project

import (
	"github.com/groundplan/groundplan/internal/project/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("project",
	fx.Provide(repository.Provide),
)
