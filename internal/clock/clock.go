package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock provides the current time. Schedulers and batch jobs depend on this
// interface so tests can drive simulated time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func NewReal() Clock {
	return realClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewReal),
)
