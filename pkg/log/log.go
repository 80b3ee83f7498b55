package log

import (
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("log",
	fx.Provide(NewLogger),
)

// NewLogger builds the root zap logger: human-readable in development,
// JSON everywhere else. Components derive named children from it.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
