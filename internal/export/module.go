package export

import (
	"context"

	"github.com/matheus3301/sigexport/internal/bus"
	"github.com/matheus3301/sigexport/internal/logging"
	"github.com/matheus3301/sigexport/internal/progress"
	"github.com/matheus3301/sigexport/internal/status"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds everything the fx module needs to build an engine.
type Params struct {
	Options Options
	Logging logging.Options
	// Progress receives human readable progress lines. Nil disables the reporter.
	Progress *progress.Reporter
}

// Module returns the fx module for an export run, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("export",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideEngine,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(p.Logging)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideEngine(p Params, b *bus.Bus, m *status.Machine, logger *zap.Logger) *Engine {
	return NewEngine(p.Options, b, m, logger)
}

func registerLifecycle(lc fx.Lifecycle, p Params, b *bus.Bus, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if p.Progress != nil {
				p.Progress.Start(b)
			}
			logger.Debug("export engine ready",
				zap.String("source", p.Options.Source),
				zap.String("dest", p.Options.Dest),
				zap.Int("workers", p.Options.Workers))
			return nil
		},
		OnStop: func(_ context.Context) error {
			if p.Progress != nil {
				p.Progress.Stop()
			}
			_ = logger.Sync()
			return nil
		},
	})
}
