package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casservice/internal/config"
	"casservice/internal/dispatcher"
	"casservice/internal/engine"
	"casservice/internal/engines"
	"casservice/internal/executor"
	"casservice/internal/server"
	"casservice/pkg/logging"
)

// Application bootstraps and runs the CAS service. Two phases: New loads
// configuration and builds the engine registry; Run serves HTTP until a
// shutdown signal arrives.
type Application struct {
	cfg        config.Config
	appCfg     *Config
	dispatcher *dispatcher.Dispatcher
	server     *server.Server
}

// NewApplication performs the bootstrap sequence: logging, configuration,
// executor, engines, dispatcher, wire adapter.
func NewApplication(version string, appCfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if appCfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stdout)

	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		logging.Error("bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if !appCfg.Debug {
		logging.InitForCLI(logging.ParseLevel(cfg.LogLevel), os.Stdout)
	}

	d := dispatcher.New(BuildEngines(cfg), cfg.DefaultEngine)
	for _, e := range d.Engines() {
		logging.Info("bootstrap", "Engine %s: available=%t version=%s",
			e.Name(), e.IsAvailable(), e.Version())
	}

	return &Application{
		cfg:        cfg,
		appCfg:     appCfg,
		dispatcher: d,
		server:     server.New(d, version),
	}, nil
}

// Dispatcher exposes the registry for the inspection commands.
func (a *Application) Dispatcher() *dispatcher.Dispatcher { return a.dispatcher }

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := a.cfg.Port
	if a.appCfg.Port != 0 {
		port = a.appCfg.Port
	}

	err := a.server.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
	logging.Info("bootstrap", "CAS service stopped")
	return err
}

// BuildEngines constructs the engine lineup from configuration. A panic in
// one constructor is logged and that engine skipped; the rest survive.
func BuildEngines(cfg config.Config) []engine.Engine {
	exec := executor.New()
	e := cfg.Engines

	builders := []struct {
		name  string
		build func() engine.Engine
	}{
		{"sympy", func() engine.Engine {
			return engines.NewSympy(e.Sympy.PythonPath, seconds(e.Sympy.TimeoutS), exec)
		}},
		{"maxima", func() engine.Engine {
			return engines.NewMaxima(e.Maxima.Path, seconds(e.Maxima.TimeoutS), exec)
		}},
		{"sage", func() engine.Engine {
			return engines.NewSage(e.Sage.Path, seconds(e.Sage.TimeoutS), exec)
		}},
		{"matlab", func() engine.Engine {
			return engines.NewMatlab(e.Matlab.Path, seconds(e.Matlab.TimeoutS), exec)
		}},
		{"gap", func() engine.Engine {
			return engines.NewGap(e.Gap.Path, seconds(e.Gap.TimeoutS), exec)
		}},
		{"wolframalpha", func() engine.Engine {
			return engines.NewWolframAlpha(e.WolframAlpha.AppID, seconds(e.WolframAlpha.TimeoutS))
		}},
	}

	var out []engine.Engine
	for _, b := range builders {
		if built := buildOne(b.name, b.build); built != nil {
			out = append(out, built)
		}
	}
	return out
}

func buildOne(name string, build func() engine.Engine) (e engine.Engine) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("bootstrap", fmt.Errorf("%v", r), "Engine %s failed to construct, skipping", name)
			e = nil
		}
	}()
	return build()
}

func seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}
