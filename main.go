package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/goGhostKeys/config"
	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/hook"
	"github.com/goGhostKeys/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	loader := config.NewLoader(config.ConfigPath())
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ghostkeys: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ghostkeys: failed to setup logging: %v\n", err)
		return 1
	}
	defer logger.Close()
	slog.SetDefault(logger.Logger)
	log := logger.WithComponent("main")

	defer hook.ReleaseOnPanic(log)

	g := gate.New()
	if cfg.StartPaused {
		if err := g.SetMode(gate.Passthrough); err != nil {
			log.Error("failed to set initial mode", "error", err)
			return 1
		}
	}

	mode, _ := g.Mode()
	log.Info("starting ghostkeys",
		"platform", runtime.GOOS+"/"+runtime.GOARCH,
		"mode", mode,
		"config", loader.Path(),
	)

	interceptor := hook.New(cfg.HookOptions(), logger.Logger)
	if err := interceptor.Start(g); err != nil {
		log.Error("failed to start keyboard hook", "error", err)
		return 1
	}

	loader.OnChange(func(c *config.Config) {
		defer hook.ReleaseOnPanic(log)
		lc := c.LoggingOptions()
		logger.SetLevel(lc.Level)
		log.Info("configuration reloaded", "level", logging.LevelString(lc.Level))
	})
	if err := loader.Watch(); err != nil {
		log.Warn("config hot reload disabled", "error", err)
	}
	defer loader.Close()

	go func() {
		defer hook.ReleaseOnPanic(log)
		for {
			select {
			case err := <-loader.Errors():
				log.Warn("config reload rejected", "error", err)
			case <-g.Done():
				return
			}
		}
	}()

	stopSignals := handleSignals(g, log)
	defer stopSignals()

	log.Info("ghostkeys active", "toggle", toggleHint)
	<-g.Done()

	log.Info("shutting down")
	if err := interceptor.Stop(); err != nil {
		log.Error("failed to stop keyboard hook", "error", err)
		return 1
	}
	return 0
}
