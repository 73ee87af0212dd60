package cmd

import (
	"fmt"
	"os"

	"github.com/conneroisu/bindcfg/internal/broker"
	"github.com/conneroisu/bindcfg/internal/config"
	"github.com/conneroisu/bindcfg/internal/logging"
	"github.com/conneroisu/bindcfg/internal/persist"
	"github.com/conneroisu/bindcfg/internal/store"
)

// app bundles the wired core every command works against: config, logger,
// store-backed broker, and persistence bridge.
type app struct {
	cfg    *config.Config
	logger logging.Logger
	broker *broker.Broker
	bridge *persist.Bridge
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	b := broker.New(store.New(), logger)
	bridge := persist.NewBridge(cfg.Storage.Dir, b, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		broker: b,
		bridge: bridge,
	}, nil
}
