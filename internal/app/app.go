// Package app assembles the collaborators shared by the interactive and
// headless front ends.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/favlive/internal/config"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/player"
	"github.com/mmcdole/favlive/internal/source"
	"github.com/mmcdole/favlive/internal/task"
)

// Runtime holds the long-lived services of one run
type Runtime struct {
	Config     *config.Config
	Source     domain.ChannelSource
	Cache      domain.ChannelCache // nil when caching is disabled
	Settings   *config.Settings
	Dispatcher *task.Dispatcher
	Launcher   *player.Launcher
	Logger     *slog.Logger
}

// New builds a runtime whose dispatcher delivers through post. A non-empty
// user overrides the configured username for this run only.
func New(cfg *config.Config, loader *config.Loader, user string, post task.Poster, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil || loader == nil {
		return nil, errors.New("app: config and loader are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	src, cache, err := source.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel source: %w", err)
	}

	return &Runtime{
		Config:   cfg,
		Source:   src,
		Cache:    cache,
		Settings: config.NewSettings(loader, user),
		Dispatcher: task.New(post, task.Options{
			MaxWorkers: cfg.Dispatch.MaxWorkers,
			Logger:     logger,
		}),
		Launcher: player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger),
		Logger:   logger,
	}, nil
}

// Close stops accepting work and releases the offline cache
func (rt *Runtime) Close() error {
	rt.Dispatcher.Close()
	if rt.Cache != nil {
		return rt.Cache.Close()
	}
	return nil
}
