package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/favlive/internal/app"
	"github.com/mmcdole/favlive/internal/tui"
)

func runTUI(opts *rootOptions) error {
	cfg, loader, logger, closer, err := bootstrap()
	if err != nil {
		return err
	}
	defer closer.Close()

	relay := tui.NewRelay(logger)
	rt, err := app.New(cfg, loader, opts.user, relay, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	model, err := tui.NewModel(tui.Deps{
		Source:          rt.Source,
		Settings:        rt.Settings,
		Dispatcher:      rt.Dispatcher,
		Launcher:        rt.Launcher,
		WebURL:          cfg.Twitch.WebURL,
		PageSize:        cfg.Follows.PageSize,
		RefreshInterval: cfg.Follows.RefreshInterval,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	relay.Attach(p)

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
