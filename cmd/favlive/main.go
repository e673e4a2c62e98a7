package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mmcdole/favlive/internal/config"
	"github.com/mmcdole/favlive/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

type rootOptions struct {
	user string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "favlive",
		Short:         "See which of your followed Twitch channels are live",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Piped output gets the plain listing
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return runList(cmd, opts, &listOptions{timeout: time.Minute})
			}
			return runTUI(opts)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.user, "user", "u", "", "list follows of this user instead of the configured one")
	cmd.SetVersionTemplate("favlive {{.Version}}\n")

	cmd.AddCommand(newListCmd(opts))
	return cmd
}

// bootstrap loads the configuration and installs the file logger
func bootstrap() (*config.Config, *config.Loader, *slog.Logger, io.Closer, error) {
	cfg, loader, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
		closer = io.NopCloser(nil)
	}
	slog.SetDefault(logger)

	logger.Info("starting favlive", "version", Version)
	return cfg, loader, logger, closer, nil
}
