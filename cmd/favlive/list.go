package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/favlive/internal/app"
	"github.com/mmcdole/favlive/internal/config"
	"github.com/mmcdole/favlive/internal/task"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type listOptions struct {
	all     bool
	live    bool
	match   string
	timeout time.Duration
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print followed channels and their live status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, root, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "page through every follow")
	cmd.Flags().BoolVarP(&opts.live, "live", "l", false, "only show live channels")
	cmd.Flags().StringVarP(&opts.match, "match", "m", "", "fuzzy filter on channel name and title")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "give up after this long")
	return cmd
}

func runList(cmd *cobra.Command, root *rootOptions, opts *listOptions) error {
	cfg, loader, logger, closer, err := bootstrap()
	if err != nil {
		return err
	}
	defer closer.Close()

	if root.user == "" && strings.TrimSpace(cfg.Follows.Username) == "" {
		if err := runSetupFlow(cmd.InOrStdin(), cmd.OutOrStdout(), loader); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	loop := task.NewLoop()
	go loop.Run(ctx)
	post, changed := app.Signal(loop)

	rt, err := app.New(cfg, loader, root.user, post, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	channels, err := app.Collect(ctx, rt, loop, changed, app.ListOptions{
		All:      opts.all,
		Match:    opts.match,
		LiveOnly: opts.live,
		Timeout:  opts.timeout,
	})
	if err != nil {
		return err
	}
	return app.Render(cmd.OutOrStdout(), channels, cfg.Twitch.WebURL)
}

// runSetupFlow asks for the username when stdin is a terminal and saves it
func runSetupFlow(in io.Reader, out io.Writer, loader *config.Loader) error {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Twitch username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		name := strings.TrimSpace(input)
		if name == "" {
			fmt.Fprintln(out, "Username cannot be empty. Please try again.")
			continue
		}

		if err := loader.SaveUsername(name); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintln(out, "✓ Username saved")
		return nil
	}
}
