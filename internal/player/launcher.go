// Package player opens live channels in an external stream player.
package player

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Launcher opens channel URLs in an external player
type Launcher struct {
	command string   // configured player command, empty to auto-detect
	args    []string // additional arguments for the player
	goos    string
	logger  *slog.Logger

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// launchPath defines a single way to launch a player
type launchPath struct {
	path      string   // Command path: "mpv", "streamlink", or "open-a:AppName"
	openFlags []string // For "open-a:" paths only - flags for the macOS open command
}

// playerConfig defines platform-specific launch configurations for a player
type playerConfig struct {
	trailingArgs []string                // Arguments after the URL, e.g. streamlink's quality
	platforms    map[string][]launchPath // Platform -> launch paths to try in order
}

var players = map[string]playerConfig{
	"streamlink": {
		trailingArgs: []string{"best"},
		platforms: map[string][]launchPath{
			"darwin":  {{path: "streamlink"}},
			"linux":   {{path: "streamlink"}},
			"windows": {{path: "streamlink"}},
		},
	},
	"mpv": {
		platforms: map[string][]launchPath{
			"darwin":  {{path: "mpv"}},
			"linux":   {{path: "mpv"}},
			"windows": {{path: "mpv"}},
		},
	},
	"vlc": {
		platforms: map[string][]launchPath{
			"darwin": {
				{path: "vlc"},
				{path: "open-a:VLC"},
			},
			"linux":   {{path: "vlc"}},
			"windows": {{path: "vlc"}},
		},
	},
	"iina": {
		platforms: map[string][]launchPath{
			"darwin": {
				{path: "open-a:IINA", openFlags: []string{"-n"}},
			},
		},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"streamlink", "iina", "mpv", "vlc"},
	"linux":   {"streamlink", "mpv", "vlc"},
	"windows": {"streamlink", "vlc", "mpv"},
}

func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		goos:     runtime.GOOS,
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// ChannelURL joins the web base URL and a channel login name
func ChannelURL(webURL, name string) string {
	return strings.TrimRight(webURL, "/") + "/" + name
}

func playerName(command string) string {
	base := strings.ToLower(filepath.Base(command))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openArgs builds the argument list for macOS "open -a"
func openArgs(appName, url string, playerArgs, openFlags []string) []string {
	cmdArgs := append([]string{}, openFlags...)
	cmdArgs = append(cmdArgs, "-a", appName)
	if len(playerArgs) > 0 {
		cmdArgs = append(cmdArgs, "--args")
		cmdArgs = append(cmdArgs, playerArgs...)
	}
	return append(cmdArgs, url)
}

// commandArgs places the URL after extra args and before the player's trailing args
func commandArgs(url string, args, trailing []string) []string {
	cmdArgs := append([]string{}, args...)
	cmdArgs = append(cmdArgs, url)
	return append(cmdArgs, trailing...)
}

// Launch opens url in the configured player, else the first detected
// candidate, else the system default handler.
func (l *Launcher) Launch(url string) error {
	if l.command != "" {
		l.logger.Info("using configured player", "command", l.command)
		return l.launchConfigured(url)
	}

	if name, err := l.detectAndLaunch(url); err == nil {
		l.logger.Info("launched with detected player", "player", name)
		return nil
	}

	l.logger.Info("no candidate players found, using system default")
	return l.launchDefault(url)
}

func (l *Launcher) detectAndLaunch(url string) (string, error) {
	candidates, ok := candidatePlayers[l.goos]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	for _, name := range candidates {
		cfg := players[name]
		paths, ok := cfg.platforms[l.goos]
		if !ok {
			continue
		}

		for _, lp := range paths {
			var err error
			if app, isApp := strings.CutPrefix(lp.path, "open-a:"); isApp {
				err = l.start("open", openArgs(app, url, cfg.trailingArgs, lp.openFlags)...)
			} else if _, err = l.lookPath(lp.path); err == nil {
				err = l.start(lp.path, commandArgs(url, nil, cfg.trailingArgs)...)
			}

			if err == nil {
				return name, nil
			}
			l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
		}
	}

	return "", fmt.Errorf("no candidate players found")
}

func (l *Launcher) launchConfigured(url string) error {
	trailing := players[playerName(l.command)].trailingArgs

	// On macOS, GUI apps not in PATH are launched with "open -a"
	if l.goos == "darwin" {
		if _, err := l.lookPath(l.command); err != nil {
			var openFlags []string
			for _, lp := range players[playerName(l.command)].platforms["darwin"] {
				if strings.HasPrefix(lp.path, "open-a:") {
					openFlags = lp.openFlags
					break
				}
			}
			playerArgs := append(append([]string{}, l.args...), trailing...)
			l.logger.Info("using macOS 'open -a' to launch GUI app", "app", l.command)
			return l.start("open", openArgs(l.command, url, playerArgs, openFlags)...)
		}
	}

	args := commandArgs(url, l.args, trailing)
	l.logger.Info("launching player", "command", l.command, "args", args)
	return l.start(l.command, args...)
}

func (l *Launcher) launchDefault(url string) error {
	l.logger.Info("launching with system default", "os", l.goos, "url", url)

	switch l.goos {
	case "darwin":
		return l.start("open", url)
	case "windows":
		return l.start("cmd", "/c", "start", "", url)
	default:
		return l.start("xdg-open", url)
	}
}
