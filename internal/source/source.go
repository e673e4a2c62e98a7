// Package source builds the channel source the application reads from.
package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/favlive/internal/config"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/source/twitch"
	"github.com/mmcdole/favlive/internal/store"
)

// NewFromConfig creates the Twitch client, wrapped in the offline cache
// unless caching is disabled. The returned cache must be closed by the
// caller; it is nil when caching is disabled.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (domain.ChannelSource, domain.ChannelCache, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := twitch.NewClient(cfg.Twitch.APIURL, cfg.Twitch.ClientID, cfg.Twitch.Token, cfg.Twitch.Timeout, logger)
	if cfg.Cache.Disabled {
		return client, nil, nil
	}

	cache, err := store.NewCache(cfg.Cache.Dir, cfg.Twitch.APIURL)
	if err != nil {
		logger.Warn("offline cache unavailable, continuing without it", "dir", cfg.Cache.Dir, "error", err)
		cache, _ = store.NewCache("", "")
	}
	return NewCached(client, cache, logger), cache, nil
}
