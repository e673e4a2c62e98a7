package source

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmcdole/favlive/internal/domain"
)

// Cached decorates a ChannelSource with an offline cache. Successful
// results are written through; when the remote is unreachable a cached
// page is served instead, flagged FromCache.
type Cached struct {
	remote domain.ChannelSource
	cache  domain.ChannelCache
	logger *slog.Logger
}

func NewCached(remote domain.ChannelSource, cache domain.ChannelCache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{remote: remote, cache: cache, logger: logger}
}

func (c *Cached) FetchPage(ctx context.Context, criterion string, offset, limit int) (domain.Page, error) {
	page, err := c.remote.FetchPage(ctx, criterion, offset, limit)
	if err == nil {
		if err := c.cache.SavePage(criterion, offset, page); err != nil {
			c.logger.Warn("failed to cache follows page", "criterion", criterion, "offset", offset, "error", err)
		}
		return page, nil
	}

	if errors.Is(err, domain.ErrUserNotFound) {
		if err := c.cache.Invalidate(criterion); err != nil {
			c.logger.Warn("failed to invalidate cached follows", "criterion", criterion, "error", err)
		}
		return domain.Page{}, err
	}

	if !errors.Is(err, domain.ErrTransport) {
		return domain.Page{}, err
	}

	cached, ok := c.cache.Page(criterion, offset, limit)
	if !ok {
		return domain.Page{}, err
	}
	c.logger.Info("serving cached follows page", "criterion", criterion, "offset", offset, "error", err)
	return cached, nil
}

func (c *Cached) FetchStatus(ctx context.Context, name string) (domain.Status, error) {
	status, err := c.remote.FetchStatus(ctx, name)
	if err != nil {
		return status, err
	}
	if err := c.cache.SaveStatus(name, status); err != nil {
		c.logger.Warn("failed to cache status", "channel", name, "error", err)
	}
	return status, nil
}
