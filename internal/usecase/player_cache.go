package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/platform/cache"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

// DefaultPlayerCacheTTL matches the upstream bootstrap refresh cadence.
const DefaultPlayerCacheTTL = 5 * time.Minute

type CacheStatus struct {
	CacheAgeMs        int64
	CacheValid        bool
	CachedPlayerCount int
	RefreshedAt       time.Time
	TTL               time.Duration
}

// PlayerCache serves the whole player directory, reloading it from the
// bootstrap feed when expired. Callers arriving during a reload wait for it.
type PlayerCache struct {
	source   FantasyDataSource
	snapshot *cache.Snapshot[player.Directory]
	logger   *logging.Logger
}

func NewPlayerCache(source FantasyDataSource, ttl time.Duration, clk clock.Clock, logger *logging.Logger) *PlayerCache {
	if ttl <= 0 {
		ttl = DefaultPlayerCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerCache{
		source:   source,
		snapshot: cache.NewSnapshot[player.Directory](ttl, clk),
		logger:   logger,
	}
}

func (c *PlayerCache) Directory(ctx context.Context) (player.Directory, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerCache.Directory")
	defer span.End()

	dir, err := c.snapshot.Get(ctx, c.load)
	if err != nil {
		return nil, fmt.Errorf("load player directory: %w", err)
	}
	return dir, nil
}

func (c *PlayerCache) load(ctx context.Context) (player.Directory, error) {
	records, err := c.source.FetchPlayers(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "player cache refresh failed", "error", err)
		return nil, err
	}

	valid := make([]player.Record, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			c.logger.DebugContext(ctx, "skip invalid player record", "player_id", r.ID, "error", err)
			continue
		}
		valid = append(valid, r)
	}

	c.logger.InfoContext(ctx, "player cache refreshed", "players", len(valid), "skipped", len(records)-len(valid))
	return player.NewDirectory(valid), nil
}

// Status never triggers a refresh.
func (c *PlayerCache) Status() CacheStatus {
	st := c.snapshot.Status()
	out := CacheStatus{
		CacheValid:  st.Valid,
		RefreshedAt: st.RefreshedAt,
		TTL:         c.snapshot.TTL(),
	}
	if !st.Populated {
		return out
	}
	out.CacheAgeMs = st.Age.Milliseconds()
	if dir, ok := c.snapshot.Peek(); ok {
		out.CachedPlayerCount = len(dir)
	}
	return out
}

func (c *PlayerCache) Invalidate() {
	c.snapshot.Invalidate()
}
