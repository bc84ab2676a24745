package coord

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/persona/internal/cache"
	"github.com/ppiankov/persona/internal/model"
	"github.com/ppiankov/persona/internal/source"
)

// sleepFunc waits out a rate-limit delay; replaced in tests
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const defaultRetryDelay = 5 * time.Second

// Result is the canonical item list for one user
type Result struct {
	Items     []model.Item // Most recent first, at most the item limit
	Partial   bool         // Activity may be incomplete
	Note      string       // Why the result is partial
	FromCache bool         // No fresh items were fetched
	Fetched   int          // Fresh items fetched by this call
	Calls     int          // Source client calls made
}

// Coordinator serves user activity from the cache, the source, or both
type Coordinator struct {
	client     source.Client
	store      cache.UserStore
	maxRetries int
	force      bool
	now        func() time.Time
	logger     *zap.Logger
	group      singleflight.Group
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithMaxRetries bounds rate-limit retries before the first successful page
func WithMaxRetries(n int) Option {
	return func(c *Coordinator) { c.maxRetries = n }
}

// WithForceRefresh ignores cache freshness and stored cursors
func WithForceRefresh(force bool) Option {
	return func(c *Coordinator) { c.force = force }
}

// New creates a coordinator over client and store
func New(client source.Client, store cache.UserStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:     client,
		store:      store,
		maxRetries: 3,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetItems returns up to itemLimit items for user, most recent first.
// Identical concurrent calls for the same user share one execution.
func (c *Coordinator) GetItems(ctx context.Context, user string, maxAge time.Duration, itemLimit int) (*Result, error) {
	key := cache.NormalizeUser(user)
	if key == "" {
		return nil, errors.Wrap(source.ErrInvalidUsername, "empty user")
	}
	if itemLimit <= 0 {
		return nil, errors.Errorf("item limit must be positive, got %d", itemLimit)
	}

	flightKey := fmt.Sprintf("%s|%d|%d", key, maxAge, itemLimit)
	v, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		return c.getItems(ctx, user, maxAge, itemLimit)
	})
	if err != nil {
		return nil, err
	}

	res := *v.(*Result)
	res.Items = append([]model.Item(nil), res.Items...)
	return &res, nil
}

func (c *Coordinator) getItems(ctx context.Context, user string, maxAge time.Duration, itemLimit int) (*Result, error) {
	log := c.logger.With(zap.String("user", user))

	rec, err := c.store.Read(user)
	if err != nil {
		if errors.Is(err, cache.ErrCacheCorrupt) {
			log.Warn("cache record corrupt, refetching", zap.Error(err))
		} else {
			log.Warn("cache read failed, refetching", zap.Error(err))
		}
		rec = nil
	}

	now := c.now()
	if !c.force && !cache.IsStale(rec, maxAge, now) {
		log.Debug("serving from cache",
			zap.Int("items", len(rec.Items)),
			zap.Time("last_fetched", rec.LastFetched))
		return &Result{
			Items:     head(rec.Items, itemLimit),
			FromCache: true,
			Partial:   rec.Partial,
			Note:      rec.Note,
		}, nil
	}

	var cached []model.Item
	var known map[string]struct{}
	start := model.Cursor{}
	if rec != nil {
		cached = rec.Items
		if !c.force {
			start = rec.Cursor
			known = rec.IDs()
		}
	}

	f := &fetch{
		coord:  c,
		user:   user,
		log:    log,
		cursor: start,
		known:  known,
	}
	f.run(ctx, itemLimit)

	res := &Result{Calls: f.calls, Fetched: len(f.items)}

	switch {
	case errors.Is(f.err, source.ErrUnauthorized):
		return nil, f.err

	case f.err != nil && len(f.items) == 0:
		if len(cached) == 0 {
			return nil, f.err
		}
		log.Warn("fetch failed, serving cached activity", zap.Error(f.err))
		res.Items = head(cached, itemLimit)
		res.Partial = true
		res.FromCache = true
		res.Note = fetchFailureNote(f.err)
		return res, nil

	case f.err != nil:
		// One stream failed after the other produced items
		res.Partial = true
		res.Note = fetchFailureNote(f.err)
	}

	if f.stopped != "" {
		res.Partial = true
		res.Note = f.stopped
	}

	merged := Merge(f.items, cached)
	out := &model.UserRecord{
		Username:    user,
		Items:       merged,
		LastFetched: now,
		Cursor:      f.cursor,
		Partial:     res.Partial,
		Note:        res.Note,
	}
	if err := c.store.Write(user, out); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}

	log.Info("fetched activity",
		zap.Int("fresh", len(f.items)),
		zap.Int("cached", len(cached)),
		zap.Int("merged", len(merged)),
		zap.Int("calls", f.calls),
		zap.Bool("partial", res.Partial))

	res.Items = head(merged, itemLimit)
	return res, nil
}

func fetchFailureNote(err error) string {
	switch {
	case errors.Is(err, source.ErrNotFound):
		return "the account returned no public activity; showing previously cached activity"
	case errors.Is(err, source.ErrRateLimited):
		return "Reddit rate-limited the request; showing previously cached activity"
	default:
		return "fetching fresh activity failed; the report may be out of date"
	}
}
