package token

import (
	"context"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultSafetyMargin is subtracted from every token lifetime so tokens are
// refreshed before the identity provider actually expires them.
const DefaultSafetyMargin = 300 * time.Second

// Outcome describes how a Token call was served.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeRefresh Outcome = "refresh"
	OutcomeError   Outcome = "error"
)

// Cache holds at most one bearer token per ServiceKey.
//
// Refreshes are collapsed per service: while one authenticate call is in
// flight, other callers for the same service wait for its result instead of
// starting their own.
type Cache struct {
	mu     sync.Mutex
	tokens map[ServiceKey]CachedToken
	group  singleflight.Group

	now     func() time.Time
	margin  time.Duration
	logger  *otelzap.Logger
	observe func(ServiceKey, Outcome)
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSafetyMargin overrides DefaultSafetyMargin.
func WithSafetyMargin(d time.Duration) Option {
	return func(c *Cache) { c.margin = d }
}

// WithLogger sets the logger used for refresh events.
func WithLogger(logger *otelzap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithObserver registers a callback invoked once per Token call.
func WithObserver(fn func(ServiceKey, Outcome)) Option {
	return func(c *Cache) { c.observe = fn }
}

// NewCache creates an empty token cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		tokens:  make(map[ServiceKey]CachedToken),
		now:     time.Now,
		margin:  DefaultSafetyMargin,
		logger:  otelzap.New(zap.NewNop()),
		observe: func(ServiceKey, Outcome) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a valid bearer token for service, calling authenticate only
// when no unexpired token is cached. Authentication errors are returned
// unchanged and never cached.
//
// A grant whose lifetime does not exceed the safety margin is returned to
// the caller that fetched it but is already expired in the cache, so the
// next call authenticates again.
func (c *Cache) Token(ctx context.Context, service ServiceKey, authenticate AuthenticateFunc) (string, error) {
	if value, ok := c.lookup(service); ok {
		c.observe(service, OutcomeHit)
		return value, nil
	}

	ch := c.group.DoChan(service.String(), func() (interface{}, error) {
		// A flight that finished after our lookup may already have stored a token.
		if value, ok := c.lookup(service); ok {
			return value, nil
		}

		grant, err := authenticate(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		return c.store(ctx, service, grant), nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.observe(service, OutcomeError)
			c.logger.Ctx(ctx).Warn("Token refresh failed",
				zap.Stringer("service", service),
				zap.Error(res.Err),
			)
			return "", res.Err
		}
		c.observe(service, OutcomeRefresh)
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token for service, forcing the next Token call
// to authenticate.
func (c *Cache) Invalidate(service ServiceKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, service)
}

// ExpiresAt returns the expiry of the cached token for service.
func (c *Cache) ExpiresAt(service ServiceKey) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[service]
	return t.ExpiresAt, ok
}

func (c *Cache) lookup(service ServiceKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[service]
	if !ok || !t.Valid(c.now()) {
		return "", false
	}
	return t.Value, true
}

func (c *Cache) store(ctx context.Context, service ServiceKey, grant Grant) string {
	lifetime := time.Duration(grant.ExpiresIn)*time.Second - c.margin
	t := CachedToken{
		Value:     grant.AccessToken,
		ExpiresAt: c.now().Add(lifetime),
	}

	c.mu.Lock()
	c.tokens[service] = t
	c.mu.Unlock()

	c.logger.Ctx(ctx).Debug("Token refreshed",
		zap.Stringer("service", service),
		zap.Time("expires_at", t.ExpiresAt),
	)
	return t.Value
}
