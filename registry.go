package bloom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/petal-labs/bloom/core"
)

// DefaultCacheTTL is how long fetched model inventories stay cached.
const DefaultCacheTTL = 5 * time.Minute

// fetchRetries bounds registry-level refresh attempts beyond what the
// executor already retries per request.
const fetchRetries = 2

// Family names one cached inventory.
type Family string

// Inventory families known to the registry.
const (
	FamilyImage  Family = "image-models"
	FamilyText   Family = "text-models"
	FamilyVoices Family = "voices"
)

// Fetcher retrieves the live inventory for one family.
type Fetcher func(ctx context.Context) ([]string, error)

// Registry caches model and voice inventories. Fetchers are injected per
// family; nothing is registered implicitly. A fetch failure falls back to
// the family's compiled defaults rather than surfacing an error, since an
// inventory is advisory and requests validate against the live service
// anyway.
type Registry struct {
	cache     *bigcache.BigCache
	fetchers  map[Family]Fetcher
	fallbacks map[Family]func() []string
	log       zerolog.Logger
}

// NewRegistry creates a registry whose entries expire after ttl. A ttl of
// zero or less means DefaultCacheTTL.
func NewRegistry(ttl time.Duration, log zerolog.Logger) (*Registry, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, fmt.Errorf("create inventory cache: %w", err)
	}
	return &Registry{
		cache:     cache,
		fetchers:  make(map[Family]Fetcher),
		fallbacks: make(map[Family]func() []string),
		log:       log.With().Str("component", "registry").Logger(),
	}, nil
}

// Register installs the fetcher and fallback for a family, replacing any
// previous registration.
func (r *Registry) Register(family Family, fetch Fetcher, fallback func() []string) {
	r.fetchers[family] = fetch
	r.fallbacks[family] = fallback
}

// List returns the inventory for a family, from cache when fresh.
func (r *Registry) List(ctx context.Context, family Family) ([]string, error) {
	if data, err := r.cache.Get(string(family)); err == nil {
		var names []string
		if err := json.Unmarshal(data, &names); err == nil {
			return names, nil
		}
		// A corrupt entry is replaced by a refresh.
	}
	return r.refresh(ctx, family)
}

// Invalidate drops the cached inventory for a family.
func (r *Registry) Invalidate(family Family) {
	_ = r.cache.Delete(string(family))
}

// Close releases the cache.
func (r *Registry) Close() error {
	return r.cache.Close()
}

func (r *Registry) refresh(ctx context.Context, family Family) ([]string, error) {
	fetch, ok := r.fetchers[family]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for family %q", family)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.MaxInterval = 10 * time.Second

	var names []string
	operation := func() error {
		var err error
		names, err = fetch(ctx)
		if err != nil {
			if terminalFetchError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(eb, fetchRetries), ctx))
	if err != nil {
		fallback := r.fallbacks[family]
		if fallback == nil {
			return nil, err
		}
		r.log.Warn().Err(err).Str("family", string(family)).Msg("inventory fetch failed, using compiled defaults")
		names = fallback()
	}

	if data, err := json.Marshal(names); err == nil {
		_ = r.cache.Set(string(family), data)
	}
	return names, nil
}

// terminalFetchError reports whether retrying the fetch cannot help.
func terminalFetchError(err error) bool {
	return errors.Is(err, core.ErrAuthentication) ||
		errors.Is(err, core.ErrPaymentRequired) ||
		errors.Is(err, core.ErrValidation) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
