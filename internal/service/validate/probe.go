package validate

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/octobees/leadscan/internal/metrics"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultCacheTTL     = 24 * time.Hour
	cacheKeyPrefix      = "leadscan:domain-active:"
)

// HTTPClient abstracts outbound requests so probes can be stubbed in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Cache stores probe verdicts between runs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// DomainProber checks whether a domain answers HTTPS requests.
type DomainProber struct {
	httpClient HTTPClient
	cache      Cache
	cacheTTL   time.Duration
	timeout    time.Duration
	group      singleflight.Group
}

// ProberOption configures optional dependencies.
type ProberOption func(*DomainProber)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPClient) ProberOption {
	return func(p *DomainProber) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithCache enables verdict caching. A nil cache leaves caching disabled.
func WithCache(cache Cache, ttl time.Duration) ProberOption {
	return func(p *DomainProber) {
		p.cache = cache
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// WithTimeout overrides the per-probe deadline.
func WithTimeout(timeout time.Duration) ProberOption {
	return func(p *DomainProber) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewDomainProber builds a prober with a 5 second timeout and no cache.
// Redirects are not followed; a 3xx answer already proves the host is live.
func NewDomainProber(opts ...ProberOption) *DomainProber {
	p := &DomainProber{
		cacheTTL: defaultCacheTTL,
		timeout:  defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return p
}

// IsDomainActive issues HEAD https://domain and reports true for any 2xx or
// 3xx answer. 4xx and 5xx answers are a definite false. Transport failures
// and timeouts return false with the error so the caller can record the
// liveness as unknown. Concurrent probes of one domain share a request.
func (p *DomainProber) IsDomainActive(ctx context.Context, domain string) (bool, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if !IsValidDomainFormat(domain) {
		return false, eris.Errorf("invalid domain %q", domain)
	}

	if active, ok := p.cached(ctx, domain); ok {
		metrics.DomainProbes.WithLabelValues(metrics.OutcomeCacheHit).Inc()
		return active, nil
	}

	// The shared request outlives any one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do(domain, func() (interface{}, error) {
		return p.probe(shared, domain)
	})
	if err != nil {
		metrics.DomainProbes.WithLabelValues(metrics.OutcomeError).Inc()
		return false, err
	}
	active := v.(bool)
	if active {
		metrics.DomainProbes.WithLabelValues(metrics.OutcomeActive).Inc()
	} else {
		metrics.DomainProbes.WithLabelValues(metrics.OutcomeInactive).Inc()
	}
	p.store(ctx, domain, active)
	return active, nil
}

func (p *DomainProber) probe(ctx context.Context, domain string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://"+domain, nil)
	if err != nil {
		return false, eris.Wrapf(err, "build probe request for %s", domain)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, eris.Wrapf(err, "probe %s", domain)
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400, nil
}

func (p *DomainProber) cached(ctx context.Context, domain string) (bool, bool) {
	if p.cache == nil {
		return false, false
	}
	raw, ok, err := p.cache.Get(ctx, cacheKeyPrefix+domain)
	if err != nil {
		zap.L().Warn("domain cache read failed", zap.String("domain", domain), zap.Error(err))
		return false, false
	}
	if !ok {
		return false, false
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return active, true
}

func (p *DomainProber) store(ctx context.Context, domain string, active bool) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKeyPrefix+domain, strconv.FormatBool(active), p.cacheTTL); err != nil {
		zap.L().Warn("domain cache write failed", zap.String("domain", domain), zap.Error(err))
	}
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache wraps client. A nil client yields a nil Cache.
func NewRedisCache(client redis.Cmdable) Cache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "redis get %s", key)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return eris.Wrapf(err, "redis set %s", key)
	}
	return nil
}
