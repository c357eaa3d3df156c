package validate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHTTPClient struct {
	mu       sync.Mutex
	status   map[string]int
	err      error
	requests []string
}

func (s *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req.Method+" "+req.URL.String())
	if s.err != nil {
		return nil, s.err
	}
	code, ok := s.status[req.URL.Host]
	if !ok {
		code = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

type memoryCache struct {
	values map[string]string
	ttl    time.Duration
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	m.ttl = ttl
	return nil
}

func TestIsDomainActiveStatusClasses(t *testing.T) {
	client := &stubHTTPClient{status: map[string]int{
		"ok.com":       http.StatusOK,
		"moved.com":    http.StatusMovedPermanently,
		"missing.com":  http.StatusNotFound,
		"broken.com":   http.StatusInternalServerError,
		"nocontent.io": http.StatusNoContent,
	}}
	p := NewDomainProber(WithHTTPClient(client))

	cases := map[string]bool{
		"ok.com":       true,
		"moved.com":    true,
		"nocontent.io": true,
		"missing.com":  false,
		"broken.com":   false,
	}
	for domain, want := range cases {
		got, err := p.IsDomainActive(context.Background(), domain)
		require.NoError(t, err, domain)
		assert.Equal(t, want, got, domain)
	}
	assert.Contains(t, client.requests, "HEAD https://ok.com")
}

func TestIsDomainActiveTransportError(t *testing.T) {
	p := NewDomainProber(WithHTTPClient(&stubHTTPClient{err: errors.New("dial tcp: timeout")}))

	active, err := p.IsDomainActive(context.Background(), "acme.com")
	assert.Error(t, err)
	assert.False(t, active)
}

func TestIsDomainActiveRejectsMalformedDomain(t *testing.T) {
	client := &stubHTTPClient{}
	p := NewDomainProber(WithHTTPClient(client))

	_, err := p.IsDomainActive(context.Background(), "not a domain")
	assert.Error(t, err)
	assert.Empty(t, client.requests)
}

func TestIsDomainActiveUsesCache(t *testing.T) {
	client := &stubHTTPClient{status: map[string]int{"acme.com": http.StatusOK}}
	cache := newMemoryCache()
	p := NewDomainProber(WithHTTPClient(client), WithCache(cache, time.Hour))

	first, err := p.IsDomainActive(context.Background(), "ACME.com")
	require.NoError(t, err)
	second, err := p.IsDomainActive(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.True(t, first)
	assert.True(t, second)
	assert.Len(t, client.requests, 1)
	assert.Equal(t, "true", cache.values[cacheKeyPrefix+"acme.com"])
	assert.Equal(t, time.Hour, cache.ttl)
}

func TestIsDomainActiveDoesNotCacheErrors(t *testing.T) {
	cache := newMemoryCache()
	p := NewDomainProber(WithHTTPClient(&stubHTTPClient{err: errors.New("reset")}), WithCache(cache, 0))

	_, err := p.IsDomainActive(context.Background(), "acme.com")
	require.Error(t, err)
	assert.Empty(t, cache.values)
}

func TestIsDomainActiveCacheReadFailureFallsBackToProbe(t *testing.T) {
	client := &stubHTTPClient{status: map[string]int{"acme.com": http.StatusOK}}
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	p := NewDomainProber(WithHTTPClient(client), WithCache(cache, 0))

	active, err := p.IsDomainActive(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Len(t, client.requests, 1)
}

type blockingHTTPClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	close(b.started)
	<-b.release
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestIsDomainActiveSharedProbeSurvivesCallerCancel(t *testing.T) {
	client := &blockingHTTPClient{started: make(chan struct{}), release: make(chan struct{})}
	cache := newMemoryCache()
	p := NewDomainProber(WithHTTPClient(client), WithCache(cache, 0))

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		active bool
		err    error
	}
	done := make(chan result, 1)
	go func() {
		active, err := p.IsDomainActive(ctx, "acme.com")
		done <- result{active, err}
	}()

	<-client.started
	cancel()
	close(client.release)

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.active)
	assert.Equal(t, "true", cache.values[cacheKeyPrefix+"acme.com"])
}
