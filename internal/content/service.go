package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tokokriya/storefront/internal/debounce"
	"github.com/tokokriya/storefront/internal/obs"
	"github.com/tokokriya/storefront/internal/resilience"
)

// ErrNotFound indicates the content service has no such section.
var ErrNotFound = errors.New("content: section not found")

// Loader fetches a content section document from its source of truth.
type Loader interface {
	Load(ctx context.Context, section string) (json.RawMessage, error)
}

// HTTPLoader loads sections from the content service REST API.
type HTTPLoader struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// Load fetches one section document.
func (l HTTPLoader) Load(ctx context.Context, section string) (json.RawMessage, error) {
	endpoint := strings.TrimRight(l.BaseURL, "/") + "/content/" + section
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("content: build request: %w", err)
	}
	resp, err := l.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("content: fetch %s: %w", section, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("content: decode %s: %w", section, err)
	}
	return payload.Data, nil
}

// Service serves content sections through the cache.
type Service struct {
	Cache  *Cache
	Loader Loader

	// RefreshDelay is how long after the last invalidation a background
	// reload fires. Bursts of invalidations collapse into one fetch.
	RefreshDelay time.Duration

	mu         sync.Mutex
	refreshers map[string]*debounce.Debouncer
}

// Section returns the document for a section, consulting the cache first.
// The second return reports whether the answer came from the cache.
func (s *Service) Section(ctx context.Context, section string) (json.RawMessage, bool, error) {
	if s == nil || s.Loader == nil {
		return nil, false, errors.New("content service not configured")
	}
	if doc, ok := s.Cache.Get(ctx, section); ok {
		recordLookup("hit")
		return doc, true, nil
	}
	recordLookup("miss")
	doc, err := s.Loader.Load(ctx, section)
	if err != nil {
		return nil, false, err
	}
	s.Cache.Set(ctx, section, doc)
	return doc, false, nil
}

func recordLookup(result string) {
	if obs.ContentCacheTotal != nil {
		obs.ContentCacheTotal.WithLabelValues(result).Inc()
	}
}

// ScheduleRefresh queues a background reload of a section once the current
// burst of invalidations settles. Repeated calls within the delay window
// collapse into a single fetch.
func (s *Service) ScheduleRefresh(section string) {
	if s == nil || s.Loader == nil {
		return
	}
	s.mu.Lock()
	if s.refreshers == nil {
		s.refreshers = make(map[string]*debounce.Debouncer)
	}
	d, ok := s.refreshers[section]
	if !ok {
		d = &debounce.Debouncer{Delay: s.RefreshDelay}
		s.refreshers[section] = d
	}
	s.mu.Unlock()
	d.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Refresh(ctx, section)
	})
}

// Refresh reloads a section from the source and replaces the cached copy.
func (s *Service) Refresh(ctx context.Context, section string) error {
	if s == nil || s.Loader == nil {
		return errors.New("content service not configured")
	}
	doc, err := s.Loader.Load(ctx, section)
	if err != nil {
		return err
	}
	s.Cache.Set(ctx, section, doc)
	return nil
}
