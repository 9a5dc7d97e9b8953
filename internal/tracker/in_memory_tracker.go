package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
)

// NewInMemoryTracker constructs a tracker that keeps results in a map. It is
// used when persistence is disabled and in tests.
func NewInMemoryTracker(cfg *Config, logger logging.Logger) (Tracker, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		return nil, errors.New("tracker: nil logger provided")
	}

	return &inMemoryTracker{
		cfg:     cfg,
		logger:  logger,
		results: make(map[string]*model.ScanResult),
	}, nil
}

type inMemoryTracker struct {
	cfg    *Config
	logger logging.Logger

	mu      sync.RWMutex
	results map[string]*model.ScanResult
}

var _ Tracker = (*inMemoryTracker)(nil)

func (m *inMemoryTracker) Save(_ context.Context, result *model.ScanResult) (string, error) {
	if result == nil {
		return "", errors.New("tracker: nil result")
	}
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.ScannedAt.IsZero() {
		result.ScannedAt = time.Now().UTC()
	}
	stored := *result

	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[stored.ID] = &stored

	if m.cfg.MaxHistory > 0 {
		site := siteOf(stored.URL)
		same := m.sortedLocked(site)
		for _, old := range same[min(len(same), m.cfg.MaxHistory):] {
			delete(m.results, old.ID)
		}
	}
	return stored.ID, nil
}

func (m *inMemoryTracker) Get(_ context.Context, id string) (*model.ScanResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (m *inMemoryTracker) List(_ context.Context, opts ListOptions) ([]ScanSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	site := ""
	if opts.Site != "" {
		site = siteOf(opts.Site)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ScanSummary, 0)
	for _, r := range m.sortedLocked(site) {
		if len(out) == limit {
			break
		}
		out = append(out, summarize(r))
	}
	return out, nil
}

// sortedLocked returns results for site (all sites when empty), newest
// first. Callers hold mu.
func (m *inMemoryTracker) sortedLocked(site string) []*model.ScanResult {
	out := make([]*model.ScanResult, 0, len(m.results))
	for _, r := range m.results {
		if site == "" || siteOf(r.URL) == site {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScannedAt.After(out[j].ScannedAt) })
	return out
}

func (m *inMemoryTracker) Diff(ctx context.Context, baseID, headID string) (*ScanDiff, error) {
	base, err := m.Get(ctx, baseID)
	if err != nil {
		return nil, err
	}
	head, err := m.Get(ctx, headID)
	if err != nil {
		return nil, err
	}
	if siteOf(base.URL) != siteOf(head.URL) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrSiteMismatch, siteOf(base.URL), siteOf(head.URL))
	}
	return diffResults(base, head)
}

func (m *inMemoryTracker) Close() error {
	return nil
}
