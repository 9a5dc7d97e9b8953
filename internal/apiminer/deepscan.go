package apiminer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/webclient"
	"golang.org/x/time/rate"
)

const (
	DefaultDeepLinks   = 10
	DefaultDeepTimeout = 5 * time.Second
	deepMaxRedirects   = 2
)

// DeepScanner visits a handful of same-origin links one at a time and mines
// their inline scripts for /api/ endpoints.
type DeepScanner struct {
	MaxLinks int
	Timeout  time.Duration

	wc      webclient.WebClient
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewDeepScanner returns a scanner that fetches at most rps pages per second
// through wc. rps <= 0 disables the limit.
func NewDeepScanner(wc webclient.WebClient, rps float64, logger logging.Logger) *DeepScanner {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &DeepScanner{
		MaxLinks: DefaultDeepLinks,
		Timeout:  DefaultDeepTimeout,
		wc:       wc,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.With(logging.Field{Key: "component", Value: "deepscan"}),
	}
}

// SameOriginLinks keeps links whose origin equals origin, deduplicated, and
// returns at most max of them.
func SameOriginLinks(links []string, origin string, max int) []string {
	origin = strings.ToLower(origin)
	seen := make(map[string]struct{})
	out := make([]string, 0, max)
	for _, l := range links {
		if len(out) >= max {
			break
		}
		u, err := url.Parse(l)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		if strings.ToLower(u.Scheme+"://"+u.Host) != origin {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Scan fetches the eligible links sequentially and returns the deduplicated
// endpoint records found on them. Failed pages are skipped; only ctx
// cancellation stops the scan early.
func (d *DeepScanner) Scan(ctx context.Context, links []string, origin string) []model.EndpointRecord {
	targets := SameOriginLinks(links, origin, d.MaxLinks)
	d.logger.Debug("deep scan starting",
		logging.Field{Key: "origin", Value: origin},
		logging.Field{Key: "links", Value: len(targets)})

	seen := newOrderedSet()
	for _, link := range targets {
		if err := d.limiter.Wait(ctx); err != nil {
			d.logger.Debug("deep scan stopped", logging.Field{Key: "error", Value: err})
			break
		}
		urls, err := d.scanPage(ctx, link, origin)
		if err != nil {
			d.logger.Debug("skipping link",
				logging.Field{Key: "url", Value: link},
				logging.Field{Key: "error", Value: err})
			continue
		}
		for _, u := range urls {
			seen.add(u)
		}
	}
	found := ExtractParameters(seen.items, nil)

	d.logger.Info("deep scan finished",
		logging.Field{Key: "origin", Value: origin},
		logging.Field{Key: "endpoints", Value: len(found)})
	return found
}

func (d *DeepScanner) scanPage(ctx context.Context, link, origin string) ([]string, error) {
	pageCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	resp, err := d.wc.Do(pageCtx, &webclient.Request{Method: "GET", URL: link, MaxRedirects: deepMaxRedirects})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := document.Parse(string(resp.Body), link)
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(origin)
	var out []string
	for _, script := range doc.InlineScripts() {
		for _, raw := range candidates(script, deepPatterns) {
			if !strings.Contains(raw, "/api/") {
				continue
			}
			if abs, ok := absolutize(raw, base); ok {
				out = append(out, abs)
			}
		}
	}
	return out, nil
}
