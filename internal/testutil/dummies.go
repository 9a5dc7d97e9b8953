// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyPage is a canned response for one URL.
type DummyPage struct {
	Status  int
	Body    string
	Headers http.Header
}

// DummyWebClient implements webclient.WebClient.
// URLs listed in Pages get their canned response; any other URL returns body
// "ok:<url>" with status 200.
// Set FailURLs[url] = true to force an error for a specific URL.
// DelayURLs adds a per-URL delay on top of ResponseDelay.
type DummyWebClient struct {
	ResponseDelay time.Duration
	DelayURLs     map[string]time.Duration
	FailURLs      map[string]bool
	Pages         map[string]DummyPage
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if delay := d.ResponseDelay + d.DelayURLs[req.URL]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	resp := &webclient.Response{
		Request:    req,
		FinalURL:   req.URL,
		Body:       []byte("ok:" + req.URL),
		Headers:    http.Header{},
		StatusCode: 200,
		FetchedAt:  time.Now(),
	}
	if page, ok := d.Pages[req.URL]; ok {
		resp.Body = []byte(page.Body)
		if page.Status != 0 {
			resp.StatusCode = page.Status
		}
		if page.Headers != nil {
			resp.Headers = page.Headers.Clone()
		}
	}
	return resp, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestedURLs returns the URLs requested so far, in order.
func (d *DummyWebClient) RequestedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.Requests))
	for _, r := range d.Requests {
		out = append(out, r.URL)
	}
	return out
}

// ─── Renderer ──────────────────────────────────────────────────────────

// DummyRenderer implements webclient.Renderer with a canned page.
type DummyRenderer struct {
	Page  *model.RenderedPage
	Err   error
	Delay time.Duration

	mu      sync.Mutex
	Calls   int
	Options []webclient.RenderOptions
	Closed  bool
}

func (r *DummyRenderer) Render(ctx context.Context, url string, opts webclient.RenderOptions) (*model.RenderedPage, error) {
	r.mu.Lock()
	r.Calls++
	r.Options = append(r.Options, opts)
	r.mu.Unlock()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	page := *r.Page
	if page.RequestedURL == "" {
		page.RequestedURL = url
	}
	if page.FinalURL == "" {
		page.FinalURL = url
	}
	return &page, nil
}

func (r *DummyRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = true
	return nil
}

// ─── Probe clients ─────────────────────────────────────────────────────

// DummyWhois implements probe.WhoisClient.
type DummyWhois struct {
	Raw   string
	Err   error
	Delay time.Duration
}

func (w *DummyWhois) Whois(ctx context.Context, _ string) (string, error) {
	if w.Delay > 0 {
		select {
		case <-time.After(w.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return w.Raw, w.Err
}

// DummyGeo implements probe.GeoLocator.
type DummyGeo struct {
	Location *model.GeoLocation
	Err      error
}

func (g *DummyGeo) Locate(net.IP) (*model.GeoLocation, error) {
	return g.Location, g.Err
}

// DummyResolver implements probe.Resolver from static tables keyed by host.
// Hosts missing from a table fail that lookup.
type DummyResolver struct {
	IPv4 map[string][]string
	IPv6 map[string][]string
	MX   map[string][]*net.MX
	TXT  map[string][]string
	NS   map[string][]string
}

func (r *DummyResolver) LookupIP(_ context.Context, network, host string) ([]net.IP, error) {
	table := r.IPv4
	if network == "ip6" {
		table = r.IPv6
	}
	raw, ok := table[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	ips := make([]net.IP, 0, len(raw))
	for _, s := range raw {
		ips = append(ips, net.ParseIP(s))
	}
	return ips, nil
}

func (r *DummyResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	if v, ok := r.MX[name]; ok {
		return v, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (r *DummyResolver) LookupTXT(_ context.Context, name string) ([]string, error) {
	if v, ok := r.TXT[name]; ok {
		return v, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (r *DummyResolver) LookupNS(_ context.Context, name string) ([]*net.NS, error) {
	v, ok := r.NS[name]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
	}
	out := make([]*net.NS, 0, len(v))
	for _, h := range v {
		out = append(out, &net.NS{Host: h})
	}
	return out, nil
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
