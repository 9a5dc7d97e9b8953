package webclient

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/sitelens/internal/model"
)

// Renderer loads a page in a real browser and reports what happened while it
// loaded. Every Render call owns its browser session and releases it before
// returning, on success and on failure.
type Renderer interface {
	Render(ctx context.Context, url string, opts RenderOptions) (*model.RenderedPage, error)
	Close() error
}

// RenderOptions tune a single Render call.
type RenderOptions struct {
	SkipScreenshots bool
}

// Screenshot viewports.
const (
	desktopWidth  = 1920
	desktopHeight = 1080
	mobileWidth   = 375
	mobileHeight  = 667

	screenshotQuality = 80
)

// timingScript reads the Navigation Timing entry in milliseconds.
const timingScript = `(() => {
  const n = performance.getEntriesByType('navigation')[0];
  if (!n) return null;
  return {
    dns: n.domainLookupEnd - n.domainLookupStart,
    tcp: n.connectEnd - n.connectStart,
    request: n.responseStart - n.requestStart,
    response: n.responseEnd - n.responseStart,
    dom: n.domContentLoadedEventEnd - n.responseEnd,
    load: n.loadEventEnd - n.loadEventStart,
    total: n.loadEventEnd > 0 ? n.loadEventEnd - n.startTime : n.duration
  };
})()`

// vitalsScript collects web vitals from buffered performance observers. It
// resolves to a promise, so callers must await it.
const vitalsScript = `new Promise((resolve) => {
  const v = {lcp: 0, fid: 0, cls: 0, fcp: 0, ttfb: 0, tti: 0};
  const observe = (type, fn) => {
    try { new PerformanceObserver((l) => l.getEntries().forEach(fn)).observe({type, buffered: true}); } catch (e) {}
  };
  observe('largest-contentful-paint', (e) => { v.lcp = e.startTime; });
  observe('layout-shift', (e) => { if (!e.hadRecentInput) v.cls += e.value; });
  observe('first-input', (e) => { v.fid = e.processingStart - e.startTime; });
  observe('paint', (e) => { if (e.name === 'first-contentful-paint') v.fcp = e.startTime; });
  const n = performance.getEntriesByType('navigation')[0];
  if (n) { v.ttfb = n.responseStart; v.tti = n.domInteractive; }
  setTimeout(() => resolve(v), 500);
})`

func jpegDataURL(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b)
}

// isDocumentType matches the main-frame resource type across both CDP
// clients, which spell it "Document".
func isDocumentType(t string) bool {
	return strings.EqualFold(t, "document")
}

// pageRecorder accumulates browser events for one page load. Event callbacks
// arrive on the CDP client's goroutine, so every access is locked.
type pageRecorder struct {
	mu sync.Mutex

	status        int
	headers       http.Header
	requests      []model.NetworkRequest
	console       []model.ConsoleMessage
	networkErrors []model.NetworkError
}

func newPageRecorder() *pageRecorder {
	return &pageRecorder{
		headers:       http.Header{},
		requests:      make([]model.NetworkRequest, 0),
		console:       make([]model.ConsoleMessage, 0),
		networkErrors: make([]model.NetworkError, 0),
	}
}

func (r *pageRecorder) request(url, method, resourceType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, model.NetworkRequest{URL: url, Method: method, ResourceType: resourceType})
}

// response records the first document response as the page status and
// every response at or above 400 as a network error.
func (r *pageRecorder) response(url, resourceType string, status int, statusText string, headers http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == 0 && isDocumentType(resourceType) {
		r.status = status
		r.headers = headers
	}
	if status >= 400 {
		r.networkErrors = append(r.networkErrors, model.NetworkError{URL: url, Status: status, StatusText: statusText})
	}
}

func (r *pageRecorder) log(typ, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.console = append(r.console, model.ConsoleMessage{Type: typ, Message: message, Timestamp: time.Now()})
}

// fill copies the recorded events into page.
func (r *pageRecorder) fill(page *model.RenderedPage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page.StatusCode = r.status
	page.Headers = r.headers
	page.Requests = append([]model.NetworkRequest(nil), r.requests...)
	page.Console = append([]model.ConsoleMessage(nil), r.console...)
	page.NetworkErrors = append([]model.NetworkError(nil), r.networkErrors...)
}
