package model

import (
	"net/http"
	"time"
)

// NetworkRequest is one request observed while the page loaded.
type NetworkRequest struct {
	URL          string `json:"url"`
	Method       string `json:"method"`
	ResourceType string `json:"resourceType,omitempty"`
}

// Cookie is a cookie set by the target, either via Set-Cookie or by the
// rendered page.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
}

// ConsoleMessage is a console or runtime message emitted by the page.
type ConsoleMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NetworkError is a subresource that answered with status >= 400.
type NetworkError struct {
	URL        string `json:"url"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// Screenshots holds data URLs for the captured viewports.
type Screenshots struct {
	Desktop    string    `json:"desktop,omitempty"`
	Mobile     string    `json:"mobile,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
}

// NavigationTiming is the browser's navigation timing breakdown in milliseconds.
type NavigationTiming struct {
	DNS      float64 `json:"dns"`
	TCP      float64 `json:"tcp"`
	Request  float64 `json:"request"`
	Response float64 `json:"response"`
	DOM      float64 `json:"dom"`
	Load     float64 `json:"load"`
	Total    float64 `json:"total"`
}

// WebVitals are the core web vitals observed in the browser, in milliseconds
// except CLS which is unitless.
type WebVitals struct {
	LCP  float64 `json:"lcp"`
	FID  float64 `json:"fid"`
	CLS  float64 `json:"cls"`
	FCP  float64 `json:"fcp"`
	TTFB float64 `json:"ttfb"`
	TTI  float64 `json:"tti"`
}

// RenderedPage is what a fetch or render produced for the target URL. It is
// read-only once handed to the analyzers.
type RenderedPage struct {
	RequestedURL string
	FinalURL     string
	StatusCode   int
	HTML         string
	Headers      http.Header

	Requests      []NetworkRequest
	Cookies       []Cookie
	Console       []ConsoleMessage
	NetworkErrors []NetworkError
	Screenshots   *Screenshots

	// Timing and WebVitals are only set by browser renderers.
	Timing    *NavigationTiming
	WebVitals *WebVitals

	LoadTime time.Duration
}

// Header returns the first value of a response header, case-insensitively.
func (p *RenderedPage) Header(name string) string {
	if p == nil || p.Headers == nil {
		return ""
	}
	return p.Headers.Get(name)
}
