package model

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidURL is returned when a scan target is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL format")

// ScanMode selects how the target page is obtained.
type ScanMode string

const (
	// ModeBasic fetches the page with a plain HTTP GET.
	ModeBasic ScanMode = "basic"
	// ModeRendered loads the page in a headless browser.
	ModeRendered ScanMode = "rendered"
)

// ScanRequest represents a request to analyze one URL.
type ScanRequest struct {
	// URL is the target URL to analyze.
	URL string `json:"url" example:"https://example.com"`

	// DeepScan enables mining up to 10 same-origin links for extra API endpoints.
	DeepScan bool `json:"deepScan,omitempty"`

	// SkipScreenshots disables desktop/mobile captures in rendered mode.
	SkipScreenshots bool `json:"skipScreenshots,omitempty"`

	// SkipWhois disables the WHOIS probe.
	SkipWhois bool `json:"skipWhois,omitempty"`

	Mode ScanMode `json:"mode,omitempty" example:"basic"`
}

// Validate checks that URL parses as an absolute http or https URL and
// returns the parsed form.
func (r ScanRequest) Validate() (*url.URL, error) {
	raw := strings.TrimSpace(r.URL)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidURL
	}
	if u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Metadata holds the page title and description shown next to a result.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ScanResult is the full output of one scan.
type ScanResult struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`

	// HTML is truncated to MaxStoredHTML characters.
	HTML string `json:"html"`

	APIs        []string `json:"apis"`
	BackendURLs []string `json:"backendUrls"`
	Scripts     []string `json:"scripts"`
	Stylesheets []string `json:"stylesheets"`
	Images      []string `json:"images"`
	Links       []string `json:"links"`

	Metadata        Metadata         `json:"metadata"`
	NetworkRequests []NetworkRequest `json:"networkRequests,omitempty"`

	APIDetails        []EndpointRecord `json:"apiDetails"`
	BackendURLDetails []EndpointRecord `json:"backendUrlDetails"`

	Overview *WebsiteOverview `json:"overview,omitempty"`

	Mode      ScanMode      `json:"mode"`
	ScannedAt time.Time     `json:"scannedAt"`
	Duration  time.Duration `json:"durationNs"`
}

const (
	// MaxStoredHTML bounds the HTML kept in a ScanResult.
	MaxStoredHTML = 50000
	// MaxNetworkRequests bounds captured requests kept in a ScanResult.
	MaxNetworkRequests = 50
)

// TruncateRunes returns s cut to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
