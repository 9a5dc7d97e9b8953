package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
	ClientRod      Client = "rod"
)

// DefaultUserAgent is sent by every backend unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config carries the settings every backend understands. It is filled from
// app.Config by the caller so this package does not import app.
type Config struct {
	Client       Client
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string

	// Renderer settings, ignored by nethttp.
	Headless          bool
	IdleAfter         time.Duration
	NavigationTimeout time.Duration
	BrowserPath       string
}

// DefaultConfig mirrors the timeouts of a basic scan.
func DefaultConfig() Config {
	return Config{
		Client:            ClientNetHTTP,
		Timeout:           20 * time.Second,
		MaxRedirects:      5,
		MaxBodyBytes:      10 << 20,
		UserAgent:         DefaultUserAgent,
		Headless:          true,
		IdleAfter:         2 * time.Second,
		NavigationTimeout: 45 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Client == "" {
		c.Client = d.Client
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = d.MaxRedirects
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = d.IdleAfter
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = d.NavigationTimeout
	}
	return c
}
