// Package probe holds the network and infrastructure probes that run next to
// page analysis. Every probe is bounded by its own timeout and reports
// failure through its result, never by aborting the scan.
package probe

import (
	"context"
	"errors"
	"time"
)

// ErrNoAddress is returned when a host resolves to no usable IP address.
var ErrNoAddress = errors.New("no address for host")

// Timeouts bounds each probe.
type Timeouts struct {
	Robots     time.Duration `mapstructure:"robots"`
	Sitemap    time.Duration `mapstructure:"sitemap"`
	TLS        time.Duration `mapstructure:"tls"`
	Whois      time.Duration `mapstructure:"whois"`
	DNS        time.Duration `mapstructure:"dns"`
	ServerInfo time.Duration `mapstructure:"server_info"`
	Uptime     time.Duration `mapstructure:"uptime"`
	Headers    time.Duration `mapstructure:"headers"`
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Robots:     5 * time.Second,
		Sitemap:    5 * time.Second,
		TLS:        5 * time.Second,
		Whois:      6 * time.Second,
		DNS:        4 * time.Second,
		ServerInfo: 2 * time.Second,
		Uptime:     5 * time.Second,
		Headers:    2 * time.Second,
	}
}

// Run calls fn under a context bounded by timeout. ok is false when the
// deadline or ctx fired before fn returned; fn's late result is discarded,
// so probes backed by libraries that ignore ctx are still bounded.
func Run[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) T) (result T, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan T, 1)
	go func() { done <- fn(ctx) }()

	select {
	case v := <-done:
		return v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}
