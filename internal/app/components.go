package app

import (
	"fmt"
	"io"
	"net"

	"github.com/raysh454/sitelens/internal/detect"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/probe"
	"github.com/raysh454/sitelens/internal/webclient"
)

// Components are the external collaborators a Scanner talks to. Tests build
// one directly from testutil dummies.
type Components struct {
	WebClient webclient.WebClient
	// Renderer is nil when rendered scans are unavailable.
	Renderer webclient.Renderer

	// Whois is nil when WHOIS lookups are disabled.
	Whois    probe.WhoisClient
	Resolver probe.Resolver
	// Geo is nil when no GeoIP database is configured.
	Geo probe.GeoLocator

	Fingerprinter detect.Fingerprinter
	Signatures    *detect.CustomSignatures

	closers []io.Closer
}

// NewComponents builds the production collaborators from cfg.
func NewComponents(cfg *Config, logger logging.Logger) (*Components, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	webclient.RegisterDefaultBackends()

	c := &Components{
		Resolver: net.DefaultResolver,
		Whois:    probe.NewLikexianWhois(cfg.Probe.Timeouts.Whois),
	}

	wcCfg := cfg.WebClientConfig()
	wc, err := webclient.NewWebClient(wcCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("new webclient: %w", err)
	}
	c.WebClient = wc
	c.closers = append(c.closers, wc)

	if cfg.Renderer.Backend != "" {
		r, err := webclient.NewRenderer(cfg.Renderer.Backend, wcCfg, logger)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("new renderer: %w", err)
		}
		c.Renderer = r
		c.closers = append(c.closers, r)
	}

	if cfg.Probe.GeoIPDatabase != "" {
		geo, err := probe.OpenMaxMind(cfg.Probe.GeoIPDatabase)
		if err != nil {
			// Geolocation is optional; server info still reports the IPs.
			logger.Warn("GeoIP database unavailable",
				logging.Field{Key: "path", Value: cfg.Probe.GeoIPDatabase},
				logging.Field{Key: "error", Value: err.Error()})
		} else {
			c.Geo = geo
			c.closers = append(c.closers, geo)
		}
	}

	if cfg.Scan.Fingerprint {
		fp, err := detect.NewWappalyzerFingerprinter()
		if err != nil {
			logger.Warn("Fingerprint database unavailable", logging.Field{Key: "error", Value: err.Error()})
		} else {
			c.Fingerprinter = fp
		}
	}

	if cfg.Scan.SignaturesFile != "" {
		sigs, err := detect.LoadSignatures(cfg.Scan.SignaturesFile)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("load signatures: %w", err)
		}
		c.Signatures = sigs
		logger.Info("Loaded custom signatures", logging.Field{Key: "count", Value: sigs.Len()})
	}

	return c, nil
}

// Close releases the web client, renderer and GeoIP database.
func (c *Components) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
