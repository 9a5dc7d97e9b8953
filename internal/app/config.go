package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/raysh454/sitelens/internal/assessor"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/probe"
	"github.com/raysh454/sitelens/internal/tracker"
	"github.com/raysh454/sitelens/internal/webclient"
)

// EnvPrefix namespaces environment overrides, e.g. SITELENS_SERVER_ADDR.
const EnvPrefix = "SITELENS"

// Config is the runtime configuration shared by the CLI, the server and the
// scan pipeline.
type Config struct {
	Scan     ScanConfig      `mapstructure:"scan"`
	Probe    ProbeConfig     `mapstructure:"probe"`
	Renderer RendererConfig  `mapstructure:"renderer"`
	Storage  tracker.Config  `mapstructure:"storage"`
	Server   ServerConfig    `mapstructure:"server"`
	Assessor assessor.Config `mapstructure:"assessor"`

	// DevLogging switches to the human-readable development logger.
	DevLogging bool `mapstructure:"dev_logging"`
}

type ScanConfig struct {
	// Outer hard timeouts for a whole scan.
	BasicTimeout    time.Duration `mapstructure:"basic_timeout"`
	RenderedTimeout time.Duration `mapstructure:"rendered_timeout"`

	// FetchTimeout bounds the plain HTTP fetch of the target.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	UserAgent    string        `mapstructure:"user_agent"`

	DeepLinks   int           `mapstructure:"deep_links"`
	DeepTimeout time.Duration `mapstructure:"deep_timeout"`
	// DeepBudget bounds the whole deep scan; it is further capped by the
	// time left in the scan. <= 0 leaves only that cap.
	DeepBudget time.Duration `mapstructure:"deep_budget"`
	// DeepRate is pages per second for the deep scan; <= 0 is unlimited.
	DeepRate float64 `mapstructure:"deep_rate"`

	// SignaturesFile is an optional YAML file of extra technology signatures.
	SignaturesFile string `mapstructure:"signatures_file"`
	// Fingerprint enables the wappalyzer fingerprint database.
	Fingerprint bool `mapstructure:"fingerprint"`
}

type ProbeConfig struct {
	Timeouts probe.Timeouts `mapstructure:"timeouts"`

	// GeoIPDatabase is a MaxMind City database; empty disables geolocation.
	GeoIPDatabase string `mapstructure:"geoip_database"`

	WaybackURL string `mapstructure:"wayback_url"`
	CDXURL     string `mapstructure:"cdx_url"`
}

type RendererConfig struct {
	// Backend names a registered renderer: "chromedp" or "rod".
	Backend           string        `mapstructure:"backend"`
	Headless          bool          `mapstructure:"headless"`
	BrowserPath       string        `mapstructure:"browser_path"`
	IdleAfter         time.Duration `mapstructure:"idle_after"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`

	// RateLimit is requests per second per client IP on scan routes.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	// JobRetention is how long finished jobs stay queryable.
	JobRetention time.Duration `mapstructure:"job_retention"`

	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// DefaultConfig returns a Config populated with the stock timeouts.
func DefaultConfig() *Config {
	wc := webclient.DefaultConfig()
	return &Config{
		Scan: ScanConfig{
			BasicTimeout:    60 * time.Second,
			RenderedTimeout: 90 * time.Second,
			FetchTimeout:    wc.Timeout,
			MaxRedirects:    wc.MaxRedirects,
			UserAgent:       wc.UserAgent,
			DeepLinks:       10,
			DeepTimeout:     5 * time.Second,
			DeepBudget:      30 * time.Second,
			DeepRate:        4,
			Fingerprint:     true,
		},
		Probe: ProbeConfig{
			Timeouts:   probe.DefaultTimeouts(),
			WaybackURL: probe.DefaultWaybackURL,
			CDXURL:     probe.DefaultCDXURL,
		},
		Renderer: RendererConfig{
			Backend:           string(webclient.ClientChromedp),
			Headless:          true,
			IdleAfter:         wc.IdleAfter,
			NavigationTimeout: wc.NavigationTimeout,
		},
		Storage: tracker.Config{
			Path:       defaultStoragePath(),
			MaxHistory: 50,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			RateLimit:     2,
			RateBurst:     10,
			JobRetention:  10 * time.Minute,
			AllowedOrigin: "*",
		},
		Assessor: *assessor.DefaultConfig(),
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sitelens", "scans.db")
	}
	return filepath.Join(home, ".sitelens", "scans.db")
}

// ScanTimeout returns the outer hard timeout for mode.
func (c *Config) ScanTimeout(mode model.ScanMode) time.Duration {
	if mode == model.ModeRendered {
		return c.Scan.RenderedTimeout
	}
	return c.Scan.BasicTimeout
}

// WebClientConfig derives the webclient settings shared by the HTTP client
// and the renderers.
func (c *Config) WebClientConfig() webclient.Config {
	return webclient.Config{
		Client:            webclient.ClientNetHTTP,
		Timeout:           c.Scan.FetchTimeout,
		MaxRedirects:      c.Scan.MaxRedirects,
		UserAgent:         c.Scan.UserAgent,
		Headless:          c.Renderer.Headless,
		IdleAfter:         c.Renderer.IdleAfter,
		NavigationTimeout: c.Renderer.NavigationTimeout,
		BrowserPath:       c.Renderer.BrowserPath,
	}
}

// LoadConfig reads path (or $HOME/.sitelens.yaml when empty), applies
// SITELENS_* environment overrides and falls back to DefaultConfig for
// anything unset. A missing default file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	registerDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("$HOME")
		v.SetConfigName(".sitelens")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	return cfg, nil
}

// registerDefaults makes every key known to viper so env overrides apply to
// keys absent from the file.
func registerDefaults(v *viper.Viper, d *Config) {
	defaults := map[string]any{
		"dev_logging": d.DevLogging,

		"scan.basic_timeout":    d.Scan.BasicTimeout,
		"scan.rendered_timeout": d.Scan.RenderedTimeout,
		"scan.fetch_timeout":    d.Scan.FetchTimeout,
		"scan.max_redirects":    d.Scan.MaxRedirects,
		"scan.user_agent":       d.Scan.UserAgent,
		"scan.deep_links":       d.Scan.DeepLinks,
		"scan.deep_timeout":     d.Scan.DeepTimeout,
		"scan.deep_budget":      d.Scan.DeepBudget,
		"scan.deep_rate":        d.Scan.DeepRate,
		"scan.signatures_file":  d.Scan.SignaturesFile,
		"scan.fingerprint":      d.Scan.Fingerprint,

		"probe.timeouts.robots":      d.Probe.Timeouts.Robots,
		"probe.timeouts.sitemap":     d.Probe.Timeouts.Sitemap,
		"probe.timeouts.tls":         d.Probe.Timeouts.TLS,
		"probe.timeouts.whois":       d.Probe.Timeouts.Whois,
		"probe.timeouts.dns":         d.Probe.Timeouts.DNS,
		"probe.timeouts.server_info": d.Probe.Timeouts.ServerInfo,
		"probe.timeouts.uptime":      d.Probe.Timeouts.Uptime,
		"probe.timeouts.headers":     d.Probe.Timeouts.Headers,
		"probe.geoip_database":       d.Probe.GeoIPDatabase,
		"probe.wayback_url":          d.Probe.WaybackURL,
		"probe.cdx_url":              d.Probe.CDXURL,

		"renderer.backend":            d.Renderer.Backend,
		"renderer.headless":           d.Renderer.Headless,
		"renderer.browser_path":       d.Renderer.BrowserPath,
		"renderer.idle_after":         d.Renderer.IdleAfter,
		"renderer.navigation_timeout": d.Renderer.NavigationTimeout,

		"storage.path":        d.Storage.Path,
		"storage.max_history": d.Storage.MaxHistory,

		"server.addr":           d.Server.Addr,
		"server.rate_limit":     d.Server.RateLimit,
		"server.rate_burst":     d.Server.RateBurst,
		"server.job_retention":  d.Server.JobRetention,
		"server.allowed_origin": d.Server.AllowedOrigin,

		"assessor.energy_per_byte":  d.Assessor.EnergyPerByte,
		"assessor.grid_intensity":   d.Assessor.GridIntensity,
		"assessor.stylesheet_bytes": d.Assessor.StylesheetBytes,
		"assessor.script_bytes":     d.Assessor.ScriptBytes,
		"assessor.image_bytes":      d.Assessor.ImageBytes,
		"assessor.max_images":       d.Assessor.MaxImages,
		"assessor.max_scripts":      d.Assessor.MaxScripts,
		"assessor.max_stylesheets":  d.Assessor.MaxStylesheets,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
