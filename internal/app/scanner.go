package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/sitelens/internal/apiminer"
	"github.com/raysh454/sitelens/internal/assessor"
	"github.com/raysh454/sitelens/internal/detect"
	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/probe"
	"github.com/raysh454/sitelens/internal/webclient"
)

// ErrRendererUnavailable is returned for rendered scans when no renderer is
// configured.
var ErrRendererUnavailable = errors.New("no renderer configured")

// ScanStage is a step of the scan state machine.
type ScanStage string

const (
	StagePending    ScanStage = "pending"
	StageFetching   ScanStage = "fetching"
	StageExtracting ScanStage = "extracting"
	StageAnalyzing  ScanStage = "analyzing"
	StageAssembling ScanStage = "assembling"
	StageComplete   ScanStage = "complete"
	StageFailed     ScanStage = "failed"
)

// probeTimeoutReason is recorded by probes that must report even when they
// run out of time.
const probeTimeoutReason = "timeout"

// ProgressFunc is told about every stage a scan enters.
type ProgressFunc func(ScanStage)

// Scanner runs the fetch, extract, analyze and assemble pipeline for one URL
// at a time. It is safe for concurrent use.
type Scanner struct {
	cfg      *Config
	comps    *Components
	analyzer *detect.Analyzer
	assessor assessor.Assessor
	logger   logging.Logger
}

// NewScanner wires a Scanner over comps. comps.WebClient is required.
func NewScanner(cfg *Config, comps *Components, logger logging.Logger) (*Scanner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if comps == nil || comps.WebClient == nil {
		return nil, errors.New("scanner: web client is required")
	}
	if logger == nil {
		return nil, errors.New("scanner: nil logger provided")
	}

	a, err := assessor.NewHeuristicsAssessor(&cfg.Assessor, logger)
	if err != nil {
		return nil, fmt.Errorf("new assessor: %w", err)
	}

	scanLogger := logger.With(logging.Field{Key: "component", Value: "scanner"})
	return &Scanner{
		cfg:   cfg,
		comps: comps,
		analyzer: &detect.Analyzer{
			Fingerprinter: comps.Fingerprinter,
			Custom:        comps.Signatures,
			Logger:        scanLogger,
		},
		assessor: a,
		logger:   scanLogger,
	}, nil
}

// Scan analyzes req.URL. Every failure is a *ScanError; no partial result is
// returned alongside one.
func (s *Scanner) Scan(ctx context.Context, req model.ScanRequest, progress ProgressFunc) (*model.ScanResult, error) {
	report := func(st ScanStage) {
		if progress != nil {
			progress(st)
		}
	}
	fail := func(err *ScanError) (*model.ScanResult, error) {
		report(StageFailed)
		s.logger.Warn("Scan failed",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "status", Value: err.Status},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	start := time.Now()
	report(StagePending)

	target, mode, verr := CheckRequest(req)
	if verr != nil {
		return fail(verr)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ScanTimeout(mode))
	defer cancel()

	s.logger.Info("Scan started",
		logging.Field{Key: "url", Value: target.String()},
		logging.Field{Key: "mode", Value: string(mode)})

	// ─── Fetch ───
	report(StageFetching)
	page, elapsed, err := s.obtain(ctx, target.String(), mode, req)
	if err != nil {
		return fail(classifyFetchError(err, mode))
	}

	// ─── Extract ───
	report(StageExtracting)
	doc, err := document.Parse(page.HTML, page.FinalURL)
	if err != nil {
		return fail(newScanError(http.StatusBadGateway, "The website returned an empty response.", err))
	}
	res := document.ExtractResources(doc)
	origin := target.Scheme + "://" + target.Host
	mined := apiminer.Mine(apiminer.Input{
		Origin:        origin,
		InlineScripts: doc.InlineScripts(),
		ScriptSrcs:    res.Scripts,
		Requests:      page.Requests,
	})

	// ─── Analyze ───
	report(StageAnalyzing)
	overview := s.analyzer.Analyze(detect.NewInput(doc, res, page.Headers, page.Cookies))

	ain := &assessor.Input{
		Doc:       doc,
		Resources: res,
		Headers:   page.Headers,
		SEO:       overview.SEO,
		Elapsed:   elapsed,
	}
	if mode == model.ModeRendered {
		ain.Page = page
	}
	est, err := s.assessor.Assess(ctx, ain)
	if err != nil {
		return fail(classifyFetchError(err, mode))
	}
	overview.Performance = est.Performance
	overview.CarbonFootprint = est.CarbonFootprint
	overview.PageWeight = est.PageWeight
	overview.SocialPreviews = est.SocialPreviews

	if mode == model.ModeRendered {
		overview.ConsoleErrors = consoleErrors(page)
		if page.Screenshots != nil && page.Screenshots.Desktop != "" && page.Screenshots.Mobile != "" {
			overview.Screenshots = page.Screenshots
		}
	}

	pr := s.runProbes(ctx, target, page.Headers, res.Links, req)
	if ctx.Err() != nil {
		return fail(classifyFetchError(ctx.Err(), mode))
	}

	// ─── Assemble ───
	report(StageAssembling)
	pr.apply(overview)

	apiDetails := apiminer.ExtractParameters(mined.APIs, mined.Observed)
	apis := append(make([]string, 0, len(mined.APIs)), mined.APIs...)
	if len(pr.deep) > 0 {
		known := make(map[string]struct{}, len(apis))
		for _, a := range apis {
			known[a] = struct{}{}
		}
		for _, rec := range pr.deep {
			if _, dup := known[rec.URL]; dup {
				continue
			}
			known[rec.URL] = struct{}{}
			apis = append(apis, rec.URL)
			apiDetails = append(apiDetails, rec)
		}
	}

	shown := res.Truncated()
	requests := page.Requests
	if len(requests) > model.MaxNetworkRequests {
		requests = requests[:model.MaxNetworkRequests]
	}

	result := &model.ScanResult{
		URL:         target.String(),
		HTML:        model.TruncateRunes(page.HTML, model.MaxStoredHTML),
		APIs:        apis,
		BackendURLs: mined.BackendURLs,
		Scripts:     shown.Scripts,
		Stylesheets: shown.Stylesheets,
		Images:      shown.Images,
		Links:       shown.Links,
		Metadata: model.Metadata{
			Title:       doc.Title(),
			Description: doc.MetaContent(`meta[name="description"]`),
		},
		NetworkRequests:   requests,
		APIDetails:        apiDetails,
		BackendURLDetails: apiminer.ExtractParameters(mined.BackendURLs, nil),
		Overview:          overview,
		Mode:              mode,
		ScannedAt:         start.UTC(),
		Duration:          time.Since(start),
	}

	report(StageComplete)
	s.logger.Info("Scan complete",
		logging.Field{Key: "url", Value: result.URL},
		logging.Field{Key: "apis", Value: len(result.APIs)},
		logging.Field{Key: "duration", Value: result.Duration.String()})
	return result, nil
}

// obtain fetches or renders target and reports how long the fetch took.
func (s *Scanner) obtain(ctx context.Context, target string, mode model.ScanMode, req model.ScanRequest) (*model.RenderedPage, time.Duration, error) {
	if mode == model.ModeRendered {
		if s.comps.Renderer == nil {
			return nil, 0, ErrRendererUnavailable
		}
		start := time.Now()
		page, err := s.comps.Renderer.Render(ctx, target, webclient.RenderOptions{SkipScreenshots: req.SkipScreenshots})
		if err != nil {
			return nil, 0, err
		}
		return page, time.Since(start), nil
	}

	resp, err := s.comps.WebClient.Do(ctx, &webclient.Request{
		Method:       http.MethodGet,
		URL:          target,
		MaxRedirects: s.cfg.Scan.MaxRedirects,
	})
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode >= 400 {
		return nil, 0, &StatusError{Code: resp.StatusCode}
	}

	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = target
	}
	return &model.RenderedPage{
		RequestedURL: target,
		FinalURL:     finalURL,
		StatusCode:   resp.StatusCode,
		HTML:         string(resp.Body),
		Headers:      resp.Headers,
		Cookies:      responseCookies(resp.Headers, finalURL),
	}, resp.Elapsed, nil
}

// responseCookies parses Set-Cookie headers. Cookies without a Domain
// attribute belong to the response host.
func responseCookies(h http.Header, pageURL string) []model.Cookie {
	parsed := (&http.Response{Header: h}).Cookies()
	if len(parsed) == 0 {
		return nil
	}
	host := ""
	if u, err := (model.ScanRequest{URL: pageURL}).Validate(); err == nil {
		host = u.Hostname()
	}
	out := make([]model.Cookie, 0, len(parsed))
	for _, c := range parsed {
		domain := strings.TrimPrefix(c.Domain, ".")
		if domain == "" {
			domain = host
		}
		out = append(out, model.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   domain,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		})
	}
	return out
}

func consoleErrors(page *model.RenderedPage) *model.ConsoleErrors {
	ce := &model.ConsoleErrors{
		Errors:        append([]model.ConsoleMessage{}, page.Console...),
		NetworkErrors: append([]model.NetworkError{}, page.NetworkErrors...),
	}
	for _, m := range page.Console {
		switch m.Type {
		case "error":
			ce.ErrorCount++
		case "warning":
			ce.WarningCount++
		}
	}
	return ce
}

// ─── Probes ───

// probeResults holds one slot per probe. Each goroutine writes only its own
// slot; a nil slot means skipped or timed out.
type probeResults struct {
	robots  *model.RobotsTxt
	sitemap *model.Sitemap
	tls     *model.TLSCertificate
	whois   *model.WhoisData
	dns     *model.DNSRecords
	server  *model.ServerInfo
	headers *model.SecurityHeaders
	uptime  *model.Uptime
	deep    []model.EndpointRecord
}

func (p *probeResults) apply(o *model.WebsiteOverview) {
	o.RobotsTxt = p.robots
	o.Sitemap = p.sitemap
	o.SSLCertificate = p.tls
	o.WhoisData = p.whois
	o.DNSRecords = p.dns
	o.ServerInfo = p.server
	o.SecurityHeaders = p.headers
	o.Uptime = p.uptime
	if o.Structure != nil {
		o.Structure.HasRobotsTxt = p.robots != nil && p.robots.Exists
		o.Structure.HasSitemap = p.sitemap != nil && p.sitemap.Exists
	}
}

// runProbes fans out every network probe, each under its own timeout, and
// waits for all of them.
func (s *Scanner) runProbes(ctx context.Context, u *url.URL, headers http.Header, links []string, req model.ScanRequest) *probeResults {
	t := s.cfg.Probe.Timeouts
	target, host := u.String(), u.Hostname()
	out := &probeResults{}
	var wg sync.WaitGroup

	goProbe := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started := time.Now()
			fn()
			s.logger.Debug("Probe finished",
				logging.Field{Key: "probe", Value: name},
				logging.Field{Key: "elapsed", Value: time.Since(started).String()})
		}()
	}

	wc := s.comps.WebClient
	// robots and sitemap always report, even when they time out.
	goProbe("robots", func() {
		var ok bool
		out.robots, ok = probe.Run(ctx, t.Robots, func(c context.Context) *model.RobotsTxt {
			return probe.NewRobotsProbe(wc, s.logger).Probe(c, target)
		})
		if !ok || out.robots == nil {
			out.robots = probe.RobotsUnavailable(probeTimeoutReason)
		}
	})
	goProbe("sitemap", func() {
		var ok bool
		out.sitemap, ok = probe.Run(ctx, t.Sitemap, func(c context.Context) *model.Sitemap {
			return probe.NewSitemapProbe(wc, s.logger).Probe(c, target)
		})
		if !ok || out.sitemap == nil {
			out.sitemap = probe.SitemapUnavailable(target, probeTimeoutReason)
		}
	})
	if u.Scheme == "https" {
		goProbe("tls", func() {
			out.tls, _ = probe.Run(ctx, t.TLS, func(c context.Context) *model.TLSCertificate {
				return probe.NewTLSProbe().Probe(c, host)
			})
		})
	}
	if !req.SkipWhois && s.comps.Whois != nil {
		goProbe("whois", func() {
			var ok bool
			out.whois, ok = probe.Run(ctx, t.Whois, func(c context.Context) *model.WhoisData {
				return probe.NewWhoisProbe(s.comps.Whois, s.logger).Probe(c, host)
			})
			if !ok {
				s.logger.Warn("WHOIS lookup timed out", logging.Field{Key: "host", Value: host})
			}
		})
	}
	if s.comps.Resolver != nil {
		goProbe("dns", func() {
			out.dns, _ = probe.Run(ctx, t.DNS, func(c context.Context) *model.DNSRecords {
				return probe.NewDNSProbe(s.comps.Resolver, s.logger).Probe(c, host)
			})
		})
		goProbe("server", func() {
			out.server, _ = probe.Run(ctx, t.ServerInfo, func(c context.Context) *model.ServerInfo {
				return probe.NewServerInfoProbe(s.comps.Resolver, s.comps.Geo, s.logger).Probe(c, host, headers)
			})
		})
	}
	goProbe("headers", func() {
		out.headers, _ = probe.Run(ctx, t.Headers, func(context.Context) *model.SecurityHeaders {
			return probe.AnalyzeSecurityHeaders(headers)
		})
	})
	goProbe("uptime", func() {
		out.uptime, _ = probe.Run(ctx, t.Uptime, func(c context.Context) *model.Uptime {
			up := probe.NewUptimeProbe(wc, s.logger)
			if s.cfg.Probe.WaybackURL != "" {
				up.WaybackURL = s.cfg.Probe.WaybackURL
			}
			if s.cfg.Probe.CDXURL != "" {
				up.CDXURL = s.cfg.Probe.CDXURL
			}
			return up.Probe(c, target)
		})
	})
	if req.DeepScan {
		goProbe("deepscan", func() {
			ds := apiminer.NewDeepScanner(wc, s.cfg.Scan.DeepRate, s.logger)
			if s.cfg.Scan.DeepLinks > 0 {
				ds.MaxLinks = s.cfg.Scan.DeepLinks
			}
			if s.cfg.Scan.DeepTimeout > 0 {
				ds.Timeout = s.cfg.Scan.DeepTimeout
			}
			deepCtx := ctx
			if budget, ok := deepScanBudget(ctx, s.cfg.Scan.DeepBudget); ok {
				var cancel context.CancelFunc
				deepCtx, cancel = context.WithTimeout(ctx, budget)
				defer cancel()
			}
			out.deep = ds.Scan(deepCtx, links, u.Scheme+"://"+u.Host)
		})
	}

	wg.Wait()
	return out
}

// deepScanBudget caps the deep scan at limit and at three quarters of the
// time left before ctx's deadline, so a slow crawl ends with whatever it
// found instead of failing the scan. ok is false when neither bound applies.
func deepScanBudget(ctx context.Context, limit time.Duration) (budget time.Duration, ok bool) {
	budget, ok = limit, limit > 0
	if dl, has := ctx.Deadline(); has {
		if left := time.Until(dl) * 3 / 4; !ok || left < budget {
			budget, ok = left, true
		}
	}
	return budget, ok
}
