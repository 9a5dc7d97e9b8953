package demosite_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/demosite"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/testutil"
	"github.com/raysh454/sitelens/internal/tracker"
	"github.com/raysh454/sitelens/internal/webclient"
)

func newSite(t *testing.T) (*demosite.DemoSite, *httptest.Server) {
	t.Helper()
	site := demosite.New(demosite.DefaultConfig(), &testutil.DummyLogger{})
	ts := httptest.NewServer(site.Handler())
	t.Cleanup(ts.Close)
	return site, ts
}

func get(t *testing.T, rawURL string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

// ─── Pages ─────────────────────────────────────────────────────────────

func TestDemoSite_ServesVersions(t *testing.T) {
	t.Parallel()
	site, ts := newSite(t)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "/api/products") {
		t.Fatalf("v1 home = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Security-Policy") != "" {
		t.Error("v1 should not send CSP")
	}

	site.SetVersion("/", 3)
	resp, body = get(t, ts.URL+"/")
	if resp.Header.Get("Content-Security-Policy") == "" || !strings.Contains(body, "js.stripe.com") {
		t.Errorf("v3 home missing hardening or stripe")
	}
	var sawSession bool
	for _, c := range resp.Cookies() {
		sawSession = sawSession || (c.Name == "session" && c.HttpOnly)
	}
	if !sawSession {
		t.Error("v3 should set an HttpOnly session cookie")
	}
}

func TestDemoSite_FallsBackToLowerVersion(t *testing.T) {
	t.Parallel()
	site, ts := newSite(t)

	site.SetVersion("/shop", 2)
	if resp, body := get(t, ts.URL+"/shop"); resp.StatusCode != http.StatusOK || !strings.Contains(body, "Demo Mug") {
		t.Errorf("v2 shop should fall back to v1: %d", resp.StatusCode)
	}
	site.SetVersion("/shop", 3)
	if resp, _ := get(t, ts.URL+"/shop"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("v3 shop = %d, want 404", resp.StatusCode)
	}
}

func TestDemoSite_UnknownPath(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)
	if resp, _ := get(t, ts.URL+"/nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

// ─── Control endpoints ─────────────────────────────────────────────────

func TestDemoSite_ControlEndpoints(t *testing.T) {
	t.Parallel()
	site, ts := newSite(t)

	resp, err := http.PostForm(ts.URL+"/demo/set-version", url.Values{"path": {"/"}, "version": {"2"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set-version = %d", resp.StatusCode)
	}

	resp, err = http.PostForm(ts.URL+"/demo/set-version", url.Values{"path": {"/missing"}, "version": {"2"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown page = %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/demo/bump-all", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	_, body := get(t, ts.URL+"/demo/versions")
	var pages []struct {
		Path           string `json:"path"`
		CurrentVersion int    `json:"current_version"`
	}
	if err := json.Unmarshal([]byte(body), &pages); err != nil {
		t.Fatalf("versions: %v", err)
	}
	got := map[string]int{}
	for _, p := range pages {
		got[p.Path] = p.CurrentVersion
	}
	if got["/"] != 3 {
		t.Errorf("home after bump = %d, want 3", got["/"])
	}
	if got["/about"] != 1 {
		t.Errorf("bump should cap at newest version, about = %d", got["/about"])
	}

	site.Reset()
	if _, body := get(t, ts.URL+"/demo/control"); !strings.Contains(body, "(v1)") {
		t.Error("control panel should show v1 after reset")
	}

	if resp, _ := get(t, ts.URL+"/demo/reset"); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET reset = %d", resp.StatusCode)
	}
}

// ─── End to end ────────────────────────────────────────────────────────

func TestDemoSite_ScanAndDiff(t *testing.T) {
	t.Parallel()
	site, ts := newSite(t)
	logger := &testutil.DummyLogger{}

	cfg := app.DefaultConfig()
	cfg.Storage.Path = "memory"
	cfg.Scan.DeepRate = 0
	cfg.Probe.WaybackURL = ts.URL + "/wayback"
	cfg.Probe.CDXURL = ts.URL + "/cdx"
	cfg.Probe.Timeouts.Uptime = time.Second

	wc, err := webclient.NewNetHTTPClient(cfg.WebClientConfig(), logger, nil)
	if err != nil {
		t.Fatalf("web client: %v", err)
	}
	tr, err := tracker.NewInMemoryTracker(&cfg.Storage, logger)
	if err != nil {
		t.Fatal(err)
	}
	a, err := app.NewApplicationWith(cfg, logger, &app.Components{WebClient: wc}, tr)
	if err != nil {
		t.Fatalf("application: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	ctx := context.Background()
	req := model.ScanRequest{URL: ts.URL + "/", SkipWhois: true}

	first, err := a.Orch.Scan(ctx, req)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if first.Overview.Structure == nil || !first.Overview.Structure.HasRobotsTxt {
		t.Errorf("robots.txt not detected: %+v", first.Overview.Structure)
	}

	site.SetVersion("/", 3)
	second, err := a.Orch.Scan(ctx, req)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if first.Overview.SecurityHeaders.Score >= second.Overview.SecurityHeaders.Score {
		t.Errorf("hardened version should score higher: %d vs %d",
			first.Overview.SecurityHeaders.Score, second.Overview.SecurityHeaders.Score)
	}

	d, err := a.Orch.DiffScans(ctx, first.ID, second.ID)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !slices.Contains(d.ChangedCategories, "securityHeaders") {
		t.Errorf("ChangedCategories = %v", d.ChangedCategories)
	}
}
