package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/testutil"
	"github.com/raysh454/sitelens/internal/tracker"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const newsHTML = `<!DOCTYPE html>
<html><head><title>Daily News</title>
<meta name="description" content="Headlines">
<script src="https://www.googletagmanager.com/gtag/js?id=G-1"></script>
</head><body>
<a href="/world">World</a>
<script>fetch("/api/headlines")</script>
</body></html>`

// writeConfig points storage at a sqlite file in a temp dir so separate
// invocations share history.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sitelens.yaml")
	yaml := fmt.Sprintf(`
scan:
  deep_rate: 0
  fingerprint: false
probe:
  timeouts:
    robots: 300ms
    sitemap: 300ms
    whois: 300ms
    dns: 300ms
    server_info: 300ms
    uptime: 300ms
  wayback_url: "http://archive.test/wayback/available"
  cdx_url: "http://archive.test/cdx"
renderer:
  backend: ""
storage:
  path: %q
`, filepath.Join(dir, "scans.db"))
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func dummyApp(cfg *app.Config, logger logging.Logger) (*app.Application, error) {
	comps := &app.Components{
		WebClient: &testutil.DummyWebClient{Pages: map[string]testutil.DummyPage{
			"http://news.test/": {
				Body:    newsHTML,
				Headers: http.Header{"Content-Type": {"text/html"}, "Strict-Transport-Security": {"max-age=31536000"}},
			},
			"http://news.test/gone": {Status: 404},
		}},
		Whois:    &testutil.DummyWhois{Raw: "Domain Name: news.test\nRegistrar: News Registrar LLC\n"},
		Resolver: &testutil.DummyResolver{IPv4: map[string][]string{"news.test": {"198.51.100.4"}}},
	}
	tr, err := tracker.NewSQLiteTracker(logger, &cfg.Storage)
	if err != nil {
		return nil, err
	}
	return app.NewApplicationWith(cfg, logger, comps, tr)
}

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	opts := &options{logger: &testutil.DummyLogger{}, newApp: dummyApp}
	root := newRootCmd(opts)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--config", writeConfig(t, dir)}, args...))
	err := root.Execute()
	return buf.String(), err
}

// ─── scan ──────────────────────────────────────────────────────────────

func TestScanCmd_Report(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	out, err := runCLI(t, dir, "scan", "http://news.test/")
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	for _, want := range []string{"Scan of http://news.test/", "Daily News", "Security headers", "News Registrar LLC", "198.51.100.4", "/api/headlines"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestScanCmd_JSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	out, err := runCLI(t, dir, "scan", "--json", "--skip-whois", "http://news.test/")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var res model.ScanResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Mode != model.ModeBasic || res.Overview == nil || res.Overview.WhoisData != nil {
		t.Errorf("result = %+v", res)
	}
}

func TestScanCmd_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := runCLI(t, dir, "scan", "http://news.test/gone")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("404 err = %v", err)
	}
	_, err = runCLI(t, dir, "scan", "--mode", "rendered", "http://news.test/")
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("rendered without browser err = %v", err)
	}
	if _, err := runCLI(t, dir, "scan"); err == nil {
		t.Error("expected an argument error")
	}
}

// ─── history / show / diff ─────────────────────────────────────────────

func TestHistoryShowDiff(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var ids []string
	for _, extra := range [][]string{{"--skip-whois"}, nil} {
		args := append([]string{"scan", "--json"}, extra...)
		out, err := runCLI(t, dir, append(args, "http://news.test/")...)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		var res model.ScanResult
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.ID)
	}

	out, err := runCLI(t, dir, "history", "--json", "--site", "news.test")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var list []tracker.ScanSummary
	if err := json.Unmarshal([]byte(out), &list); err != nil || len(list) != 2 {
		t.Fatalf("history = %s (%v)", out, err)
	}

	out, err = runCLI(t, dir, "history")
	if err != nil || !strings.Contains(out, ids[0]) {
		t.Errorf("history table = %q (%v)", out, err)
	}

	out, err = runCLI(t, dir, "show", ids[1])
	if err != nil || !strings.Contains(out, "Daily News") {
		t.Errorf("show = %q (%v)", out, err)
	}

	out, err = runCLI(t, dir, "diff", ids[0], ids[1])
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "whoisData") {
		t.Errorf("diff output = %q", out)
	}

	if _, err := runCLI(t, dir, "show", "missing"); err == nil {
		t.Error("expected error for unknown scan")
	}
}

func TestHistoryCmd_Empty(t *testing.T) {
	t.Parallel()
	out, err := runCLI(t, t.TempDir(), "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "no scans recorded") {
		t.Errorf("out = %q", out)
	}
}

// ─── formatting ────────────────────────────────────────────────────────

func TestFormatGrade(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"A+", "A+"},
		{"C", "C"},
		{"F", "F"},
		{"", "-"},
	}
	for _, tt := range tests {
		if got := formatGrade(tt.in); got != tt.want {
			t.Errorf("formatGrade(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()
	items := make([]string, 13)
	for i := range items {
		items[i] = fmt.Sprint(i)
	}
	got := limit(items)
	if len(got) != maxListed+1 || got[maxListed] != "… 3 more" {
		t.Errorf("limit = %v", got)
	}
	if len(limit(items[:2])) != 2 {
		t.Error("short lists should pass through")
	}
}
