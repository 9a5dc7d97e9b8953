package assessor_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/sitelens/internal/assessor"
	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
)

func newAssessor(t *testing.T) *assessor.HeuristicsAssessor {
	t.Helper()
	a, err := assessor.NewHeuristicsAssessor(assessor.DefaultConfig(), logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewHeuristicsAssessor returned error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func parse(t *testing.T, html string) *document.Document {
	t.Helper()
	doc, err := document.Parse(html, "https://example.com/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func repeat(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + strings.Repeat("x", i)
	}
	return out
}

// ─── Construction ──────────────────────────────────────────────────────

func TestNewHeuristicsAssessor_NilConfig(t *testing.T) {
	t.Parallel()
	_, err := assessor.NewHeuristicsAssessor(nil, logging.NewNopLogger())
	if !errors.Is(err, assessor.ErrNilConfig) {
		t.Fatalf("err = %v, want ErrNilConfig", err)
	}
}

func TestNewHeuristicsAssessor_NilLogger(t *testing.T) {
	t.Parallel()
	if _, err := assessor.NewHeuristicsAssessor(assessor.DefaultConfig(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

// ─── Carbon ────────────────────────────────────────────────────────────

func TestCarbonFootprint_Bands(t *testing.T) {
	t.Parallel()
	cfg := assessor.DefaultConfig()
	tests := []struct {
		bytes   int
		rating  string
		cleaner int
		compare string
	}{
		{0, "A+", 95, "Excellent - Much cleaner than average"},
		{100000, "A+", 95, "Excellent - Much cleaner than average"}, // 0.0855 g
		{150000, "A", 85, "Excellent - Much cleaner than average"},  // 0.128 g
		{300000, "B", 70, "Good - Cleaner than average"},            // 0.2565 g
		{500000, "C", 50, "Average"},                                // 0.4275 g
		{700000, "D", 30, "Below average"},                          // 0.5985 g
		{1000000, "E", 10, "Poor - Much worse than average"},        // 0.855 g
		{2000000, "F", 0, "Poor - Much worse than average"},         // 1.71 g
	}
	for _, tt := range tests {
		got := cfg.CarbonFootprint(tt.bytes)
		if got.Rating != tt.rating || got.CleanerThan != tt.cleaner || got.Comparison != tt.compare {
			t.Errorf("CarbonFootprint(%d) = %s/%d/%q, want %s/%d/%q",
				tt.bytes, got.Rating, got.CleanerThan, got.Comparison, tt.rating, tt.cleaner, tt.compare)
		}
		if got.BytesAnalyzed != tt.bytes {
			t.Errorf("BytesAnalyzed = %d, want %d", got.BytesAnalyzed, tt.bytes)
		}
	}
}

func TestCarbonFootprint_Rounding(t *testing.T) {
	t.Parallel()
	got := assessor.DefaultConfig().CarbonFootprint(1000000)
	// 1e6 * 1.8e-9 = 0.0018 kWh; * 475 = 0.855 g
	if got.EnergyKWh != 0.0018 {
		t.Errorf("EnergyKWh = %v, want 0.0018", got.EnergyKWh)
	}
	if got.CO2Grams != 0.855 {
		t.Errorf("CO2Grams = %v, want 0.855", got.CO2Grams)
	}
}

// ─── Page weight ───────────────────────────────────────────────────────

func TestPageWeight_Multipliers(t *testing.T) {
	t.Parallel()
	res := document.Resources{
		Scripts:     repeat("s", 2),
		Stylesheets: repeat("c", 3),
		Images:      repeat("i", 4),
	}
	pw := assessor.DefaultConfig().PageWeight(1234, res)

	if pw.HTML != 1234 || pw.CSS != 150000 || pw.JS != 200000 || pw.Images != 800000 {
		t.Errorf("components = %+v", pw)
	}
	if pw.Total != 1234+150000+200000+800000 {
		t.Errorf("Total = %d, want sum of components", pw.Total)
	}
	if pw.Requests != 10 {
		t.Errorf("Requests = %d, want 10", pw.Requests)
	}
	if pw.LargestResources == nil {
		t.Error("LargestResources must be non-nil")
	}
}

// ─── Social previews ───────────────────────────────────────────────────

func TestSocialPreviews_Fallbacks(t *testing.T) {
	t.Parallel()
	seo := &model.SEOFacts{
		Title:       "Plain title",
		Description: "Plain description",
		OGTags: map[string]string{
			"og:image": "https://example.com/og.png",
			"og:url":   "https://example.com/",
		},
		TwitterTags: map[string]string{
			"twitter:title": "Tweet title",
			"twitter:site":  "@example",
		},
	}
	p := assessor.SocialPreviews(seo)

	if p.Facebook.Title != "Plain title" || p.Facebook.Type != "website" || p.Facebook.URL != "https://example.com/" {
		t.Errorf("facebook = %+v", p.Facebook)
	}
	if p.Twitter.Title != "Tweet title" || p.Twitter.Description != "Plain description" {
		t.Errorf("twitter text = %+v", p.Twitter)
	}
	if p.Twitter.Image != "https://example.com/og.png" {
		t.Errorf("twitter image should fall back to og:image, got %q", p.Twitter.Image)
	}
	if p.Twitter.Card != "summary_large_image" || p.Twitter.Site != "@example" {
		t.Errorf("twitter card/site = %q/%q", p.Twitter.Card, p.Twitter.Site)
	}
	if p.LinkedIn.Image != "https://example.com/og.png" || p.LinkedIn.Title != "Plain title" {
		t.Errorf("linkedin = %+v", p.LinkedIn)
	}
}

func TestSocialPreviews_NilSEO(t *testing.T) {
	t.Parallel()
	p := assessor.SocialPreviews(nil)
	if p.Facebook.Type != "website" || p.Twitter.Card != "summary_large_image" {
		t.Errorf("defaults missing: %+v", p)
	}
}

// ─── Performance ───────────────────────────────────────────────────────

func TestPerformance_EstimateRecommendations(t *testing.T) {
	t.Parallel()
	doc := parse(t, `<html><head>
<link rel="stylesheet" href="/a.css">
<link rel="stylesheet" href="/print.css" media="print">
</head><body><script src="/x.js"></script></body></html>`)
	in := &assessor.Input{
		Doc: doc,
		Resources: document.Resources{
			Scripts:     repeat("s", 11),
			Stylesheets: repeat("c", 6),
			Images:      repeat("i", 21),
		},
		Headers: http.Header{},
		Elapsed: 420 * time.Millisecond,
	}
	perf := assessor.DefaultConfig().Performance(in)

	want := []string{
		"21 images found - consider lazy loading and compression",
		"Enable Gzip or Brotli compression",
		"Add cache-control headers for static assets",
		"Minimize JavaScript files",
		"Combine CSS files",
		"Use async/defer for scripts",
	}
	if strings.Join(perf.Recommendations, "|") != strings.Join(want, "|") {
		t.Errorf("Recommendations = %q\nwant %q", perf.Recommendations, want)
	}
	if perf.Source != model.PerformanceEstimated || perf.LoadTime != 420 {
		t.Errorf("source/load = %s/%d", perf.Source, perf.LoadTime)
	}
	if len(perf.RenderBlocking) != 1 || perf.RenderBlocking[0] != "/a.css" {
		t.Errorf("RenderBlocking = %v", perf.RenderBlocking)
	}
	if perf.ResourceCount.Total != 38 {
		t.Errorf("ResourceCount.Total = %d, want 38", perf.ResourceCount.Total)
	}
}

func TestPerformance_HeadersSilenceRecommendations(t *testing.T) {
	t.Parallel()
	h := http.Header{}
	h.Set("Content-Encoding", "br")
	h.Set("Cache-Control", "max-age=600")
	h.Set("ETag", `"abc"`)
	in := &assessor.Input{
		Doc:     parse(t, `<html><body><script defer src="/a.js"></script></body></html>`),
		Headers: h,
	}
	perf := assessor.DefaultConfig().Performance(in)

	if !perf.Compression {
		t.Error("Compression should be true")
	}
	if perf.Caching["cache-control"] != "max-age=600" || perf.Caching["etag"] != `"abc"` {
		t.Errorf("Caching = %v", perf.Caching)
	}
	if len(perf.Recommendations) != 0 {
		t.Errorf("Recommendations = %v, want none", perf.Recommendations)
	}
}

func TestPerformance_BrowserTimingOverrides(t *testing.T) {
	t.Parallel()
	timing := &model.NavigationTiming{Total: 812}
	vitals := &model.WebVitals{LCP: 900}
	in := &assessor.Input{
		Doc:     parse(t, `<html><body>async</body></html>`),
		Elapsed: 50 * time.Millisecond,
		Page:    &model.RenderedPage{LoadTime: 1500 * time.Millisecond, Timing: timing, WebVitals: vitals},
	}
	perf := assessor.DefaultConfig().Performance(in)

	if perf.Source != model.PerformanceMeasured {
		t.Errorf("Source = %s, want browser", perf.Source)
	}
	if perf.LoadTime != 1500 {
		t.Errorf("LoadTime = %d, want 1500", perf.LoadTime)
	}
	if perf.Metrics != timing || perf.WebVitals != vitals {
		t.Error("browser metrics not carried over")
	}
}

// ─── Assess ────────────────────────────────────────────────────────────

func TestHeuristicsAssessor_Assess(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)
	html := `<html><head><title>Shop</title></head><body><p>hi</p></body></html>`
	doc := parse(t, html)

	est, err := a.Assess(context.Background(), &assessor.Input{
		Doc: doc,
		SEO: &model.SEOFacts{Title: "Shop"},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if est.CarbonFootprint.BytesAnalyzed != len(html) {
		t.Errorf("carbon bytes = %d, want %d", est.CarbonFootprint.BytesAnalyzed, len(html))
	}
	if est.PageWeight.Total != len(html) || est.PageWeight.Requests != 1 {
		t.Errorf("PageWeight = %+v", est.PageWeight)
	}
	if est.SocialPreviews.Facebook.Title != "Shop" {
		t.Errorf("facebook title = %q", est.SocialPreviews.Facebook.Title)
	}
	if est.Performance == nil || est.Performance.PageSize != len(html) {
		t.Errorf("Performance = %+v", est.Performance)
	}
}

func TestHeuristicsAssessor_AssessCancelled(t *testing.T) {
	t.Parallel()
	a := newAssessor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Assess(ctx, &assessor.Input{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
