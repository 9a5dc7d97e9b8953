package assessor

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/model"
)

type carbonBand struct {
	below       float64
	rating      string
	cleanerThan int
}

// carbonBands is ordered by ascending grams; the first band whose limit is
// above the estimate wins.
var carbonBands = []carbonBand{
	{0.095, "A+", 95},
	{0.186, "A", 85},
	{0.341, "B", 70},
	{0.493, "C", 50},
	{0.656, "D", 30},
	{1.2, "E", 10},
}

// CarbonFootprint estimates per-visit emissions from the transferred bytes.
func (c Config) CarbonFootprint(bytes int) *model.CarbonFootprint {
	c = c.withDefaults()
	energy := float64(bytes) * c.EnergyPerByte
	co2 := energy * c.GridIntensity

	rating, cleaner := "F", 0
	for _, b := range carbonBands {
		if co2 < b.below {
			rating, cleaner = b.rating, b.cleanerThan
			break
		}
	}

	return &model.CarbonFootprint{
		CO2Grams:      round(co2, 3),
		EnergyKWh:     round(energy, 5),
		Rating:        rating,
		CleanerThan:   cleaner,
		Comparison:    carbonComparison(rating),
		BytesAnalyzed: bytes,
	}
}

func carbonComparison(rating string) string {
	switch rating {
	case "A+", "A":
		return "Excellent - Much cleaner than average"
	case "B":
		return "Good - Cleaner than average"
	case "C":
		return "Average"
	case "D":
		return "Below average"
	default:
		return "Poor - Much worse than average"
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// PageWeight estimates transfer size from resource counts. Only the HTML
// figure is measured; the rest use the configured per-resource sizes.
func (c Config) PageWeight(htmlBytes int, res document.Resources) *model.PageWeight {
	c = c.withDefaults()
	pw := &model.PageWeight{
		HTML:             htmlBytes,
		CSS:              len(res.Stylesheets) * c.StylesheetBytes,
		JS:               len(res.Scripts) * c.ScriptBytes,
		Images:           len(res.Images) * c.ImageBytes,
		Requests:         len(res.Scripts) + len(res.Stylesheets) + len(res.Images) + 1,
		LargestResources: make([]string, 0),
	}
	pw.Total = pw.HTML + pw.CSS + pw.JS + pw.Images + pw.Fonts + pw.Videos + pw.Other
	return pw
}

// SocialPreviews shows how the page would look when shared, falling back to
// the plain SEO title and description where a platform tag is missing.
func SocialPreviews(seo *model.SEOFacts) *model.SocialPreviews {
	if seo == nil {
		seo = &model.SEOFacts{}
	}
	og := func(k string) string { return seo.OGTags["og:"+k] }
	tw := func(k string) string { return seo.TwitterTags["twitter:"+k] }

	return &model.SocialPreviews{
		Facebook: model.SocialPreview{
			Title:       firstNonEmpty(og("title"), seo.Title),
			Description: firstNonEmpty(og("description"), seo.Description),
			Image:       og("image"),
			Type:        firstNonEmpty(og("type"), "website"),
			URL:         og("url"),
		},
		Twitter: model.SocialPreview{
			Title:       firstNonEmpty(tw("title"), seo.Title),
			Description: firstNonEmpty(tw("description"), seo.Description),
			Image:       firstNonEmpty(tw("image"), og("image")),
			Card:        firstNonEmpty(tw("card"), "summary_large_image"),
			Site:        tw("site"),
		},
		LinkedIn: model.SocialPreview{
			Title:       firstNonEmpty(og("title"), seo.Title),
			Description: firstNonEmpty(og("description"), seo.Description),
			Image:       og("image"),
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Performance builds the performance category. Without a rendered page the
// load time is the plain fetch duration and Source is "estimate"; a browser
// render replaces it with the measured load time, timings and vitals.
func (c Config) Performance(in *Input) *model.Performance {
	c = c.withDefaults()
	res := in.Resources
	html := ""
	if in.Doc != nil {
		html = in.Doc.HTML
	}

	perf := &model.Performance{
		LoadTime: in.Elapsed.Milliseconds(),
		PageSize: len(html),
		ResourceCount: model.ResourceCount{
			Scripts: len(res.Scripts),
			Styles:  len(res.Stylesheets),
			Images:  len(res.Images),
			Total:   len(res.Scripts) + len(res.Stylesheets) + len(res.Images),
		},
		Compression:     in.Headers.Get("Content-Encoding") != "",
		Caching:         make(map[string]string),
		RenderBlocking:  renderBlocking(in.Doc),
		Recommendations: make([]string, 0),
		Source:          model.PerformanceEstimated,
	}
	if v := in.Headers.Get("Cache-Control"); v != "" {
		perf.Caching["cache-control"] = v
	}
	if v := in.Headers.Get("ETag"); v != "" {
		perf.Caching["etag"] = v
	}

	rec := func(s string) { perf.Recommendations = append(perf.Recommendations, s) }
	if n := len(res.Images); n > c.MaxImages {
		rec(strconv.Itoa(n) + " images found - consider lazy loading and compression")
	}
	if !perf.Compression {
		rec("Enable Gzip or Brotli compression")
	}
	if perf.Caching["cache-control"] == "" {
		rec("Add cache-control headers for static assets")
	}
	if len(res.Scripts) > c.MaxScripts {
		rec("Minimize JavaScript files")
	}
	if len(res.Stylesheets) > c.MaxStylesheets {
		rec("Combine CSS files")
	}
	if html != "" && !strings.Contains(html, "defer") && !strings.Contains(html, "async") {
		rec("Use async/defer for scripts")
	}

	if p := in.Page; p != nil && (p.Timing != nil || p.LoadTime > 0) {
		perf.LoadTime = p.LoadTime.Milliseconds()
		perf.Metrics = p.Timing
		perf.WebVitals = p.WebVitals
		perf.Source = model.PerformanceMeasured
	}
	return perf
}

// renderBlocking lists stylesheet hrefs loaded without a media query.
func renderBlocking(doc *document.Document) []string {
	out := make([]string, 0)
	if doc == nil {
		return out
	}
	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if _, hasMedia := s.Attr("media"); href != "" && !hasMedia {
			out = append(out, href)
		}
	})
	return out
}
