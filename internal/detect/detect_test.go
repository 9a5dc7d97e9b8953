package detect_test

import (
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/raysh454/sitelens/internal/detect"
	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/model"
)

func newInput(t *testing.T, html string, headers http.Header, cookies ...model.Cookie) *detect.Input {
	t.Helper()
	doc, err := document.Parse(html, "https://example.com/")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return detect.NewInput(doc, document.ExtractResources(doc), headers, cookies)
}

// ─── Technologies ──────────────────────────────────────────────────────

func TestDetectTechnologies_MatchesIndependentCategories(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<html><head>
<script src="https://cdn.jsdelivr.net/npm/react@18/umd/react.production.min.js"></script>
<script src="/static/jquery.min.js"></script>
<link rel="stylesheet" href="https://fonts.googleapis.com/css?family=Inter">
<meta name="generator" content="WordPress 6.4.2">
</head><body><div class="wp-content"></div></body></html>`, nil)

	tech := detect.DetectTechnologies(in)
	for _, want := range []string{"React"} {
		if !contains(tech.Frameworks, want) {
			t.Errorf("Frameworks = %v, want %s", tech.Frameworks, want)
		}
	}
	if !contains(tech.Libraries, "jQuery") {
		t.Errorf("Libraries = %v", tech.Libraries)
	}
	if !contains(tech.Fonts, "Google Fonts") {
		t.Errorf("Fonts = %v", tech.Fonts)
	}
	if !contains(tech.CMS, "WordPress") || tech.CMSVersion != "6.4.2" {
		t.Errorf("CMS = %v version %q", tech.CMS, tech.CMSVersion)
	}
	if tech.CDNProvider != "jsDelivr" {
		t.Errorf("CDNProvider = %q", tech.CDNProvider)
	}
}

func TestDetectTechnologies_CDNFirstMatchWins(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<script src="https://cdn.jsdelivr.net/x.js"></script><p>protected by cloudflare</p>`, nil)
	if got := detect.DetectTechnologies(in).CDNProvider; got != "Cloudflare" {
		t.Fatalf("CDNProvider = %q, want Cloudflare", got)
	}

	fromHeader := newInput(t, `<p>plain</p>`, http.Header{"Server": {"AkamaiGHost"}})
	if got := detect.DetectTechnologies(fromHeader).CDNProvider; got != "Akamai" {
		t.Fatalf("CDNProvider from header = %q, want Akamai", got)
	}
}

func TestDetectTechnologies_Idempotent(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<script src="/vue.js"></script><p>Add to cart with stripe</p>`, nil)
	first := detect.DetectTechnologies(in)
	second := detect.DetectTechnologies(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestDetectTechnologies_EcommercePlatform(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<body class="woocommerce"><script src="/shopify.js"></script></body>`, nil)
	tech := detect.DetectTechnologies(in)
	if tech.EcommercePlatform != "WooCommerce" {
		t.Errorf("EcommercePlatform = %q", tech.EcommercePlatform)
	}
	if !contains(tech.CMS, "WooCommerce") {
		t.Errorf("CMS = %v, want WooCommerce added", tech.CMS)
	}
}

// ─── Custom signatures ─────────────────────────────────────────────────

func TestParseSignatures_AppliesToTechnologies(t *testing.T) {
	t.Parallel()
	cs, err := detect.ParseSignatures([]byte(`
signatures:
  - category: frameworks
    label: Remix
    contains: ["__remixContext"]
    in: [html]
  - category: analytics
    label: Fathom
    pattern: 'cdn\.usefathom\.com'
    in: [scripts]
  - category: cms
    label: Statamic
    pattern: 'Powered by Statamic v\d'
    in: [html]
`))
	if err != nil {
		t.Fatalf("ParseSignatures: %v", err)
	}
	if cs.Len() != 3 {
		t.Fatalf("Len = %d", cs.Len())
	}

	in := newInput(t, `<!-- Powered by Statamic v4 --><script>window.__remixContext = {}</script><script src="https://cdn.usefathom.com/script.js"></script>`, nil)
	tech := detect.DetectTechnologies(in)
	cs.Apply(in, tech)
	if !contains(tech.Frameworks, "Remix") {
		t.Errorf("Frameworks = %v", tech.Frameworks)
	}
	if !contains(tech.Analytics, "Fathom") {
		t.Errorf("Analytics = %v", tech.Analytics)
	}
	if !contains(tech.CMS, "Statamic") {
		t.Errorf("CMS = %v, want the mixed-case pattern to match", tech.CMS)
	}
}

func TestParseSignatures_Rejects(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"unknown category": "signatures:\n  - {category: weather, label: X, contains: [x]}\n",
		"missing label":    "signatures:\n  - {category: cms, contains: [x]}\n",
		"no needles":       "signatures:\n  - {category: cms, label: X}\n",
		"bad pattern":      "signatures:\n  - {category: cms, label: X, pattern: '('}\n",
		"unknown source":   "signatures:\n  - {category: cms, label: X, contains: [x], in: [cookies]}\n",
		"not yaml":         "signatures: [",
	}
	for name, raw := range cases {
		name, raw := name, raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := detect.ParseSignatures([]byte(raw)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// ─── SEO & accessibility ───────────────────────────────────────────────

const seoPage = `<!doctype html>
<html lang="en">
<head>
  <title>Test</title>
  <meta name="description" content="A test page">
  <meta name="keywords" content="one, two ,,three">
  <meta property="og:title" content="Test Page">
  <meta name="twitter:card" content="summary">
  <link rel="canonical" href="https://example.com/">
  <link rel="alternate" hreflang="de" href="https://example.com/de/">
</head>
<body>
  <h1>Hello</h1><h2>Sub</h2>
  <img src="/a.png" alt="a">
  <a href="/about">About</a>
  <a href="https://other.org/x">Other</a>
</body>
</html>`

func TestDetectSEO_Basics(t *testing.T) {
	t.Parallel()
	seo := detect.DetectSEO(newInput(t, seoPage, nil))

	if seo.Title != "Test" || seo.Description != "A test page" {
		t.Errorf("title/description = %q / %q", seo.Title, seo.Description)
	}
	if !reflect.DeepEqual(seo.Keywords, []string{"one", "two", "three"}) {
		t.Errorf("Keywords = %v", seo.Keywords)
	}
	if seo.OGTags["og:title"] != "Test Page" {
		t.Errorf("og:title = %q", seo.OGTags["og:title"])
	}
	if seo.TwitterTags["twitter:card"] != "summary" {
		t.Errorf("TwitterTags = %v", seo.TwitterTags)
	}
	if seo.Headings.H1 != 1 || seo.Headings.H2 != 1 {
		t.Errorf("Headings = %+v", seo.Headings)
	}
	if seo.InternalLinks != 1 || seo.ExternalLinks != 1 {
		t.Errorf("internal/external = %d/%d", seo.InternalLinks, seo.ExternalLinks)
	}
	if seo.Hreflang["de"] != "https://example.com/de/" {
		t.Errorf("Hreflang = %v", seo.Hreflang)
	}
	if seo.ReadingTime != 1 {
		t.Errorf("ReadingTime = %d", seo.ReadingTime)
	}
}

func TestDetectAccessibility_LevelA(t *testing.T) {
	t.Parallel()
	a := detect.DetectAccessibility(newInput(t, seoPage, nil))
	if !a.Lang || !a.HeadingStructure || !a.HasAltText {
		t.Fatalf("accessibility = %+v", a)
	}
	if !a.WCAG.LevelA {
		t.Error("expected level A")
	}
	if a.WCAG.LevelAAA {
		t.Error("level AAA requires landmark roles")
	}
}

func TestDetectAccessibility_LadderIsMonotone(t *testing.T) {
	t.Parallel()
	pages := []string{
		`<p>nothing</p>`,
		seoPage,
		`<html lang="en"><body><header role="banner"></header><nav role="navigation"></nav><main role="main"><img src="a" alt="x"></main></body></html>`,
	}
	for _, p := range pages {
		w := detect.DetectAccessibility(newInput(t, p, nil)).WCAG
		if w.LevelAAA && !w.LevelAA || w.LevelAA && !w.LevelA {
			t.Errorf("ladder not monotone: %+v", w)
		}
	}
}

// ─── Structured data ───────────────────────────────────────────────────

func TestStructuredData_SkipsMalformedBlocks(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<head>
<script type="application/ld+json">{ not json </script>
<script type="application/ld+json">{"@type":"Product","name":"Lamp"}</script>
<script type="application/ld+json">{"@graph":[{"@type":"Organization"},{"@type":"BreadcrumbList"}]}</script>
</head><body>€20</body>`, nil)

	sd := detect.AnalyzeStructuredData(in)
	if !reflect.DeepEqual(sd.Types, []string{"Product", "Organization", "BreadcrumbList"}) {
		t.Errorf("Types = %v", sd.Types)
	}
	if !sd.HasStructuredData || !sd.RichSnippetsEligible {
		t.Errorf("flags = %+v", sd)
	}

	seo := detect.DetectSEO(in)
	if !reflect.DeepEqual(seo.SchemaTypes, []string{"Product"}) {
		t.Errorf("SchemaTypes = %v", seo.SchemaTypes)
	}

	e := detect.DetectEcommerce(in, "")
	if !e.HasProductSchema || e.Currency != "€" || !e.IsEcommerce {
		t.Errorf("ecommerce = %+v", e)
	}
}

// ─── Privacy ───────────────────────────────────────────────────────────

func TestBucketCookies_SumsToTotal(t *testing.T) {
	t.Parallel()
	cookies := []model.Cookie{
		{Name: "sessionid"}, {Name: "csrftoken"}, {Name: "_ga"}, {Name: "_fbp"},
		{Name: "theme"}, {Name: "utm_source"}, {Name: "lang"},
	}
	b := detect.BucketCookies(cookies)
	if b.Total != len(cookies) {
		t.Fatalf("Total = %d", b.Total)
	}
	if b.Essential+b.Analytics+b.Marketing+b.Preferences != b.Total {
		t.Fatalf("buckets do not sum: %+v", b)
	}
	if b.Essential != 2 || b.Analytics != 2 || b.Marketing != 1 || b.Preferences != 2 {
		t.Errorf("buckets = %+v", b)
	}
}

func TestDetectPrivacy(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<body>
<div id="banner">We use cookies. <button>Accept</button></div>
<a href="/privacy">Privacy Policy</a>
<a href="/legal/terms">Terms of Service</a>
<p>Your rights under the CCPA.</p>
<script src="https://www.google-analytics.com/analytics.js"></script>
</body>`, nil, model.Cookie{Name: "_ga"})

	p := detect.DetectPrivacy(in)
	if !p.HasCookieConsent || !p.HasPrivacyPolicy || !p.HasTermsOfService {
		t.Fatalf("privacy = %+v", p)
	}
	if p.PrivacyPolicyURL != "/privacy" || p.TermsURL != "/legal/terms" {
		t.Errorf("urls = %q %q", p.PrivacyPolicyURL, p.TermsURL)
	}
	if !p.GDPRCompliant || !p.CCPACompliant {
		t.Errorf("gdpr/ccpa = %v/%v", p.GDPRCompliant, p.CCPACompliant)
	}
	if !contains(p.Trackers, "google-analytics") {
		t.Errorf("Trackers = %v", p.Trackers)
	}
	if p.Cookies.Analytics != 1 {
		t.Errorf("Cookies = %+v", p.Cookies)
	}
}

// ─── Links ─────────────────────────────────────────────────────────────

func TestCategorizeLink(t *testing.T) {
	t.Parallel()
	tests := []struct {
		link, rel, want string
	}{
		{"https://twitter.com/acme", "", "social"},
		{"https://cdn.jsdelivr.net/x", "", "cdn"},
		{"https://www.hotjar.com/", "", "analytics"},
		{"https://ad.doubleclick.net/x", "", "advertising"},
		{"https://amzn.to/abc", "", "affiliate"},
		{"https://shop.example.org/?ref=acme", "", "sponsored"},
		{"https://shop.example.org/", "sponsored noopener", "sponsored"},
		{"https://golang.org/", "", "other"},
	}
	for _, tt := range tests {
		if got := detect.CategorizeLink(tt.link, tt.rel); got != tt.want {
			t.Errorf("CategorizeLink(%q, %q) = %q, want %q", tt.link, tt.rel, got, tt.want)
		}
	}
}

func TestAnalyzeLinks(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<body>
<a href="/a/b/c">deep</a>
<a href="/a/b/c">dup</a>
<a href="https://blog.example.com/post">sub</a>
<a href="#top">top</a>
<a href="mailto:hi@example.com">mail</a>
<a href="https://github.com/acme" rel="nofollow">gh</a>
<a href="//cdnjs.com/lib">cdn</a>
<a href="relative/page">rel</a>
</body>`, nil)

	ext := detect.AnalyzeExternalLinks(in)
	if ext.Total != 2 || ext.NofollowLinks != 1 || ext.FollowedLinks != 1 {
		t.Errorf("external = %+v", ext)
	}
	if !reflect.DeepEqual(ext.Categorized.CDN, []string{"https://cdnjs.com/lib"}) {
		t.Errorf("CDN = %v", ext.Categorized.CDN)
	}
	if len(ext.Domains) != 2 {
		t.Errorf("Domains = %v", ext.Domains)
	}

	internal := detect.AnalyzeInternalLinks(in)
	if internal.Total != 4 || internal.Unique != 3 || internal.MaxDepth != 3 {
		t.Errorf("internal = %+v", internal)
	}
}

// ─── Contacts & social ─────────────────────────────────────────────────

func TestExtractContactInfo(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<body>
<p>Mail sales@acme.io or test@example.com. Call +1 555-123-4567 or 12-34.</p>
<p>Visit 221 Baker Street, London.</p>
<form action="/contact" method="post"><input name="email" type="email"><textarea id="message"></textarea></form>
<form action="/search"><input name="q"></form>
<a href="https://twitter.com/acme">t</a>
<a href="https://twitter.com/acme">again</a>
</body>`, nil)

	ci := detect.ExtractContactInfo(in)
	if !reflect.DeepEqual(ci.Emails, []string{"sales@acme.io"}) {
		t.Errorf("Emails = %v", ci.Emails)
	}
	if len(ci.Phones) != 1 || !strings.Contains(ci.Phones[0], "555-123-4567") {
		t.Errorf("Phones = %v", ci.Phones)
	}
	if len(ci.Addresses) != 1 {
		t.Errorf("Addresses = %v", ci.Addresses)
	}
	if len(ci.ContactForms) != 1 {
		t.Fatalf("ContactForms = %+v", ci.ContactForms)
	}
	f := ci.ContactForms[0]
	if f.Method != "POST" || !reflect.DeepEqual(f.Fields, []string{"email (email)", "message (text)"}) {
		t.Errorf("form = %+v", f)
	}
	if len(ci.SocialLinks) != 1 || ci.SocialLinks[0].URL != "https://twitter.com/acme" {
		t.Errorf("SocialLinks = %+v", ci.SocialLinks)
	}
}

func TestDetectSocialMedia(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<body>
<a href="https://www.instagram.com/acme/">Instagram ✓</a>
<a href="https://t.me/acmechat">Telegram</a>
<a href="https://t.me/acmechat">dup</a>
<a href="https://example.com/x">self</a>
</body>`, nil)

	sm := detect.DetectSocialMedia(in)
	if sm.TotalPlatforms != 2 {
		t.Fatalf("platforms = %+v", sm.Platforms)
	}
	ig := sm.Platforms[0]
	if ig.Platform != "Instagram" || ig.Handle != "acme" || !ig.Verified {
		t.Errorf("instagram = %+v", ig)
	}
	if sm.Platforms[1].Platform != "Telegram" {
		t.Errorf("second = %+v", sm.Platforms[1])
	}
	if !sm.HasOfficialLinks {
		t.Error("expected official links")
	}
}

// ─── Stack & services ──────────────────────────────────────────────────

func TestDetectEnhancedTechStack(t *testing.T) {
	t.Parallel()
	headers := http.Header{
		"X-Powered-By": {"Express"},
		"Server":       {"nginx/1.25.3"},
		"Cf-Ray":       {"abc"},
	}
	in := newInput(t, `<script src="https://www.googletagmanager.com/gtm.js"></script>`, headers)

	ts := detect.DetectEnhancedTechStack(in)
	if ts.Backend.Language != "Node.js" || ts.Backend.Framework != "Express" {
		t.Errorf("backend = %+v", ts.Backend)
	}
	if ts.Server.Software != "nginx" || ts.Server.Version != "1.25.3" {
		t.Errorf("server = %+v", ts.Server)
	}
	if ts.Security.WAF != "Cloudflare" {
		t.Errorf("WAF = %q", ts.Security.WAF)
	}
	if !reflect.DeepEqual(ts.Marketing.TagManager, []string{"Google Tag Manager"}) {
		t.Errorf("marketing = %+v", ts.Marketing)
	}
}

func TestDetectThirdPartyServices_TotalIsSum(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<script src="https://js.stripe.com/v3"></script>
<script src="https://widget.intercom.io/w.js"></script>
<script src="https://static.hotjar.com/c.js"></script>`, nil)

	s := detect.DetectThirdPartyServices(in)
	sum := len(s.Analytics) + len(s.Advertising) + len(s.Social) + len(s.CDN) + len(s.Support) + len(s.Payments)
	if s.Total != sum || s.Total < 3 {
		t.Errorf("services = %+v", s)
	}
}

// ─── Basic facts ───────────────────────────────────────────────────────

func TestDetectSecurity_MixedContentAndHeaders(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<script src="http://insecure.example.net/a.js"></script>
<script src="/b.js" integrity="sha384-abc"></script>`,
		http.Header{"Strict-Transport-Security": {"max-age=31536000"}})

	s := detect.DetectSecurity(in)
	if !s.HTTPS || !s.HasHSTS || s.HasCSP {
		t.Errorf("security = %+v", s)
	}
	if !s.SubresourceIntegrity {
		t.Error("expected SRI")
	}
	if !reflect.DeepEqual(s.MixedContent, []string{"http://insecure.example.net/a.js"}) {
		t.Errorf("MixedContent = %v", s.MixedContent)
	}
	if s.Headers["strict-transport-security"] != "max-age=31536000" {
		t.Errorf("Headers = %v", s.Headers)
	}
}

func TestDetectForms(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<body>
<form><input type="password"></form>
<form><input name="search_term"></form>
<form><input name="newsletter_email"></form>
</body>`, nil)
	f := detect.DetectForms(in)
	if f.Total != 3 || f.LoginForms != 1 || f.SearchForms != 1 || f.NewsletterForms != 1 || f.ContactForms != 1 {
		t.Errorf("forms = %+v", f)
	}
}

func TestDetectAPIFlags(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<script>const ws = new WebSocket("wss://x"); fetch("/graphql")</script>
<a href="/swagger/index.html">API</a>`, nil)
	f := detect.DetectAPIFlags(in)
	if !f.HasGraphQL || !f.HasWebSocket {
		t.Errorf("flags = %+v", f)
	}
	if f.SwaggerURL != "/swagger/index.html" {
		t.Errorf("SwaggerURL = %q", f.SwaggerURL)
	}
}

// ─── i18n ──────────────────────────────────────────────────────────────

func TestGuessLanguage(t *testing.T) {
	t.Parallel()
	if got := detect.GuessLanguage("hi"); got != "" {
		t.Errorf("short text = %q", got)
	}
	text := "The quick brown fox jumps over the lazy dog while the children are playing in the garden and the weather is wonderful today."
	if got := detect.GuessLanguage(text); got != "eng" {
		t.Errorf("GuessLanguage = %q, want eng", got)
	}
}

func TestDetectI18n(t *testing.T) {
	t.Parallel()
	in := newInput(t, `<html lang="ar" dir="rtl"><head>
<link rel="alternate" hreflang="en" href="https://example.com/en/">
<link rel="alternate" hreflang="fr" href="https://example.com/fr/">
</head><body>x</body></html>`, nil)

	i := detect.DetectI18n(in)
	if i.PrimaryLanguage != "ar" || !i.RTLSupport {
		t.Errorf("i18n = %+v", i)
	}
	if !i.HasHreflang || !i.HasTranslations || len(i.HreflangTags) != 2 {
		t.Errorf("hreflang = %+v", i.HreflangTags)
	}
	if !reflect.DeepEqual(i.DetectedLanguages, []string{"ar"}) {
		t.Errorf("DetectedLanguages = %v", i.DetectedLanguages)
	}
}

// ─── Analyzer ──────────────────────────────────────────────────────────

type stubFingerprinter map[string][]string

func (s stubFingerprinter) Fingerprint(http.Header, []byte) map[string][]string { return s }

func TestAnalyzer_FillsPageCategories(t *testing.T) {
	t.Parallel()
	a := &detect.Analyzer{Fingerprinter: stubFingerprinter{"Nginx": {"Web servers"}}}
	ov := a.Analyze(newInput(t, seoPage, nil))

	if ov.Technologies == nil || ov.SEO == nil || ov.Accessibility == nil || ov.I18n == nil {
		t.Fatalf("missing page categories: %+v", ov)
	}
	if ov.Technologies.Fingerprints["Nginx"][0] != "Web servers" {
		t.Errorf("Fingerprints = %v", ov.Technologies.Fingerprints)
	}
	if ov.WhoisData != nil || ov.RobotsTxt != nil || ov.CarbonFootprint != nil {
		t.Error("probe and estimate categories must stay nil")
	}
	if ov.Structure.Language != "en" {
		t.Errorf("Structure = %+v", ov.Structure)
	}
}

type panickingFingerprinter struct{}

func (panickingFingerprinter) Fingerprint(http.Header, []byte) map[string][]string {
	panic("fingerprint database corrupt")
}

func TestAnalyzer_PanicOnlyDropsItsCategory(t *testing.T) {
	t.Parallel()
	a := &detect.Analyzer{Fingerprinter: panickingFingerprinter{}}
	ov := a.Analyze(newInput(t, seoPage, nil))

	if ov.Technologies == nil {
		t.Fatal("Technologies should survive a fingerprinter panic")
	}
	if ov.Technologies.Fingerprints != nil {
		t.Errorf("Fingerprints = %v, want nil", ov.Technologies.Fingerprints)
	}
	if ov.SEO == nil || ov.Structure == nil || ov.Ecommerce == nil {
		t.Errorf("other categories missing: %+v", ov)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
