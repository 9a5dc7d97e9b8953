package detect

import (
	"regexp"
	"strings"

	"github.com/raysh454/sitelens/internal/model"
)

var serverHeader = regexp.MustCompile(`^([^\s/]+)(?:/([^\s]+))?`)

// wafHeaders is last-match-wins.
var wafHeaders = []struct {
	header, waf string
}{
	{"Cf-Ray", "Cloudflare"},
	{"X-Sucuri-Id", "Sucuri"},
	{"X-Akamai-Transformed", "Akamai"},
}

var marketingScripts = []struct {
	needles []string
	label   string
	slot    func(*model.MarketingStack) *[]string
}{
	{[]string{"google-analytics.com", "gtag"}, "Google Analytics", func(m *model.MarketingStack) *[]string { return &m.Analytics }},
	{[]string{"googletagmanager.com"}, "Google Tag Manager", func(m *model.MarketingStack) *[]string { return &m.TagManager }},
	{[]string{"facebook.net/en_us/fbevents.js"}, "Facebook Pixel", func(m *model.MarketingStack) *[]string { return &m.Analytics }},
	{[]string{"googleadservices.com"}, "Google Ads", func(m *model.MarketingStack) *[]string { return &m.Advertising }},
	{[]string{"doubleclick.net"}, "Google DoubleClick", func(m *model.MarketingStack) *[]string { return &m.Advertising }},
	{[]string{"mailchimp.com"}, "Mailchimp", func(m *model.MarketingStack) *[]string { return &m.Email }},
}

// DetectEnhancedTechStack infers backend, server, WAF and marketing tooling
// from response headers, generator hints and script URLs.
func DetectEnhancedTechStack(in *Input) *model.EnhancedTechStack {
	ts := &model.EnhancedTechStack{
		Backend:  model.BackendStack{DetectedFrom: make([]string, 0)},
		Database: model.DatabaseHints{Evidence: make([]string, 0)},
		Marketing: model.MarketingStack{
			Analytics:   make([]string, 0),
			TagManager:  make([]string, 0),
			Advertising: make([]string, 0),
			Email:       make([]string, 0),
		},
	}

	if powered := in.Headers.Get("X-Powered-By"); powered != "" {
		switch {
		case strings.Contains(powered, "PHP"):
			ts.Backend.Language = "PHP"
		case strings.Contains(powered, "ASP.NET"):
			ts.Backend.Language = "ASP.NET"
			ts.Backend.Framework = "ASP.NET"
		case strings.Contains(powered, "Express"):
			ts.Backend.Language = "Node.js"
			ts.Backend.Framework = "Express"
		}
		ts.Backend.DetectedFrom = append(ts.Backend.DetectedFrom, "X-Powered-By header")
	}

	raw := in.Doc.HTML
	if strings.Contains(raw, "generator") {
		switch {
		case strings.Contains(raw, "WordPress"):
			ts.Backend.Framework = "WordPress"
			ts.Backend.Language = "PHP"
			ts.Backend.DetectedFrom = append(ts.Backend.DetectedFrom, "Meta generator tag")
		case strings.Contains(raw, "Drupal"):
			ts.Backend.Framework = "Drupal"
			ts.Backend.Language = "PHP"
			ts.Backend.DetectedFrom = append(ts.Backend.DetectedFrom, "Meta generator tag")
		}
	}
	if ts.Backend.Language == "PHP" {
		ts.Database.Evidence = append(ts.Database.Evidence, "PHP backends commonly pair with MySQL")
	}

	if m := serverHeader.FindStringSubmatch(in.Headers.Get("Server")); m != nil {
		ts.Server.Software = m[1]
		ts.Server.Version = m[2]
	}

	for _, w := range wafHeaders {
		if in.Headers.Get(w.header) != "" {
			ts.Security.WAF = w.waf
		}
	}

	for _, src := range in.Resources.Scripts {
		lower := strings.ToLower(src)
		for _, ms := range marketingScripts {
			for _, n := range ms.needles {
				if !strings.Contains(lower, n) {
					continue
				}
				slot := ms.slot(&ts.Marketing)
				if !contains(*slot, ms.label) {
					*slot = append(*slot, ms.label)
				}
				break
			}
		}
	}
	return ts
}

// Third-party service tables run against script URLs and raw markup.
var (
	tpAnalytics = Table{
		sig("Google Analytics", SourceHTML|SourceScripts, "google-analytics", "gtag"),
		sig("Google Tag Manager", SourceHTML|SourceScripts, "googletagmanager"),
		sig("Hotjar", SourceHTML|SourceScripts, "hotjar"),
		sig("Mixpanel", SourceHTML|SourceScripts, "mixpanel"),
		sig("Segment", SourceHTML|SourceScripts, "segment"),
	}
	tpAdvertising = Table{
		sig("Google Ads", SourceHTML|SourceScripts, "doubleclick", "googlesyndication"),
		sig("Facebook Pixel", SourceHTML|SourceScripts, "fbevents"),
		sig("AdRoll", SourceHTML|SourceScripts, "adroll"),
	}
	tpSocial = Table{
		sig("Twitter", SourceHTML|SourceScripts, "platform.twitter.com"),
		sig("Facebook", SourceHTML|SourceScripts, "connect.facebook.net"),
		sig("LinkedIn", SourceHTML|SourceScripts, "platform.linkedin.com"),
	}
	tpCDN = Table{
		sig("Cloudflare", SourceHTML|SourceScripts, "cloudflare"),
		sig("Akamai", SourceHTML|SourceScripts, "akamai"),
		sig("Fastly", SourceHTML|SourceScripts, "fastly"),
	}
	tpSupport = Table{
		sig("Intercom", SourceHTML|SourceScripts, "intercom"),
		sig("Zendesk", SourceHTML|SourceScripts, "zendesk"),
		sig("Drift", SourceHTML|SourceScripts, "drift"),
	}
	tpPayments = Table{
		sig("Stripe", SourceHTML|SourceScripts, "stripe"),
		sig("PayPal", SourceHTML|SourceScripts, "paypal"),
		sig("Braintree", SourceHTML|SourceScripts, "braintree"),
	}
)

// DetectThirdPartyServices groups embedded third-party services. Total is
// the sum of all groups.
func DetectThirdPartyServices(in *Input) *model.ThirdPartyServices {
	s := &model.ThirdPartyServices{
		Analytics:   tpAnalytics.Match(in),
		Advertising: tpAdvertising.Match(in),
		Social:      tpSocial.Match(in),
		CDN:         tpCDN.Match(in),
		Support:     tpSupport.Match(in),
		Payments:    tpPayments.Match(in),
	}
	s.Total = len(s.Analytics) + len(s.Advertising) + len(s.Social) + len(s.CDN) + len(s.Support) + len(s.Payments)
	return s
}
