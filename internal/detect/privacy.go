package detect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitelens/internal/model"
)

// CookieCategory is the bucket a cookie is assigned to by name.
type CookieCategory string

const (
	CookieEssential   CookieCategory = "essential"
	CookieAnalytics   CookieCategory = "analytics"
	CookieMarketing   CookieCategory = "marketing"
	CookiePreferences CookieCategory = "preferences"
)

// cookieRules are checked in order; anything unmatched is a preference cookie.
var cookieRules = []struct {
	category CookieCategory
	needles  []string
}{
	{CookieEssential, []string{"session", "csrf"}},
	{CookieAnalytics, []string{"analytics", "_ga", "utm"}},
	{CookieMarketing, []string{"ad", "marketing", "fb"}},
}

// CategorizeCookie buckets a cookie by substring match on its name.
func CategorizeCookie(name string) CookieCategory {
	lower := strings.ToLower(name)
	for _, r := range cookieRules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.category
			}
		}
	}
	return CookiePreferences
}

// BucketCookies counts cookies per category. The four counts always sum to
// Total.
func BucketCookies(cookies []model.Cookie) model.CookieBuckets {
	b := model.CookieBuckets{Total: len(cookies)}
	for _, c := range cookies {
		switch CategorizeCookie(c.Name) {
		case CookieEssential:
			b.Essential++
		case CookieAnalytics:
			b.Analytics++
		case CookieMarketing:
			b.Marketing++
		default:
			b.Preferences++
		}
	}
	return b
}

var trackerTable = Table{
	sig("google-analytics", SourceHTML, "google-analytics"),
	sig("facebook.net", SourceHTML, "facebook.net"),
	sig("doubleclick", SourceHTML, "doubleclick"),
	sig("hotjar", SourceHTML, "hotjar"),
	sig("mixpanel", SourceHTML, "mixpanel"),
}

// DetectPrivacy reports consent, policy links, regulatory hints, cookie
// buckets and known trackers.
func DetectPrivacy(in *Input) *model.Privacy {
	html := in.HTML()
	text := in.Text()

	p := &model.Privacy{
		HasCookieConsent: strings.Contains(html, "cookie") &&
			(strings.Contains(html, "consent") || strings.Contains(html, "accept") || strings.Contains(html, "agree")),
		Cookies:  BucketCookies(in.Cookies),
		Trackers: trackerTable.Match(in),
	}

	in.Doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		linkText := strings.ToLower(s.Text())
		if strings.Contains(linkText, "privacy") && (strings.Contains(linkText, "policy") || strings.Contains(href, "privacy")) {
			p.HasPrivacyPolicy = true
			p.PrivacyPolicyURL = href
		}
		if strings.Contains(linkText, "terms") && (strings.Contains(linkText, "service") || strings.Contains(href, "terms")) {
			p.HasTermsOfService = true
			p.TermsURL = href
		}
	})

	p.GDPRCompliant = strings.Contains(text, "gdpr") ||
		strings.Contains(text, "general data protection") ||
		(p.HasCookieConsent && p.HasPrivacyPolicy)
	p.CCPACompliant = strings.Contains(text, "ccpa") || strings.Contains(text, "california consumer privacy")
	return p
}
