package detect

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitelens/internal/model"
)

var (
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern   = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?(\(?\d{3}\)?[-.\s]?)?\d{3}[-.\s]?\d{4}`)
	addressPattern = regexp.MustCompile(`(?i)\d+\s+[\w\s,]+(?:street|st|avenue|ave|road|rd|highway|hwy|square|sq|trail|trl|drive|dr|court|ct|parkway|pkwy|circle|cir|boulevard|blvd)\b`)
	digitPattern   = regexp.MustCompile(`\d`)
)

var placeholderEmailDomains = []string{"@example.", "@placeholder.", "@domain."}

var profilePatterns = []struct {
	platform string
	re       *regexp.Regexp
}{
	{"Facebook", regexp.MustCompile(`facebook\.com/[a-zA-Z0-9.]+`)},
	{"Twitter", regexp.MustCompile(`twitter\.com/[a-zA-Z0-9_]+`)},
	{"X", regexp.MustCompile(`(?:^|[^a-z])x\.com/[a-zA-Z0-9_]+`)},
	{"LinkedIn", regexp.MustCompile(`linkedin\.com/(in|company)/[a-zA-Z0-9-]+`)},
	{"Instagram", regexp.MustCompile(`instagram\.com/[a-zA-Z0-9._]+`)},
	{"YouTube", regexp.MustCompile(`youtube\.com/(channel|c|user)/[a-zA-Z0-9_-]+`)},
	{"TikTok", regexp.MustCompile(`tiktok\.com/@[a-zA-Z0-9._]+`)},
	{"Pinterest", regexp.MustCompile(`pinterest\.com/[a-zA-Z0-9_]+`)},
	{"GitHub", regexp.MustCompile(`github\.com/[a-zA-Z0-9-]+`)},
}

// ExtractContactInfo pulls emails, phone numbers, street addresses, contact
// forms and social profile links out of the raw markup.
func ExtractContactInfo(in *Input) *model.ContactInfo {
	raw := in.Doc.HTML
	ci := &model.ContactInfo{
		Emails:       make([]string, 0),
		Phones:       make([]string, 0),
		Addresses:    make([]string, 0),
		ContactForms: make([]model.ContactForm, 0),
		SocialLinks:  make([]model.SocialProfile, 0),
	}

	for _, e := range uniqueMatches(emailPattern, raw) {
		if isPlaceholderEmail(e) {
			continue
		}
		ci.Emails = append(ci.Emails, e)
	}
	for _, p := range uniqueMatches(phonePattern, raw) {
		if len(digitPattern.FindAllString(p, -1)) >= 10 {
			ci.Phones = append(ci.Phones, strings.TrimSpace(p))
		}
	}
	for _, a := range uniqueMatches(addressPattern, raw) {
		ci.Addresses = append(ci.Addresses, strings.TrimSpace(a))
	}

	in.Doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		if f, ok := contactForm(form); ok {
			ci.ContactForms = append(ci.ContactForms, f)
		}
	})

	seen := make(map[string]struct{})
	for _, p := range profilePatterns {
		for _, m := range p.re.FindAllString(raw, -1) {
			m = strings.TrimLeft(m, "/.:(\"'= ")
			u := "https://" + m
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			ci.SocialLinks = append(ci.SocialLinks, model.SocialProfile{Platform: p.platform, URL: u})
		}
	}
	return ci
}

func isPlaceholderEmail(e string) bool {
	lower := strings.ToLower(e)
	for _, d := range placeholderEmailDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// contactForm describes form when it looks like a contact form: it has
// fields and either its action mentions contact or form, or a field is
// an email or message input.
func contactForm(form *goquery.Selection) (model.ContactForm, bool) {
	action, _ := form.Attr("action")
	method, _ := form.Attr("method")
	if method == "" {
		method = "GET"
	}
	f := model.ContactForm{
		Action: action,
		Method: strings.ToUpper(method),
		Fields: make([]string, 0),
	}
	hasContactField := false
	form.Find("input, textarea, select").Each(func(_ int, s *goquery.Selection) {
		name := firstAttr(s, "name", "id")
		if name == "" {
			name = "unnamed"
		}
		typ, _ := s.Attr("type")
		if typ == "" {
			typ = "text"
		}
		field := name + " (" + typ + ")"
		lf := strings.ToLower(field)
		if strings.Contains(lf, "email") || strings.Contains(lf, "message") {
			hasContactField = true
		}
		f.Fields = append(f.Fields, field)
	})
	if len(f.Fields) == 0 {
		return f, false
	}
	la := strings.ToLower(action)
	return f, strings.Contains(la, "contact") || strings.Contains(la, "form") || hasContactField
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v, ok := s.Attr(n); ok && v != "" {
			return v
		}
	}
	return ""
}

func uniqueMatches(re *regexp.Regexp, s string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, m := range re.FindAllString(s, -1) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// socialPlatforms maps a platform to the hosts that identify it. The first
// platform whose host matches wins.
var socialPlatforms = []struct {
	name  string
	hosts []string
}{
	{"Facebook", []string{"facebook.com", "fb.com"}},
	{"Twitter", []string{"twitter.com"}},
	{"X", []string{"x.com"}},
	{"LinkedIn", []string{"linkedin.com"}},
	{"Instagram", []string{"instagram.com"}},
	{"YouTube", []string{"youtube.com", "youtu.be"}},
	{"TikTok", []string{"tiktok.com"}},
	{"Pinterest", []string{"pinterest.com"}},
	{"Snapchat", []string{"snapchat.com"}},
	{"Reddit", []string{"reddit.com"}},
	{"GitHub", []string{"github.com"}},
	{"Discord", []string{"discord.gg", "discord.com"}},
	{"Telegram", []string{"t.me", "telegram.me"}},
	{"WhatsApp", []string{"wa.me", "whatsapp.com"}},
}

var handlePattern = regexp.MustCompile(`(?:@|/)([\w.-]+)/?$`)

func socialPlatform(host string) string {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, p := range socialPlatforms {
		for _, h := range p.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p.name
			}
		}
	}
	return ""
}

// DetectSocialMedia lists social profiles linked from anchors.
func DetectSocialMedia(in *Input) *model.SocialMedia {
	sm := &model.SocialMedia{Platforms: make([]model.SocialProfile, 0)}
	seen := make(map[string]struct{})
	in.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || u.Host == "" {
			return
		}
		platform := socialPlatform(u.Hostname())
		if platform == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		p := model.SocialProfile{Platform: platform, URL: href}
		if m := handlePattern.FindStringSubmatch(u.Path); m != nil {
			p.Handle = m[1]
		}
		text := strings.ToLower(s.Text())
		p.Verified = strings.Contains(text, "✓") || strings.Contains(text, "verified")
		if p.Verified {
			sm.HasOfficialLinks = true
		}
		sm.Platforms = append(sm.Platforms, p)
	})
	sm.TotalPlatforms = len(sm.Platforms)
	return sm
}
