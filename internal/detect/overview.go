package detect

import (
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitelens/internal/model"
)

// securityHeaderNames are echoed into SecurityFacts.Headers when present.
var securityHeaderNames = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"X-XSS-Protection",
	"Referrer-Policy",
	"Permissions-Policy",
}

// DetectSecurity reports page-level security basics: HTTPS, key headers,
// subresource integrity and mixed content.
func DetectSecurity(in *Input) *model.SecurityFacts {
	https := in.Doc.Base.URL.Scheme == "https"
	s := &model.SecurityFacts{
		HTTPS:                https,
		HasCSP:               in.Headers.Get("Content-Security-Policy") != "",
		HasHSTS:              in.Headers.Get("Strict-Transport-Security") != "",
		HasXFrameOptions:     in.Headers.Get("X-Frame-Options") != "",
		SubresourceIntegrity: in.Doc.Count("script[integrity], link[integrity]") > 0,
		MixedContent:         make([]string, 0),
		Headers:              make(map[string]string),
	}
	for _, name := range securityHeaderNames {
		if v := in.Headers.Get(name); v != "" {
			s.Headers[strings.ToLower(name)] = v
		}
	}
	if https {
		in.Doc.Find(`script[src^="http:"], link[href^="http:"], img[src^="http:"]`).Each(func(_ int, el *goquery.Selection) {
			if ref := firstAttr(el, "src", "href"); ref != "" {
				s.MixedContent = append(s.MixedContent, ref)
			}
		})
	}
	return s
}

var socialLinkHosts = []string{"facebook", "twitter", "linkedin", "instagram", "youtube", "github"}

// DetectSocialLinks maps platform to the first profile link found for it,
// alongside the page's Open Graph tags.
func DetectSocialLinks(in *Input) *model.SocialLinks {
	sl := &model.SocialLinks{
		Links: make(map[string]string),
		Meta:  make(map[string]string),
	}
	in.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || u.Host == "" {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		for _, h := range socialLinkHosts {
			if !strings.Contains(host, h) {
				continue
			}
			platform := strings.SplitN(host, ".", 2)[0]
			if _, ok := sl.Links[platform]; !ok {
				sl.Links[platform] = href
			}
			return
		}
	})
	in.Doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if content != "" {
			sl.Meta[strings.TrimPrefix(prop, "og:")] = content
		}
	})
	return sl
}

const maxContacts = 10

var basicPhonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// DetectContacts summarizes emails and phone numbers in the visible text,
// at most ten of each.
func DetectContacts(in *Input) *model.Contacts {
	text := in.Doc.BodyText()
	c := &model.Contacts{Emails: make([]string, 0), Phones: make([]string, 0)}
	for _, e := range uniqueMatches(emailPattern, text) {
		if len(c.Emails) == maxContacts {
			break
		}
		c.Emails = append(c.Emails, e)
	}
	for _, p := range uniqueMatches(basicPhonePattern, text) {
		if len(c.Phones) == maxContacts {
			break
		}
		c.Phones = append(c.Phones, strings.TrimSpace(p))
	}
	return c
}

// DetectForms counts forms by purpose. A form may count toward several
// purposes.
func DetectForms(in *Input) *model.Forms {
	d := in.Doc
	return &model.Forms{
		Total:      d.Count("form"),
		LoginForms: d.Count(`form:has([type="password"])`),
		SearchForms: d.Count(`form:has([type="search"]), form:has(input[name*="search"]), ` +
			`form:has(input[name*="query"])`),
		ContactForms: d.Count(`form:has([type="email"]), form:has(input[name*="email"]), ` +
			`form:has(textarea[name*="message"])`),
		NewsletterForms: d.Count(`form:has(input[name*="newsletter"]), form:has(input[name*="subscribe"])`),
	}
}

// DetectMedia counts embedded video, audio and frames.
func DetectMedia(in *Input) *model.Media {
	m := &model.Media{
		Videos:  in.Doc.Count(`video, iframe[src*="youtube"], iframe[src*="vimeo"]`),
		Audio:   in.Doc.Count("audio"),
		Iframes: in.Doc.Count("iframe"),
		Embeds:  make([]string, 0),
	}
	in.Doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); src != "" {
			m.Embeds = append(m.Embeds, src)
		}
	})
	return m
}

var (
	swaggerRef = regexp.MustCompile(`['"]([^'"]*swagger[^'"]*)['"]`)
	apiDocRef  = regexp.MustCompile(`['"]([^'"]*/docs?[^'"]*)['"]`)
)

// DetectAPIFlags looks for GraphQL, WebSocket and REST usage and for links to
// API documentation.
func DetectAPIFlags(in *Input) *model.APIFlags {
	raw := in.Doc.HTML
	lower := in.HTML()
	f := &model.APIFlags{
		HasGraphQL:   strings.Contains(lower, "graphql"),
		HasWebSocket: strings.Contains(raw, "WebSocket") || strings.Contains(lower, "ws://") || strings.Contains(lower, "wss://"),
		HasREST:      strings.Contains(lower, "/api/") || strings.Contains(lower, "rest"),
	}
	if m := swaggerRef.FindStringSubmatch(raw); m != nil {
		f.SwaggerURL = m[1]
	}
	if m := apiDocRef.FindStringSubmatch(raw); m != nil {
		f.APIDocumentation = m[1]
	}
	return f
}

// DetectContent reports word count and reading time at 200 words per
// minute.
func DetectContent(in *Input) *model.Content {
	words := len(in.Doc.Words())
	return &model.Content{
		WordCount:        words,
		ReadingTime:      int(math.Ceil(float64(words) / 200)),
		HeadingHierarchy: in.Doc.Count("h1") == 1,
	}
}

// DetectStructure fills the page-derived structure flags. Robots and sitemap
// existence come from the probes and are set by the caller.
func DetectStructure(in *Input, mobile *model.Mobile) *model.Structure {
	lang := in.Doc.Lang()
	if lang == "" {
		lang = "en"
	}
	s := &model.Structure{Language: lang}
	if mobile != nil {
		s.Responsive = mobile.ResponsiveDesign
	}
	return s
}
