package detect

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitelens/internal/model"
)

// isInternalHost reports whether link points at host or one of its
// subdomains. Unparseable links count as internal.
func isInternalHost(link, host string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return true
	}
	h := strings.ToLower(u.Hostname())
	host = strings.ToLower(host)
	return h == host || strings.HasSuffix(h, "."+host)
}

// Link category tables, checked in this order against the full lower-cased
// URL. Anything unmatched is "other".
var (
	linkSocial = Table{sig("social", 0,
		"facebook.com", "twitter.com", "x.com", "linkedin.com", "instagram.com", "youtube.com", "tiktok.com",
		"pinterest.com", "snapchat.com", "reddit.com", "tumblr.com", "vimeo.com", "flickr.com", "medium.com")}
	linkCDN = Table{sig("cdn", 0,
		"cloudflare.com", "akamai.net", "fastly.net", "cloudfront.net", "jsdelivr.net", "unpkg.com",
		"cdnjs.com", "bootstrapcdn.com", "googleapis.com", "gstatic.com")}
	linkAnalytics = Table{sig("analytics", 0,
		"google-analytics.com", "googletagmanager.com", "hotjar.com", "mixpanel.com", "segment.com",
		"amplitude.com", "heap.io", "fullstory.com", "mouseflow.com", "crazyegg.com")}
	linkAdvertising = Table{sig("advertising", 0,
		"doubleclick.net", "googlesyndication.com", "googleadservices.com", "adroll.com", "adsrvr.org",
		"criteo.com", "outbrain.com", "taboola.com", "media.net", "adnxs.com")}
	linkAffiliate = Table{sig("affiliate", 0,
		"amazon.com/gp/product", "amzn.to", "shareasale.com", "cj.com", "clickbank.com", "rakuten.com",
		"impact.com", "awin1.com", "partnerize.com", "linksynergy.com")}
	linkSponsored = Table{sig("sponsored", 0,
		"sponsor", "affiliate", "partner", "ref=", "aff=", "click=")}
)

// CategorizeLink returns the category of an external link. rel is the
// anchor's rel attribute.
func CategorizeLink(link, rel string) string {
	lower := strings.ToLower(link)
	for _, t := range []Table{linkSocial, linkCDN, linkAnalytics, linkAdvertising, linkAffiliate} {
		if c := t.MatchString(lower); c != "" {
			return c
		}
	}
	if strings.Contains(strings.ToLower(rel), "sponsored") {
		return "sponsored"
	}
	if c := linkSponsored.MatchString(lower); c != "" {
		return c
	}
	return "other"
}

func skippableHref(href string) bool {
	return href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:")
}

// AnalyzeExternalLinks categorizes absolute anchors that leave the site.
// Relative links are never external.
func AnalyzeExternalLinks(in *Input) *model.ExternalLinks {
	host := in.Doc.Base.URL.Hostname()
	el := &model.ExternalLinks{
		Domains: make([]string, 0),
		Categorized: model.LinkCategories{
			Social:      make([]string, 0),
			CDN:         make([]string, 0),
			Analytics:   make([]string, 0),
			Advertising: make([]string, 0),
			Affiliate:   make([]string, 0),
			Sponsored:   make([]string, 0),
			Other:       make([]string, 0),
		},
	}
	slots := map[string]*[]string{
		"social":      &el.Categorized.Social,
		"cdn":         &el.Categorized.CDN,
		"analytics":   &el.Categorized.Analytics,
		"advertising": &el.Categorized.Advertising,
		"affiliate":   &el.Categorized.Affiliate,
		"sponsored":   &el.Categorized.Sponsored,
		"other":       &el.Categorized.Other,
	}

	in.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if skippableHref(href) {
			return
		}
		switch {
		case strings.HasPrefix(href, "//"):
			href = "https:" + href
		case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		default:
			return
		}
		u, err := url.Parse(href)
		if err != nil || u.Host == "" || isInternalHost(href, host) {
			return
		}

		el.Total++
		rel, _ := s.Attr("rel")
		if strings.Contains(strings.ToLower(rel), "nofollow") {
			el.NofollowLinks++
		} else {
			el.FollowedLinks++
		}
		if d := strings.ToLower(u.Hostname()); !contains(el.Domains, d) {
			el.Domains = append(el.Domains, d)
		}
		slot := slots[CategorizeLink(href, rel)]
		if !contains(*slot, href) {
			*slot = append(*slot, href)
		}
	})
	return el
}

// AnalyzeInternalLinks counts same-site anchors and the deepest path among
// them.
func AnalyzeInternalLinks(in *Input) *model.InternalLinks {
	host := in.Doc.Base.URL.Hostname()
	il := &model.InternalLinks{
		OrphanPages:    make([]string, 0),
		BrokenInternal: make([]string, 0),
		RedirectChains: make([]string, 0),
	}
	unique := make(map[string]struct{})
	in.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if skippableHref(href) {
			return
		}
		abs, err := in.Doc.Resolve(href)
		if err != nil || !isInternalHost(abs, host) {
			return
		}
		il.Total++
		unique[abs] = struct{}{}
		if u, err := url.Parse(abs); err == nil {
			if depth := pathDepth(u.Path); depth > il.MaxDepth {
				il.MaxDepth = depth
			}
		}
	})
	il.Unique = len(unique)
	return il
}

func pathDepth(p string) int {
	n := 0
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}
