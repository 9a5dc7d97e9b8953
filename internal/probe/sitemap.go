package probe

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/utils"
	"github.com/raysh454/sitelens/internal/webclient"
)

// MaxSitemapURLs bounds the entries returned for one sitemap.
const MaxSitemapURLs = 100

var errInvalidSitemap = errors.New("invalid sitemap format")

type sitemapEntry struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod"`
	ChangeFreq string     `xml:"changefreq"`
	Priority   string     `xml:"priority"`
	Images     []struct{} `xml:"image"`
	Videos     []struct{} `xml:"video"`
}

type sitemapDocument struct {
	XMLName  xml.Name
	URLs     []sitemapEntry `xml:"url"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type SitemapProbe struct {
	wc     webclient.WebClient
	logger logging.Logger
}

func NewSitemapProbe(wc webclient.WebClient, logger logging.Logger) *SitemapProbe {
	return &SitemapProbe{wc: wc, logger: logger.With(logging.Field{Key: "probe", Value: "sitemap"})}
}

// Probe fetches /sitemap.xml next to target.
func (p *SitemapProbe) Probe(ctx context.Context, target string) *model.Sitemap {
	sitemapURL := utils.OriginOf(target) + "/sitemap.xml"
	failed := func(msg string) *model.Sitemap {
		return SitemapUnavailable(target, msg)
	}

	body, resp, err := fetchSibling(ctx, p.wc, target, "/sitemap.xml")
	if err != nil {
		p.logger.Debug("sitemap.xml unavailable", logging.Field{Key: "error", Value: err})
		return failed(err.Error())
	}

	sm, err := ParseSitemap([]byte(body))
	if err != nil {
		return failed(err.Error())
	}
	sm.URL = sitemapURL
	sm.LastModified = resp.Headers.Get("Last-Modified")
	return sm
}

// SitemapUnavailable is the record for a sitemap.xml next to target that
// could not be read.
func SitemapUnavailable(target, reason string) *model.Sitemap {
	return &model.Sitemap{
		URL:    utils.OriginOf(target) + "/sitemap.xml",
		URLs:   []model.SitemapURL{},
		Errors: []string{reason},
	}
}

// ParseSitemap decodes a <urlset> or <sitemapindex> document. For an index
// the child sitemaps are reported as its URLs.
func ParseSitemap(data []byte) (*model.Sitemap, error) {
	var doc sitemapDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	sm := &model.Sitemap{Exists: true, URLs: []model.SitemapURL{}, Errors: []string{}}
	var entries []sitemapEntry
	switch strings.ToLower(doc.XMLName.Local) {
	case "urlset":
		entries = doc.URLs
	case "sitemapindex":
		sm.IsIndex = true
		entries = doc.Sitemaps
	default:
		return nil, errInvalidSitemap
	}

	sm.URLCount = len(entries)
	for i, e := range entries {
		sm.Images += len(e.Images)
		sm.Videos += len(e.Videos)
		if i < MaxSitemapURLs {
			sm.URLs = append(sm.URLs, model.SitemapURL{
				Loc:        strings.TrimSpace(e.Loc),
				LastMod:    strings.TrimSpace(e.LastMod),
				ChangeFreq: strings.TrimSpace(e.ChangeFreq),
				Priority:   strings.TrimSpace(e.Priority),
			})
		}
	}
	return sm, nil
}
