package detect

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/model"
)

// jsonLD returns every parseable application/ld+json block. Malformed blocks
// are skipped.
func jsonLD(doc *document.Document) []any {
	out := make([]any, 0)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			return
		}
		out = append(out, v)
	})
	return out
}

// schemaType renders an @type value, joining arrays with ", ".
func schemaType(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// DetectSEO extracts on-page SEO facts.
func DetectSEO(in *Input) *model.SEOFacts {
	doc := in.Doc
	seo := &model.SEOFacts{
		Title:          doc.Title(),
		Description:    doc.MetaContent(`meta[name="description"]`),
		Keywords:       make([]string, 0),
		OGTags:         make(map[string]string),
		TwitterTags:    make(map[string]string),
		StructuredData: make([]any, 0),
		SchemaTypes:    make([]string, 0),
		Hreflang:       make(map[string]string),
		MetaRobots:     doc.MetaContent(`meta[name="robots"]`),
	}
	seo.CanonicalURL, _ = doc.Attr(`link[rel="canonical"]`, "href")

	for _, k := range strings.Split(doc.MetaContent(`meta[name="keywords"]`), ",") {
		if k = strings.TrimSpace(k); k != "" {
			seo.Keywords = append(seo.Keywords, k)
		}
	}

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if prop != "" && content != "" {
			seo.OGTags[prop] = content
		}
	})
	doc.Find(`meta[name^="twitter:"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		if name != "" && content != "" {
			seo.TwitterTags[name] = content
		}
	})

	for _, block := range jsonLD(doc) {
		seo.StructuredData = append(seo.StructuredData, block)
		m, ok := block.(map[string]any)
		if !ok {
			continue
		}
		if t := schemaType(m["@type"]); t != "" {
			seo.SchemaTypes = append(seo.SchemaTypes, t)
			if t == "BreadcrumbList" {
				seo.Breadcrumbs = true
			}
		}
	}

	seo.Headings = model.Headings{
		H1: doc.Count("h1"),
		H2: doc.Count("h2"),
		H3: doc.Count("h3"),
		H4: doc.Count("h4"),
		H5: doc.Count("h5"),
		H6: doc.Count("h6"),
	}
	seo.ImageAltTags = doc.Count("img[alt]")

	host := doc.Base.URL.Hostname()
	for _, l := range in.Resources.Links {
		if isInternalHost(l, host) {
			seo.InternalLinks++
		} else {
			seo.ExternalLinks++
		}
	}

	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		lang, _ := s.Attr("hreflang")
		href, _ := s.Attr("href")
		if lang != "" && href != "" {
			seo.Hreflang[lang] = href
		}
	})
	seo.Pagination.Next, _ = doc.Attr(`link[rel="next"]`, "href")
	seo.Pagination.Prev, _ = doc.Attr(`link[rel="prev"]`, "href")

	seo.WordCount = len(doc.Words())
	seo.ReadingTime = int(math.Ceil(float64(seo.WordCount) / 200))
	return seo
}

// AnalyzeStructuredData summarizes JSON-LD and microdata on the page.
func AnalyzeStructuredData(in *Input) *model.StructuredData {
	sd := &model.StructuredData{
		Types:            make([]string, 0),
		Schemas:          make([]model.SchemaBlock, 0),
		ValidationErrors: make([]string, 0),
	}
	add := func(m map[string]any) {
		t := schemaType(m["@type"])
		if t == "" {
			return
		}
		if !contains(sd.Types, t) {
			sd.Types = append(sd.Types, t)
		}
		sd.Schemas = append(sd.Schemas, model.SchemaBlock{Type: t, Data: m})
	}
	for _, block := range jsonLD(in.Doc) {
		m, ok := block.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := m["@type"]; ok {
			add(m)
			continue
		}
		if graph, ok := m["@graph"].([]any); ok {
			for _, item := range graph {
				if im, ok := item.(map[string]any); ok {
					add(im)
				}
			}
		}
	}
	hasMicrodata := in.Doc.Count("[itemscope]") > 0
	sd.HasStructuredData = len(sd.Schemas) > 0 || hasMicrodata
	sd.RichSnippetsEligible = len(sd.Schemas) > 0
	return sd
}
