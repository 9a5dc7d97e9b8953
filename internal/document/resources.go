package document

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxImages bounds the image list handed back to callers.
	MaxImages = 50
	// MaxLinks bounds the link list handed back to callers.
	MaxLinks = 100
)

// Resources are the absolute, first-seen-deduplicated resource URLs of a page.
// The lists are complete; use Truncated before putting them on the wire.
type Resources struct {
	Scripts     []string
	Stylesheets []string
	Images      []string
	Links       []string
}

// ExtractResources pulls scripts, stylesheets, images and links out of doc.
// References that fail to resolve to an absolute http(s) URL are skipped.
func ExtractResources(doc *Document) Resources {
	return Resources{
		Scripts:     collect(doc, "script[src]", "src"),
		Stylesheets: collect(doc, `link[rel~="stylesheet"][href]`, "href"),
		Images:      collect(doc, "img[src]", "src"),
		Links:       collect(doc, "a[href]", "href"),
	}
}

// Truncated returns a copy with images capped at MaxImages and links at
// MaxLinks, keeping the first-seen entries.
func (r Resources) Truncated() Resources {
	out := r
	if len(out.Images) > MaxImages {
		out.Images = append([]string(nil), out.Images[:MaxImages]...)
	}
	if len(out.Links) > MaxLinks {
		out.Links = append([]string(nil), out.Links[:MaxLinks]...)
	}
	return out
}

func collect(doc *Document, selector, attr string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		raw, ok := s.Attr(attr)
		if !ok {
			return
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			return
		}
		abs, err := doc.Resolve(raw)
		if err != nil {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	})
	return out
}
