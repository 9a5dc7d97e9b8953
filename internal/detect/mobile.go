package detect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raysh454/sitelens/internal/model"
)

// DetectMobile checks the viewport declaration and responsive hints. The
// hints are matched case-sensitively against the raw markup.
func DetectMobile(in *Input) *model.Mobile {
	m := &model.Mobile{}
	if vp, ok := in.Doc.Attr(`meta[name="viewport"]`, "content"); ok {
		m.HasViewport = true
		m.Viewport = vp
		m.MobileFriendly = strings.Contains(vp, "width=device-width")
	}
	raw := in.Doc.HTML
	m.ResponsiveDesign = strings.Contains(raw, "@media") || strings.Contains(raw, "responsive") || m.MobileFriendly
	m.TouchOptimized = strings.Contains(raw, "touch") || strings.Contains(raw, "ontouchstart")
	return m
}

// DetectPWA reports manifest and service worker presence.
func DetectPWA(in *Input) *model.PWA {
	p := &model.PWA{}
	if href, ok := in.Doc.Attr(`link[rel="manifest"]`, "href"); ok {
		p.HasManifest = true
		p.ManifestURL = href
	}
	raw := in.Doc.HTML
	p.HasServiceWorker = strings.Contains(raw, "serviceWorker") || strings.Contains(raw, "service-worker")
	p.IsInstallable = p.HasManifest && p.HasServiceWorker
	p.OfflineSupport = p.HasServiceWorker
	return p
}

var (
	cartTable = Table{
		sig("cart", SourceHTML, "add to cart", "shopping cart", "basket"),
	}
	reviewTable = Table{
		sig("reviews", SourceHTML, "review", "rating", "★"),
	}
	currencySymbol = regexp.MustCompile(`[$€£¥₹]`)
)

// DetectEcommerce looks for store signals: a cart, reviews, product schema,
// product listings and currency symbols. platform is the value chosen by
// technology detection.
func DetectEcommerce(in *Input, platform string) *model.Ecommerce {
	e := &model.Ecommerce{
		Platform:   platform,
		HasCart:    cartTable.Any(in),
		HasReviews: reviewTable.Any(in),
	}

	for _, block := range jsonLD(in.Doc) {
		m, ok := block.(map[string]any)
		if !ok {
			continue
		}
		switch schemaType(m["@type"]) {
		case "Product":
			e.HasProductSchema = true
		case "ItemList":
			e.HasProductSchema = true
			e.ProductCount = intValue(m["numberOfItems"])
		}
	}
	if e.ProductCount == 0 {
		e.ProductCount = in.Doc.Count(`.product, [itemtype*="Product"]`)
	}
	e.Currency = currencySymbol.FindString(in.Doc.BodyText())

	e.IsEcommerce = e.HasCart || e.HasProductSchema || e.ProductCount > 0 || e.Currency != ""
	return e
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
