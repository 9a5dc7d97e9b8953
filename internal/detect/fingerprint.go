package detect

import (
	"net/http"
	"sort"
	"sync"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
)

// Fingerprinter reports technologies by name with their categories.
type Fingerprinter interface {
	Fingerprint(headers http.Header, body []byte) map[string][]string
}

// WappalyzerFingerprinter matches the wappalyzer fingerprint database against
// response headers and body.
type WappalyzerFingerprinter struct {
	client *wappalyzer.Wappalyze
}

var (
	categoryNames     map[int]string
	categoryNamesOnce sync.Once
)

// NewWappalyzerFingerprinter loads the embedded fingerprint database.
func NewWappalyzerFingerprinter() (*WappalyzerFingerprinter, error) {
	client, err := wappalyzer.New()
	if err != nil {
		return nil, err
	}
	categoryNamesOnce.Do(func() {
		categoryNames = make(map[int]string)
		for id, cat := range wappalyzer.GetCategoriesMapping() {
			categoryNames[id] = cat.Name
		}
	})
	return &WappalyzerFingerprinter{client: client}, nil
}

func (w *WappalyzerFingerprinter) Fingerprint(headers http.Header, body []byte) map[string][]string {
	out := make(map[string][]string)
	for tech, info := range w.client.FingerprintWithCats(headers, body) {
		cats := make([]string, 0, len(info.Cats))
		for _, id := range info.Cats {
			if name, ok := categoryNames[id]; ok {
				cats = append(cats, name)
			}
		}
		sort.Strings(cats)
		out[tech] = cats
	}
	return out
}
