// Package apiminer finds API endpoints and backend URLs referenced by a page,
// either in its inline scripts or in the requests a browser made while
// loading it.
package apiminer

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/utils"
)

// Input is everything the miner looks at for one page.
type Input struct {
	// Origin is scheme://host of the scanned page. Relative literals resolve
	// against it.
	Origin string

	InlineScripts []string
	// ScriptSrcs are the absolute URLs of external scripts.
	ScriptSrcs []string
	// Requests are the requests captured while rendering. Empty in basic mode.
	Requests []model.NetworkRequest
}

// Result holds the mined URLs, deduplicated in first-seen order.
type Result struct {
	APIs        []string
	BackendURLs []string

	// Observed maps a captured API URL to the method the browser used.
	Observed map[string]string
}

// Mine runs every source in a fixed order: captured API requests, script
// literals, captured cross-origin requests, then external script hosts.
func Mine(in Input) Result {
	apis := newOrderedSet()
	backends := newOrderedSet()
	observed := make(map[string]string)

	for _, r := range in.Requests {
		if isAPIRequest(r) {
			apis.add(r.URL)
			if _, seen := observed[r.URL]; !seen && r.Method != "" {
				observed[r.URL] = strings.ToUpper(r.Method)
			}
		}
	}

	base, _ := url.Parse(in.Origin)
	for _, script := range in.InlineScripts {
		for _, raw := range candidates(script, scriptPatterns) {
			abs, ok := absolutize(raw, base)
			if !ok {
				continue
			}
			switch {
			case IsEndpoint(abs):
				apis.add(abs)
			case strings.HasPrefix(abs, "http"):
				backends.add(abs)
			}
		}
	}

	for _, r := range in.Requests {
		origin := utils.OriginOf(r.URL)
		if origin == "" || origin == strings.ToLower(in.Origin) {
			continue
		}
		if containsAny(origin, noisyOrigins) {
			continue
		}
		backends.add(origin)
	}

	for _, src := range in.ScriptSrcs {
		if !containsAny(src, backendScriptMarkers) {
			continue
		}
		if origin := utils.OriginOf(src); origin != "" {
			backends.add(origin)
		}
	}

	return Result{APIs: apis.items, BackendURLs: backends.items, Observed: observed}
}

func isAPIRequest(r model.NetworkRequest) bool {
	if IsEndpoint(r.URL) {
		return true
	}
	switch strings.ToUpper(r.Method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// absolutize resolves root-relative literals against base. Anything else is
// returned unchanged as long as it parses.
func absolutize(raw string, base *url.URL) (string, bool) {
	if strings.HasPrefix(raw, "/") {
		if base == nil || base.Host == "" {
			return "", false
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		return base.ResolveReference(ref).String(), true
	}
	if _, err := url.Parse(raw); err != nil {
		return "", false
	}
	return raw, true
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: make([]string, 0)}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
