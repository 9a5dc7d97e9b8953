package apiminer

import (
	"regexp"
	"strings"
)

const urlLiteral = `['"](https?://[^'"]+|/[^'"]+)['"]`

// scriptPatterns are tried in order over every inline script.
var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fetch\s*\(\s*` + urlLiteral),
	regexp.MustCompile(`(?i)axios\.[a-z]+\s*\(\s*` + urlLiteral),
	regexp.MustCompile(`(?i)\$\.ajax\s*\(\s*\{[^}]*url\s*:\s*` + urlLiteral),
	regexp.MustCompile(`(?i)XMLHttpRequest[\s\S]*?open\s*\(\s*['"][A-Z]+['"]\s*,\s*` + urlLiteral),
	regexp.MustCompile(`(?i)['"]https?://[^'"]*api[^'"]*['"]`),
	regexp.MustCompile(`(?i)['"]/api/[^'"]+['"]`),
}

// deepPatterns is the reduced set used on linked pages.
var deepPatterns = []*regexp.Regexp{
	scriptPatterns[0],
	scriptPatterns[1],
	scriptPatterns[5],
}

var (
	callPrefix = regexp.MustCompile(`(?i)^(?:fetch|axios\.[a-z]+)\s*\(\s*`)
	quoteChars = regexp.MustCompile("['\"`]")
)

// candidates returns the cleaned URL literal of every match of patterns in
// content, in pattern order then match order.
func candidates(content string, patterns []*regexp.Regexp) []string {
	var out []string
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			raw := m[0]
			if len(m) > 1 && m[1] != "" {
				raw = m[1]
			}
			raw = callPrefix.ReplaceAllString(raw, "")
			raw = strings.TrimSpace(quoteChars.ReplaceAllString(raw, ""))
			if raw != "" {
				out = append(out, raw)
			}
		}
	}
	return out
}

var endpointMarkers = []string{"/api/", "/graphql", "/rest/", ".json", "/v1/", "/v2/"}

// IsEndpoint reports whether u looks like an API endpoint.
func IsEndpoint(u string) bool {
	for _, m := range endpointMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}

var backendScriptMarkers = []string{"/api/", "api.", "backend.", "service."}

var noisyOrigins = []string{"google", "facebook", "analytics"}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
