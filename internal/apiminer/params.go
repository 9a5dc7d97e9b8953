package apiminer

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/raysh454/sitelens/internal/model"
)

var (
	numericSegment    = regexp.MustCompile(`^\d+$`)
	uuidSegment       = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	identifierSegment = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// ExtractParameters turns URLs into endpoint records with their likely
// parameters and a method guessed from path keywords. URLs that do not parse
// as absolute URLs are dropped. observed, which may be nil, supplies the
// methods seen on the wire.
func ExtractParameters(urls []string, observed map[string]string) []model.EndpointRecord {
	out := make([]model.EndpointRecord, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		out = append(out, model.EndpointRecord{
			URL:            raw,
			MethodGuess:    GuessMethod(u.Path),
			ObservedMethod: observed[raw],
			Parameters: model.Parameters{
				Query: queryPairs(u.RawQuery),
				Path:  pathParams(u.Path),
			},
		})
	}
	return out
}

// GuessMethod maps path keywords to a verb. It is a heuristic, nothing more.
func GuessMethod(path string) model.HTTPMethod {
	p := strings.ToLower(path)
	switch {
	case containsAny(p, []string{"/create", "/add", "/post"}):
		return model.MethodPOST
	case containsAny(p, []string{"/update", "/edit", "/put"}):
		return model.MethodPUT
	case containsAny(p, []string{"/delete", "/remove"}):
		return model.MethodDELETE
	}
	return model.MethodGET
}

// queryPairs keeps the query's own order, which url.Values would lose.
func queryPairs(rawQuery string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			val = v
		}
		out = append(out, key+"="+val)
	}
	return out
}

func pathParams(path string) []string {
	out := make([]string, 0)
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if numericSegment.MatchString(seg) || uuidSegment.MatchString(seg) ||
			(identifierSegment.MatchString(seg) && len(seg) > 2) {
			out = append(out, seg)
		}
	}
	return out
}
