// Package detect holds the signature-matching analyzers. Every analyzer is a
// pure function of an Input; detection rules live in data tables that are
// evaluated by one generic matcher.
package detect

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/model"
)

// Source selects which haystack a signature is matched against. Sources are
// bit flags; a zero Source means SourceHTML.
type Source uint8

const (
	SourceHTML Source = 1 << iota
	SourceScripts
	SourceStyles
	SourceHeaders
	SourceText
)

// Signature is one detection rule. It matches when any Contains needle (lower
// case) or Pattern is found in any of the selected sources.
type Signature struct {
	Label    string
	Contains []string
	Pattern  *regexp.Regexp
	In       Source
}

// Table is an ordered list of signatures for one category.
type Table []Signature

// Input is everything a signature analyzer may look at. It is built once per
// scan and shared read-only by all analyzers.
type Input struct {
	Doc       *document.Document
	Resources document.Resources
	Headers   http.Header
	Cookies   []model.Cookie

	haystacks map[Source]string
}

// NewInput prepares the lowered haystacks used by table matching.
func NewInput(doc *document.Document, res document.Resources, headers http.Header, cookies []model.Cookie) *Input {
	if headers == nil {
		headers = http.Header{}
	}
	in := &Input{
		Doc:       doc,
		Resources: res,
		Headers:   headers,
		Cookies:   cookies,
		haystacks: make(map[Source]string, 5),
	}
	if doc != nil {
		in.haystacks[SourceHTML] = doc.Lower
		in.haystacks[SourceText] = strings.ToLower(doc.BodyText())
	}
	in.haystacks[SourceScripts] = strings.ToLower(strings.Join(res.Scripts, "\n"))
	in.haystacks[SourceStyles] = strings.ToLower(strings.Join(res.Stylesheets, "\n"))
	in.haystacks[SourceHeaders] = lowerHeaders(headers)
	return in
}

func lowerHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		for _, v := range h[k] {
			b.WriteString(strings.ToLower(k))
			b.WriteString(": ")
			b.WriteString(strings.ToLower(v))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// HTML returns the lower-cased raw HTML.
func (in *Input) HTML() string { return in.haystacks[SourceHTML] }

// Text returns the lower-cased visible body text.
func (in *Input) Text() string { return in.haystacks[SourceText] }

func (in *Input) matches(sig Signature) bool {
	src := sig.In
	if src == 0 {
		src = SourceHTML
	}
	for s := SourceHTML; s <= SourceText; s <<= 1 {
		if src&s == 0 {
			continue
		}
		hay := in.haystacks[s]
		if hay == "" {
			continue
		}
		for _, needle := range sig.Contains {
			if strings.Contains(hay, needle) {
				return true
			}
		}
		if sig.Pattern != nil && sig.Pattern.MatchString(hay) {
			return true
		}
	}
	return false
}

// Match returns the labels of every matching signature in table order. Each
// label appears once even if several signatures share it.
func (t Table) Match(in *Input) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, sig := range t {
		if _, ok := seen[sig.Label]; ok {
			continue
		}
		if in.matches(sig) {
			seen[sig.Label] = struct{}{}
			out = append(out, sig.Label)
		}
	}
	return out
}

// First returns the label of the first matching signature, or "".
func (t Table) First(in *Input) string {
	for _, sig := range t {
		if in.matches(sig) {
			return sig.Label
		}
	}
	return ""
}

// Last returns the label of the last matching signature, or "".
func (t Table) Last(in *Input) string {
	for i := len(t) - 1; i >= 0; i-- {
		if in.matches(t[i]) {
			return t[i].Label
		}
	}
	return ""
}

// Any reports whether any signature matches.
func (t Table) Any(in *Input) bool {
	return t.First(in) != ""
}

// MatchString runs the table against a single lower-cased string, ignoring
// each signature's sources. It is used for per-link categorization.
func (t Table) MatchString(s string) string {
	for _, sig := range t {
		for _, needle := range sig.Contains {
			if strings.Contains(s, needle) {
				return sig.Label
			}
		}
		if sig.Pattern != nil && sig.Pattern.MatchString(s) {
			return sig.Label
		}
	}
	return ""
}

func sig(label string, in Source, needles ...string) Signature {
	return Signature{Label: label, Contains: needles, In: in}
}
