package detect

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/raysh454/sitelens/internal/model"
	"gopkg.in/yaml.v3"
)

// customSignatureFile is the on-disk shape of a user signature file:
//
//	signatures:
//	  - category: frameworks
//	    label: Remix
//	    contains: ["__remixcontext"]
//	    in: [html, scripts]
//
// Haystacks are lower-cased, so contains needles are lower-cased on load and
// patterns are compiled case-insensitive.
type customSignatureFile struct {
	Signatures []customSignature `yaml:"signatures"`
}

type customSignature struct {
	Category string   `yaml:"category"`
	Label    string   `yaml:"label"`
	Contains []string `yaml:"contains"`
	Pattern  string   `yaml:"pattern"`
	In       []string `yaml:"in"`
}

var sourceNames = map[string]Source{
	"html":    SourceHTML,
	"scripts": SourceScripts,
	"styles":  SourceStyles,
	"headers": SourceHeaders,
	"text":    SourceText,
}

// CustomSignatures are extra technology signatures loaded from YAML and
// appended to the built-in tables.
type CustomSignatures struct {
	tables map[string]Table
}

// LoadSignatures reads a YAML signature file.
func LoadSignatures(path string) (*CustomSignatures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signatures: %w", err)
	}
	return ParseSignatures(raw)
}

// ParseSignatures parses YAML signature definitions.
func ParseSignatures(raw []byte) (*CustomSignatures, error) {
	var f customSignatureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse signatures: %w", err)
	}
	cs := &CustomSignatures{tables: make(map[string]Table)}
	for i, s := range f.Signatures {
		category := strings.ToLower(strings.TrimSpace(s.Category))
		if _, ok := techSlots[category]; !ok {
			return nil, fmt.Errorf("signature %d: unknown category %q", i, s.Category)
		}
		if s.Label == "" {
			return nil, fmt.Errorf("signature %d: label is required", i)
		}
		sg := Signature{Label: s.Label}
		for _, c := range s.Contains {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				sg.Contains = append(sg.Contains, c)
			}
		}
		if s.Pattern != "" {
			re, err := regexp.Compile("(?i)" + s.Pattern)
			if err != nil {
				return nil, fmt.Errorf("signature %d (%s): %w", i, s.Label, err)
			}
			sg.Pattern = re
		}
		if len(sg.Contains) == 0 && sg.Pattern == nil {
			return nil, fmt.Errorf("signature %d (%s): needs contains or pattern", i, s.Label)
		}
		for _, name := range s.In {
			src, ok := sourceNames[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("signature %d (%s): unknown source %q", i, s.Label, name)
			}
			sg.In |= src
		}
		cs.tables[category] = append(cs.tables[category], sg)
	}
	return cs, nil
}

// Len returns the number of loaded signatures.
func (c *CustomSignatures) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, t := range c.tables {
		n += len(t)
	}
	return n
}

var techSlots = map[string]func(*model.Technologies) *[]string{
	"frameworks":      func(t *model.Technologies) *[]string { return &t.Frameworks },
	"libraries":       func(t *model.Technologies) *[]string { return &t.Libraries },
	"cms":             func(t *model.Technologies) *[]string { return &t.CMS },
	"analytics":       func(t *model.Technologies) *[]string { return &t.Analytics },
	"tagmanagers":     func(t *model.Technologies) *[]string { return &t.TagManagers },
	"hosting":         func(t *model.Technologies) *[]string { return &t.Hosting },
	"paymentgateways": func(t *model.Technologies) *[]string { return &t.PaymentGateways },
	"chatwidgets":     func(t *model.Technologies) *[]string { return &t.ChatWidgets },
	"abtesting":       func(t *model.Technologies) *[]string { return &t.ABTesting },
	"fonts":           func(t *model.Technologies) *[]string { return &t.Fonts },
	"mapservices":     func(t *model.Technologies) *[]string { return &t.MapServices },
	"videoplayers":    func(t *model.Technologies) *[]string { return &t.VideoPlayers },
	"emailservices":   func(t *model.Technologies) *[]string { return &t.EmailServices },
}

// Apply appends custom matches to tech, skipping labels already present.
func (c *CustomSignatures) Apply(in *Input, tech *model.Technologies) {
	if c == nil || tech == nil {
		return
	}
	for category, table := range c.tables {
		slot := techSlots[category](tech)
		for _, label := range table.Match(in) {
			if !contains(*slot, label) {
				*slot = append(*slot, label)
			}
		}
	}
}
