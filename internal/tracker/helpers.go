package tracker

import (
	"bytes"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/utils"
	"github.com/sergi/go-diff/diffmatchpatch"
)

//go:embed schema.sql
var schemaFS embed.FS

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}

	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// siteOf returns the canonical host of raw. Bare hosts are accepted; raw
// itself is returned lower-cased when it does not parse.
func siteOf(raw string) string {
	canon, err := utils.Canonicalize(raw, utils.CanonicalizeOptions{DefaultScheme: "http"})
	if err != nil {
		return strings.ToLower(raw)
	}
	u, err := url.Parse(canon)
	if err != nil {
		return strings.ToLower(raw)
	}
	return u.Hostname()
}

func summarize(r *model.ScanResult) ScanSummary {
	s := ScanSummary{
		ID:        r.ID,
		URL:       r.URL,
		Site:      siteOf(r.URL),
		Mode:      string(r.Mode),
		Title:     r.Metadata.Title,
		APICount:  len(r.APIs),
		ScannedAt: r.ScannedAt,
		Duration:  r.Duration,
	}
	if ov := r.Overview; ov != nil {
		if ov.SecurityHeaders != nil {
			s.SecurityGrade = ov.SecurityHeaders.Grade
		}
		if ov.CarbonFootprint != nil {
			s.CarbonRating = ov.CarbonFootprint.Rating
		}
	}
	return s
}

// diffResults compares two results of the same site. The caller checks the
// site.
func diffResults(base, head *model.ScanResult) (*ScanDiff, error) {
	baseFields, err := overviewFields(base.Overview)
	if err != nil {
		return nil, err
	}
	headFields, err := overviewFields(head.Overview)
	if err != nil {
		return nil, err
	}

	d := &ScanDiff{
		BaseID:            base.ID,
		HeadID:            head.ID,
		Site:              siteOf(head.URL),
		ChangedCategories: changedKeys(baseFields, headFields),
		AddedAPIs:         missingFrom(head.APIs, base.APIs),
		RemovedAPIs:       missingFrom(base.APIs, head.APIs),
	}

	baseText, err := indented(base.Overview)
	if err != nil {
		return nil, err
	}
	headText, err := indented(head.Overview)
	if err != nil {
		return nil, err
	}
	d.Chunks = lineDiff(baseText, headText)
	return d, nil
}

func overviewFields(ov *model.WebsiteOverview) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if ov == nil {
		return fields, nil
	}
	raw, err := json.Marshal(ov)
	if err != nil {
		return nil, fmt.Errorf("marshal overview: %w", err)
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("split overview: %w", err)
	}
	return fields, nil
}

func changedKeys(a, b map[string]json.RawMessage) []string {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	out := make([]string, 0)
	for k := range keys {
		if !bytes.Equal(a[k], b[k]) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// missingFrom returns the entries of a not present in b, in a's order.
func missingFrom(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, v := range b {
		in[v] = struct{}{}
	}
	out := make([]string, 0)
	for _, v := range a {
		if _, ok := in[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func indented(ov *model.WebsiteOverview) (string, error) {
	if ov == nil {
		return "", nil
	}
	b, err := json.MarshalIndent(ov, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal overview: %w", err)
	}
	return string(b) + "\n", nil
}

// lineDiff diffs two texts line by line and keeps only the changed runs.
func lineDiff(base, head string) []DiffChunk {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(base, head)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	chunks := make([]DiffChunk, 0)
	for _, d := range diffs {
		var chunkType string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			chunkType = "added"
		case diffmatchpatch.DiffDelete:
			chunkType = "removed"
		default:
			continue
		}
		if strings.TrimSpace(d.Text) != "" {
			chunks = append(chunks, DiffChunk{Type: chunkType, Content: d.Text})
		}
	}
	return chunks
}
