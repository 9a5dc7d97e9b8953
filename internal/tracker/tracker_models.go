package tracker

import (
	"time"
)

// ListOptions filters List.
type ListOptions struct {
	// Site restricts results to one host. Empty lists every site.
	Site string
	// Limit caps the number of summaries; <= 0 means 20.
	Limit int
}

// ScanSummary is the row shown in scan history listings.
type ScanSummary struct {
	ID            string        `json:"id"`
	URL           string        `json:"url"`
	Site          string        `json:"site"`
	Mode          string        `json:"mode"`
	Title         string        `json:"title,omitempty"`
	APICount      int           `json:"api_count"`
	SecurityGrade string        `json:"security_grade,omitempty"`
	CarbonRating  string        `json:"carbon_rating,omitempty"`
	ScannedAt     time.Time     `json:"scanned_at"`
	Duration      time.Duration `json:"duration_ns"`
}

// DiffChunk represents a single change chunk between two overviews.
type DiffChunk struct {
	Type    string `json:"type"` // "added" | "removed"
	Content string `json:"content,omitempty"`
}

// ScanDiff is the comparison of two scans of the same site.
type ScanDiff struct {
	BaseID string `json:"base_id"`
	HeadID string `json:"head_id"`
	Site   string `json:"site"`

	// ChangedCategories are the top-level overview fields whose content
	// differs, including fields present in only one scan.
	ChangedCategories []string `json:"changed_categories"`

	AddedAPIs   []string `json:"added_apis"`
	RemovedAPIs []string `json:"removed_apis"`

	// Chunks is a line diff of the indented overview JSON.
	Chunks []DiffChunk `json:"chunks"`
}
