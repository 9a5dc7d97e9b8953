// Package tracker keeps the history of completed scans and compares two scans
// of the same site.
package tracker

import (
	"context"
	"errors"

	"github.com/raysh454/sitelens/internal/model"
)

var (
	// ErrScanNotFound is returned when no scan has the requested ID.
	ErrScanNotFound = errors.New("scan not found")
	// ErrSiteMismatch is returned when diffing scans of two different sites.
	ErrSiteMismatch = errors.New("scans belong to different sites")
)

// Tracker is the minimal cross-package contract for scan history.
// Implementations should be safe for concurrent use.
type Tracker interface {
	// Save stores a completed scan and returns its ID. A result without an
	// ID is assigned one.
	Save(ctx context.Context, result *model.ScanResult) (string, error)

	// Get returns the full stored result for id.
	Get(ctx context.Context, id string) (*model.ScanResult, error)

	// List returns summaries, newest first.
	List(ctx context.Context, opts ListOptions) ([]ScanSummary, error)

	// Diff compares the overviews of two scans of the same site.
	Diff(ctx context.Context, baseID, headID string) (*ScanDiff, error)

	// Close releases resources used by the tracker.
	Close() error
}
