// Package assessor derives the estimated overview categories: performance,
// carbon footprint, page weight and social previews. Every number it
// produces is an approximation from fixed constants, never a measurement,
// except where a browser render supplies real timings.
package assessor

import (
	"context"
	"net/http"
	"time"

	"github.com/raysh454/sitelens/internal/document"
	"github.com/raysh454/sitelens/internal/model"
)

// Assessor is the contract for producing estimates from an already-fetched
// page. Implementations do NOT perform network I/O.
type Assessor interface {
	Assess(ctx context.Context, in *Input) (*Estimates, error)

	// Close releases any resources held by the assessor.
	Close() error
}

// Input is everything the estimates are computed from.
type Input struct {
	Doc       *document.Document
	Resources document.Resources
	Headers   http.Header

	// SEO feeds the social preview fallbacks. May be nil.
	SEO *model.SEOFacts

	// Elapsed is how long the plain fetch took. Ignored when Page carries
	// browser timings.
	Elapsed time.Duration

	// Page is the rendered page in rendered mode, nil otherwise.
	Page *model.RenderedPage
}

// Estimates groups the categories the assessor fills.
type Estimates struct {
	Performance     *model.Performance
	CarbonFootprint *model.CarbonFootprint
	PageWeight      *model.PageWeight
	SocialPreviews  *model.SocialPreviews
}
