package assessor

import (
	"context"
	"errors"

	"github.com/raysh454/sitelens/internal/logging"
)

// ErrNilConfig is returned when an assessor is constructed without config.
var ErrNilConfig = errors.New("assessor: nil config")

var _ Assessor = (*HeuristicsAssessor)(nil)

// HeuristicsAssessor computes every estimate from fixed constants.
type HeuristicsAssessor struct {
	cfg    Config
	logger logging.Logger
}

// NewHeuristicsAssessor builds an assessor. Zero fields in cfg fall back to
// DefaultConfig.
func NewHeuristicsAssessor(cfg *Config, logger logging.Logger) (*HeuristicsAssessor, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if logger == nil {
		return nil, errors.New("assessor: nil logger; please pass a valid logging.Logger")
	}

	l := logger.With(logging.Field{Key: "component", Value: "heuristics-assessor"})
	inst := &HeuristicsAssessor{
		cfg:    cfg.withDefaults(),
		logger: l,
	}

	l.Debug("heuristics assessor constructed",
		logging.Field{Key: "grid_intensity", Value: inst.cfg.GridIntensity})

	return inst, nil
}

// Assess fills the estimate categories. Carbon uses the HTML byte length
// only, as the resource sizes behind PageWeight are guesses.
func (h *HeuristicsAssessor) Assess(ctx context.Context, in *Input) (*Estimates, error) {
	if in == nil {
		return nil, errors.New("assessor: nil input")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	htmlBytes := 0
	if in.Doc != nil {
		htmlBytes = len(in.Doc.HTML)
	}

	est := &Estimates{
		Performance:     h.cfg.Performance(in),
		CarbonFootprint: h.cfg.CarbonFootprint(htmlBytes),
		PageWeight:      h.cfg.PageWeight(htmlBytes, in.Resources),
		SocialPreviews:  SocialPreviews(in.SEO),
	}

	h.logger.Debug("estimates computed",
		logging.Field{Key: "html_bytes", Value: htmlBytes},
		logging.Field{Key: "carbon_rating", Value: est.CarbonFootprint.Rating},
		logging.Field{Key: "performance_source", Value: string(est.Performance.Source)})
	return est, nil
}

func (h *HeuristicsAssessor) Close() error {
	h.logger.Debug("closing heuristics assessor")
	return nil
}
