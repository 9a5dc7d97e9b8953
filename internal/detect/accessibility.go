package detect

import (
	"strings"

	"github.com/raysh454/sitelens/internal/model"
)

// DetectAccessibility runs presence checks and derives a simplified WCAG
// ladder: A needs alt text and a lang attribute, AA adds one label per form
// control, AAA adds at least three landmark roles. It approximates and does
// not audit.
func DetectAccessibility(in *Input) *model.Accessibility {
	doc := in.Doc
	_, hasLang := doc.Attr("html", "lang")

	a := &model.Accessibility{
		HasAriaLabels:     doc.Count("[aria-label]") > 0,
		HasAltText:        doc.Count("img[alt]") > 0,
		ColorContrast:     "Unknown",
		KeyboardNavigable: doc.Count("[tabindex]") > 0,
		FormLabels:        doc.Count("input, select, textarea") == doc.Count("label"),
		HeadingStructure:  doc.Count("h1") == 1,
		LandmarkRoles:     doc.Count(`[role="main"], [role="navigation"], [role="banner"]`) >= 3,
		FocusIndicators:   true,
		SkipLinks:         strings.Contains(strings.ToLower(doc.Find(`a[href^="#"]`).First().Text()), "skip"),
		Lang:              hasLang,
		TouchTargets: model.TouchTargets{
			Size:  "Medium",
			Count: doc.Count(`button, a, input[type="button"], input[type="submit"]`),
		},
	}
	a.WCAG.LevelA = a.HasAltText && a.Lang
	a.WCAG.LevelAA = a.WCAG.LevelA && a.FormLabels
	a.WCAG.LevelAAA = a.WCAG.LevelAA && a.LandmarkRoles
	return a
}
