package detect

import (
	"fmt"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
)

// Analyzer runs every signature analyzer over one page. The zero value runs
// the built-in tables only.
type Analyzer struct {
	Fingerprinter Fingerprinter
	Custom        *CustomSignatures
	// Logger receives analyzer panics; nil drops them.
	Logger logging.Logger
}

// Analyze fills every overview category that can be derived from the page
// alone. Probe-backed and estimated categories are left nil, and so is any
// category whose analyzer panics.
func (a *Analyzer) Analyze(in *Input) *model.WebsiteOverview {
	tech := guard(a, "technologies", in, func(in *Input) *model.Technologies {
		found := DetectTechnologies(in)
		a.Custom.Apply(in, found)
		return found
	})
	if a.Fingerprinter != nil && tech != nil {
		fp := guard(a, "fingerprints", in, func(in *Input) map[string][]string {
			return a.Fingerprinter.Fingerprint(in.Headers, []byte(in.Doc.HTML))
		})
		if len(fp) > 0 {
			tech.Fingerprints = fp
		}
	}
	platform := ""
	if tech != nil {
		platform = tech.EcommercePlatform
	}

	mobile := guard(a, "mobile", in, DetectMobile)
	return &model.WebsiteOverview{
		Technologies:  tech,
		Security:      guard(a, "security", in, DetectSecurity),
		SEO:           guard(a, "seo", in, DetectSEO),
		Accessibility: guard(a, "accessibility", in, DetectAccessibility),
		Privacy:       guard(a, "privacy", in, DetectPrivacy),
		Mobile:        mobile,
		PWA:           guard(a, "pwa", in, DetectPWA),
		Ecommerce: guard(a, "ecommerce", in, func(in *Input) *model.Ecommerce {
			return DetectEcommerce(in, platform)
		}),
		Social: guard(a, "social", in, DetectSocialLinks),
		Structure: guard(a, "structure", in, func(in *Input) *model.Structure {
			return DetectStructure(in, mobile)
		}),
		Content:            guard(a, "content", in, DetectContent),
		Contacts:           guard(a, "contacts", in, DetectContacts),
		Forms:              guard(a, "forms", in, DetectForms),
		Media:              guard(a, "media", in, DetectMedia),
		APIs:               guard(a, "apis", in, DetectAPIFlags),
		ThirdPartyServices: guard(a, "thirdPartyServices", in, DetectThirdPartyServices),
		ContactInfo:        guard(a, "contactInfo", in, ExtractContactInfo),
		SocialMedia:        guard(a, "socialMedia", in, DetectSocialMedia),
		StructuredData:     guard(a, "structuredData", in, AnalyzeStructuredData),
		I18n:               guard(a, "i18n", in, DetectI18n),
		ExternalLinks:      guard(a, "externalLinks", in, AnalyzeExternalLinks),
		InternalLinks:      guard(a, "internalLinks", in, AnalyzeInternalLinks),
		EnhancedTechStack:  guard(a, "enhancedTechStack", in, DetectEnhancedTechStack),
	}
}

// guard runs one analyzer. A panic yields the zero value so only that
// category is lost.
func guard[T any](a *Analyzer, name string, in *Input, fn func(*Input) T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			if a.Logger != nil {
				a.Logger.Warn("analyzer panicked",
					logging.Field{Key: "analyzer", Value: name},
					logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			}
		}
	}()
	return fn(in)
}
