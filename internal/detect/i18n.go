package detect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
	"github.com/raysh454/sitelens/internal/model"
)

const (
	langSampleRunes = 1000
	langMinRunes    = 10
)

// GuessLanguage returns the ISO 639-3 code of the dominant language in text,
// or "" when the sample is too short or unrecognized.
func GuessLanguage(text string) string {
	sample := []rune(strings.Join(strings.Fields(text), " "))
	if len(sample) < langMinRunes {
		return ""
	}
	if len(sample) > langSampleRunes {
		sample = sample[:langSampleRunes]
	}
	info := whatlanggo.Detect(string(sample))
	if info.Lang < 0 {
		return ""
	}
	code := info.Lang.Iso6393()
	if code == "" || code == "und" {
		return ""
	}
	return code
}

// DetectI18n reports declared and guessed languages, hreflang alternates and
// right-to-left support.
func DetectI18n(in *Input) *model.I18n {
	doc := in.Doc
	i := &model.I18n{
		PrimaryLanguage:   doc.Lang(),
		DetectedLanguages: make([]string, 0),
		HreflangTags:      make([]model.HreflangTag, 0),
	}

	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		lang, _ := s.Attr("hreflang")
		href, _ := s.Attr("href")
		if lang == "" || href == "" {
			return
		}
		i.HreflangTags = append(i.HreflangTags, model.HreflangTag{Lang: lang, URL: href})
	})
	i.HasHreflang = len(i.HreflangTags) > 0
	i.HasTranslations = len(i.HreflangTags) > 1

	if i.PrimaryLanguage != "" {
		i.DetectedLanguages = append(i.DetectedLanguages, i.PrimaryLanguage)
	}
	if guess := GuessLanguage(doc.BodyText()); guess != "" && !contains(i.DetectedLanguages, guess) {
		i.DetectedLanguages = append(i.DetectedLanguages, guess)
	}

	i.RTLSupport = doc.Count(`[dir="rtl"]`) > 0
	return i
}
