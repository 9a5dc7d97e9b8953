package probe

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/raysh454/sitelens/internal/model"
)

// MaxSecurityHeaderScore is the sum of all header weights.
const MaxSecurityHeaderScore = 80

var hstsMaxAge = regexp.MustCompile(`max-age=(\d+)`)

// AnalyzeSecurityHeaders grades eight response headers. HSTS and CSP are
// worth 15 points, X-Frame-Options, X-Content-Type-Options, Referrer-Policy
// and Permissions-Policy 10, X-XSS-Protection and Expect-CT 5.
func AnalyzeSecurityHeaders(h http.Header) *model.SecurityHeaders {
	if h == nil {
		h = http.Header{}
	}
	set := model.SecurityHeaderSet{
		StrictTransportSecurity: hsts(h.Get("Strict-Transport-Security")),
		ContentSecurityPolicy:   csp(h.Get("Content-Security-Policy")),
		XFrameOptions:           present(h.Get("X-Frame-Options")),
		XContentTypeOptions:     present(h.Get("X-Content-Type-Options")),
		ReferrerPolicy:          present(h.Get("Referrer-Policy")),
		PermissionsPolicy:       present(firstNonEmpty(h.Get("Permissions-Policy"), h.Get("Feature-Policy"))),
		XXSSProtection:          present(h.Get("X-XSS-Protection")),
		ExpectCT:                present(h.Get("Expect-CT")),
	}

	score := 0
	for _, w := range []struct {
		on     bool
		points int
	}{
		{set.StrictTransportSecurity.Present, 15},
		{set.ContentSecurityPolicy.Present, 15},
		{set.XFrameOptions.Present, 10},
		{set.XContentTypeOptions.Present, 10},
		{set.ReferrerPolicy.Present, 10},
		{set.PermissionsPolicy.Present, 10},
		{set.XXSSProtection.Present, 5},
		{set.ExpectCT.Present, 5},
	} {
		if w.on {
			score += w.points
		}
	}

	out := &model.SecurityHeaders{
		Score:           score,
		MaxScore:        MaxSecurityHeaderScore,
		Grade:           SecurityGrade(score),
		Headers:         set,
		MissingHeaders:  make([]string, 0),
		Warnings:        make([]string, 0),
		Recommendations: make([]string, 0),
	}

	if !set.StrictTransportSecurity.Present {
		out.MissingHeaders = append(out.MissingHeaders, "Strict-Transport-Security")
		out.Recommendations = append(out.Recommendations, "Add HSTS header to enforce HTTPS connections")
	} else if !set.StrictTransportSecurity.Preload {
		out.Recommendations = append(out.Recommendations, `Consider adding "preload" directive to HSTS`)
	}
	if !set.ContentSecurityPolicy.Present {
		out.MissingHeaders = append(out.MissingHeaders, "Content-Security-Policy")
		out.Recommendations = append(out.Recommendations, "Implement CSP to prevent XSS and data injection attacks")
	}
	if !set.XFrameOptions.Present {
		out.MissingHeaders = append(out.MissingHeaders, "X-Frame-Options")
		out.Warnings = append(out.Warnings, "Site may be vulnerable to clickjacking attacks")
	}
	if !set.XContentTypeOptions.Present {
		out.MissingHeaders = append(out.MissingHeaders, "X-Content-Type-Options")
		out.Recommendations = append(out.Recommendations, `Set X-Content-Type-Options to "nosniff"`)
	}
	if !set.ReferrerPolicy.Present {
		out.MissingHeaders = append(out.MissingHeaders, "Referrer-Policy")
		out.Recommendations = append(out.Recommendations, "Define a referrer policy to control referrer information")
	}
	if !set.PermissionsPolicy.Present {
		out.MissingHeaders = append(out.MissingHeaders, "Permissions-Policy")
		out.Recommendations = append(out.Recommendations, "Use Permissions-Policy to control browser features")
	}
	return out
}

// SecurityGrade maps a score to a letter. Thresholds are inclusive.
func SecurityGrade(score int) string {
	switch {
	case score >= 75:
		return "A+"
	case score >= 65:
		return "A"
	case score >= 55:
		return "B"
	case score >= 45:
		return "C"
	case score >= 30:
		return "D"
	case score >= 15:
		return "E"
	}
	return "F"
}

func hsts(v string) model.HSTSHeader {
	if v == "" {
		return model.HSTSHeader{}
	}
	out := model.HSTSHeader{Present: true, Value: v}
	if m := hstsMaxAge.FindStringSubmatch(v); m != nil {
		out.MaxAge, _ = strconv.Atoi(m[1])
	}
	lower := strings.ToLower(v)
	out.IncludeSubDomains = strings.Contains(lower, "includesubdomains")
	out.Preload = strings.Contains(lower, "preload")
	return out
}

func csp(v string) model.CSPHeader {
	out := model.CSPHeader{Directives: make([]string, 0)}
	if v == "" {
		return out
	}
	out.Present = true
	out.Value = v
	for _, d := range strings.Split(v, ";") {
		if f := strings.Fields(d); len(f) > 0 {
			out.Directives = append(out.Directives, f[0])
		}
	}
	return out
}

func present(v string) model.HeaderValue {
	return model.HeaderValue{Present: v != "", Value: v}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
