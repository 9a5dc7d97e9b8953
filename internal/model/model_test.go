package model_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/sitelens/internal/model"
)

func TestScanRequest_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in string
		ok bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1", true},
		{"  https://example.com  ", true},
		{"", false},
		{"example.com", false},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"https://", false},
		{"http://[::1", false},
	}
	for _, tt := range tests {
		u, err := model.ScanRequest{URL: tt.in}.Validate()
		if tt.ok {
			if err != nil || u == nil {
				t.Errorf("Validate(%q) unexpected error: %v", tt.in, err)
			}
			continue
		}
		if !errors.Is(err, model.ErrInvalidURL) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidURL", tt.in, err)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()
	if got := model.TruncateRunes("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := model.TruncateRunes("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := model.TruncateRunes("abc", 0); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestWebsiteOverview_MissingVersusEmpty(t *testing.T) {
	t.Parallel()
	ov := model.WebsiteOverview{
		RobotsTxt: &model.RobotsTxt{Exists: false, Rules: []model.RobotsRule{}, Sitemaps: []string{}, Errors: []string{"HTTP 404"}},
	}
	b, err := json.Marshal(ov)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "whoisData") {
		t.Errorf("nil whoisData must be omitted: %s", s)
	}
	if !strings.Contains(s, `"robotsTxt":{"exists":false`) {
		t.Errorf("computed robotsTxt must be present: %s", s)
	}
}
