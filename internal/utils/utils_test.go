package utils_test

import (
	"reflect"
	"testing"

	"github.com/raysh454/sitelens/internal/utils"
)

// ─── URLTools ──────────────────────────────────────────────────────────

func TestNewURLTools_NormalizesSchemeHostAndFragment(t *testing.T) {
	t.Parallel()
	u, err := utils.NewURLTools("HTTPS://EXAMPLE.COM:443/Page#top")
	if err != nil {
		t.Fatalf("NewURLTools: %v", err)
	}
	if u.URL.Scheme != "https" {
		t.Errorf("expected lowercased scheme, got %q", u.URL.Scheme)
	}
	if u.URL.Host != "example.com" {
		t.Errorf("expected default port stripped, got host %q", u.URL.Host)
	}
	if u.URL.Fragment != "" {
		t.Errorf("expected empty fragment, got %q", u.URL.Fragment)
	}
}

func TestURLTools_Resolve(t *testing.T) {
	t.Parallel()
	base, _ := utils.NewURLTools("https://example.com/app/")

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"users", "https://example.com/app/users", false},
		{"../login", "https://example.com/login", false},
		{"/static/a.js#x", "https://example.com/static/a.js", false},
		{"//cdn.example.net/lib.js", "https://cdn.example.net/lib.js", false},
		{"https://foo.com/x", "https://foo.com/x", false},
		{"mailto:a@b.com", "", true},
		{"javascript:void(0)", "", true},
		{"http://[::1", "", true},
		{"   ", "", true},
	}
	for _, tt := range tests {
		got, err := base.Resolve(tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Resolve(%q) expected error, got %q", tt.ref, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", tt.ref, got, err, tt.want)
		}
	}
}

// ─── Domain helpers ────────────────────────────────────────────────────

func TestRegistrableDomain(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"www.example.com":      "example.com",
		"shop.example.co.uk":   "example.co.uk",
		"EXAMPLE.com.":         "example.com",
		"example.com:8443":     "example.com",
		"127.0.0.1":            "127.0.0.1",
		"localhost":            "localhost",
	}
	for in, want := range tests {
		if got := utils.RegistrableDomain(in); got != want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOriginOf(t *testing.T) {
	t.Parallel()
	if got := utils.OriginOf("https://API.example.com/v1/x"); got != "https://api.example.com" {
		t.Errorf("got %q", got)
	}
	if got := utils.OriginOf("/relative"); got != "" {
		t.Errorf("relative should have no origin, got %q", got)
	}
}

func TestDedupe_KeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()
	got := utils.Dedupe([]string{"b", "a", "b", "c", "a"})
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("got %v", got)
	}
}

// ─── Canonicalize ──────────────────────────────────────────────────────

func TestCanonicalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		opts utils.CanonicalizeOptions
		want string
	}{
		{"HTTP://Example.COM:80/foo/../bar/?b=2&a=1#frag", utils.CanonicalizeOptions{}, "http://example.com/bar?a=1&b=2"},
		{"https://example.com:443/index.html#section", utils.CanonicalizeOptions{}, "https://example.com/index.html"},
		{"example.com/page?utm_source=x&utm_medium=y&z=1", utils.CanonicalizeOptions{DefaultScheme: "https", DropTrackingParams: true}, "https://example.com/page?z=1"},
		{"https://例え.テスト/a", utils.CanonicalizeOptions{}, "https://xn--r8jz45g.xn--zckzah/a"},
		{"https://example.com/foo/", utils.CanonicalizeOptions{StripTrailingSlash: true}, "https://example.com/foo"},
		{"https://example.com?z=1&a=2", utils.CanonicalizeOptions{}, "https://example.com/?a=2&z=1"},
		{"https://example.com:8443/page", utils.CanonicalizeOptions{}, "https://example.com:8443/page"},
		{"https://user:pw@example.com/", utils.CanonicalizeOptions{}, "https://example.com/"},
	}

	for _, tt := range tests {
		got, err := utils.Canonicalize(tt.in, tt.opts)
		if err != nil {
			t.Fatalf("Canonicalize(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	t.Parallel()
	if _, err := utils.Canonicalize("", utils.CanonicalizeOptions{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := utils.Canonicalize("/just/a/path", utils.CanonicalizeOptions{}); err == nil {
		t.Error("expected error for missing host")
	}
}
