package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/webclient"
)

const (
	proxyTimeout      = 15 * time.Second
	proxyMaxRedirects = 5
)

// handleProxy serves a framable copy of the target page with its relative
// references pointed back at the origin. Upstream failures render as an
// HTML notice with status 200 so the preview frame shows something useful.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "URL parameter is required")
		return
	}
	target, err := (model.ScanRequest{URL: raw}).Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid URL format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), proxyTimeout)
	defer cancel()

	origin := target.Scheme + "://" + target.Host
	ua := s.app.Config.Scan.UserAgent
	if ua == "" {
		ua = webclient.DefaultUserAgent
	}
	resp, err := s.app.Components.WebClient.Do(ctx, &webclient.Request{
		Method:       http.MethodGet,
		URL:          target.String(),
		Headers:      webclient.BrowserHeaders(ua, origin),
		MaxRedirects: proxyMaxRedirects,
	})
	if err != nil {
		s.logger.Warn("proxy fetch failed",
			logging.Field{Key: "url", Value: target.String()},
			logging.Field{Key: "error", Value: err.Error()})
		writePreviewPage(w, unreachablePage, previewNotice{URL: target.String()})
		return
	}
	if resp.StatusCode >= 400 {
		writePreviewPage(w, upstreamErrorPage, previewNotice{
			URL:     target.String(),
			Status:  resp.StatusCode,
			Heading: upstreamHeading(resp.StatusCode),
		})
		return
	}

	base := target
	if resp.FinalURL != "" {
		if u, err := url.Parse(resp.FinalURL); err == nil {
			base = u
		}
	}
	out, err := rewritePreview(resp.Body, base)
	if err != nil {
		s.logger.Warn("proxy rewrite failed",
			logging.Field{Key: "url", Value: target.String()},
			logging.Field{Key: "error", Value: err.Error()})
		writePreviewPage(w, unreachablePage, previewNotice{URL: target.String()})
		return
	}

	setPreviewHeaders(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// urlRefPattern matches url(...) references in inline CSS.
var urlRefPattern = regexp.MustCompile(`url\(\s*(['"]?)([^'")]+)(['"]?)\s*\)`)

// rewritePreview makes every relative link, script, stylesheet, image and
// CSS url() absolute against base and injects a <base> element.
func rewritePreview(body []byte, base *url.URL) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	attrs := []struct{ sel, attr string }{
		{"link[href]", "href"},
		{"script[src]", "src"},
		{"img[src]", "src"},
		{"source[src]", "src"},
		{"a[href]", "href"},
		{"form[action]", "action"},
	}
	for _, a := range attrs {
		doc.Find(a.sel).Each(func(_ int, sel *goquery.Selection) {
			v, _ := sel.Attr(a.attr)
			if abs, ok := absolutize(v, base); ok {
				sel.SetAttr(a.attr, abs)
			}
		})
	}

	// <style> is raw text; write the node data directly so the CSS is not
	// HTML-escaped.
	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		for _, n := range sel.Nodes {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					c.Data = rewriteCSS(c.Data, base)
				}
			}
		}
	})
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		v, _ := sel.Attr("style")
		sel.SetAttr("style", rewriteCSS(v, base))
	})

	doc.Find("base").Remove()
	baseHref := base.Scheme + "://" + base.Host + "/"
	doc.Find("head").First().PrependHtml(`<base href="` + template.HTMLEscapeString(baseHref) + `">`)

	out, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func rewriteCSS(css string, base *url.URL) string {
	return urlRefPattern.ReplaceAllStringFunc(css, func(m string) string {
		parts := urlRefPattern.FindStringSubmatch(m)
		abs, ok := absolutize(parts[2], base)
		if !ok {
			return m
		}
		return "url(" + parts[1] + abs + parts[3] + ")"
	})
}

// absolutize resolves ref against base. Fragments, data URIs and non-web
// schemes are left alone.
func absolutize(ref string, base *url.URL) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}
	lower := strings.ToLower(ref)
	for _, p := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, p) {
			return "", false
		}
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return "", false
	}
	return base.ResolveReference(u).String(), true
}

func setPreviewHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}

func upstreamHeading(status int) string {
	switch status {
	case http.StatusForbidden:
		return "Access Denied"
	case http.StatusNotFound:
		return "Not Found"
	}
	return "Error Loading Page"
}

type previewNotice struct {
	URL     string
	Status  int
	Heading string
}

var upstreamErrorPage = template.Must(template.New("upstream").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Error {{.Status}}</title></head>
<body style="font-family: system-ui, sans-serif; padding: 2rem; text-align: center; color: #374151;">
<h1>{{.Heading}}</h1>
<p>The website responded with status {{.Status}}.</p>
<p><a href="{{.URL}}" target="_blank" rel="noopener noreferrer">Open {{.URL}} in a new tab</a></p>
</body>
</html>`))

var unreachablePage = template.Must(template.New("unreachable").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Unable to Load Website</title></head>
<body style="font-family: system-ui, sans-serif; padding: 2rem; text-align: center; color: #374151;">
<h1>Unable to Load Website</h1>
<p>The preview could not be loaded. The site may be down or blocking embedded views.</p>
<p><a href="{{.URL}}" target="_blank" rel="noopener noreferrer">Open {{.URL}} in a new tab</a></p>
</body>
</html>`))

func writePreviewPage(w http.ResponseWriter, tmpl *template.Template, n previewNotice) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, n); err != nil {
		http.Error(w, fmt.Sprintf("rendering preview: %v", err), http.StatusInternalServerError)
		return
	}
	setPreviewHeaders(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
