// Package demosite serves a small versioned website for trying scans and
// history diffs locally.
package demosite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/raysh454/sitelens/internal/logging"
)

// DemoSite serves every page at its currently selected version.
type DemoSite struct {
	cfg      Config
	logger   logging.Logger
	pages    map[string]PageDefinition
	versions map[string]int // path -> current version
	mu       sync.RWMutex
}

// New creates a demo site instance.
func New(cfg Config, logger logging.Logger) *DemoSite {
	if cfg.InitialVersion < 1 {
		cfg.InitialVersion = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	pageMap := make(map[string]PageDefinition)
	versions := make(map[string]int)
	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
		versions[p.Path] = cfg.InitialVersion
	}

	return &DemoSite{
		cfg:      cfg,
		logger:   logger,
		pages:    pageMap,
		versions: versions,
	}
}

// Handler returns the site's routes.
func (s *DemoSite) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.pageHandler)

	// Control panel for version switching
	mux.HandleFunc("/demo/control", s.controlPanelHandler)
	mux.HandleFunc("/demo/set-version", s.setVersionHandler)
	mux.HandleFunc("/demo/versions", s.getVersionsHandler)
	mux.HandleFunc("/demo/bump-all", s.bumpAllVersionsHandler)
	mux.HandleFunc("/demo/reset", s.resetVersionsHandler)

	mux.HandleFunc("/static/", s.staticHandler)
	return mux
}

// Start serves until ctx is cancelled.
func (s *DemoSite) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("demo site listening",
			logging.Field{Key: "url", Value: fmt.Sprintf("http://localhost:%d", s.cfg.Port)},
			logging.Field{Key: "control_panel", Value: fmt.Sprintf("http://localhost:%d/demo/control", s.cfg.Port)})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// SetVersion selects the version served for path. It reports false for
// unknown paths.
func (s *DemoSite) SetVersion(path string, version int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[path]; !ok {
		return false
	}
	s.versions[path] = version
	return true
}

// BumpAll moves every page one version forward, capped at its newest.
func (s *DemoSite) BumpAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.versions {
		s.versions[path] = min(s.versions[path]+1, maxVersion(s.pages[path]))
	}
}

// Reset puts every page back on version 1.
func (s *DemoSite) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.versions {
		s.versions[path] = 1
	}
}

// versionFor resolves the current version of def, falling back to the
// closest lower version that exists.
func versionFor(def PageDefinition, version int) (PageVersion, bool) {
	for v := version; v >= 1; v-- {
		if pv, ok := def.Versions[v]; ok {
			return pv, true
		}
	}
	return PageVersion{}, false
}

func maxVersion(def PageDefinition) int {
	maxV := 1
	for v := range def.Versions {
		maxV = max(maxV, v)
	}
	return maxV
}

func (s *DemoSite) pageHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	pageDef, ok := s.pages[r.URL.Path]
	version := s.versions[r.URL.Path]
	s.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	pv, ok := versionFor(pageDef, version)
	if !ok {
		http.NotFound(w, r)
		return
	}

	for k, v := range pv.Headers {
		w.Header().Set(k, v)
	}
	for _, c := range pv.Cookies {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			HttpOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		switch c.SameSite {
		case "Strict":
			cookie.SameSite = http.SameSiteStrictMode
		case "Lax":
			cookie.SameSite = http.SameSiteLaxMode
		case "None":
			cookie.SameSite = http.SameSiteNoneMode
		}
		http.SetCookie(w, cookie)
	}

	contentType := pv.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)

	status := pv.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(pv.Body))
}

// staticHandler serves placeholder assets.
func (s *DemoSite) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(`// Demo static file: ` + r.URL.Path + "\n"))
}

type pageInfo struct {
	Path              string `json:"path"`
	Description       string `json:"description"`
	CurrentVersion    int    `json:"current_version"`
	AvailableVersions []int  `json:"available_versions"`
}

// snapshot lists pages sorted by path.
func (s *DemoSite) snapshot() []pageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]pageInfo, 0, len(s.pages))
	for path, def := range s.pages {
		var versions []int
		for v := range def.Versions {
			versions = append(versions, v)
		}
		sort.Ints(versions)
		pages = append(pages, pageInfo{
			Path:              path,
			Description:       def.Description,
			CurrentVersion:    s.versions[path],
			AvailableVersions: versions,
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages
}

func (s *DemoSite) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = controlPanel.Execute(w, s.snapshot())
}

func (s *DemoSite) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.FormValue("path")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil || version < 1 {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}
	if !s.SetVersion(path, version) {
		http.Error(w, "Unknown page", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{"success": true, "path": path, "version": version})
}

func (s *DemoSite) getVersionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot())
}

func (s *DemoSite) bumpAllVersionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.BumpAll()
	writeJSON(w, map[string]any{"success": true, "message": "All versions bumped"})
}

func (s *DemoSite) resetVersionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Reset()
	writeJSON(w, map[string]any{"success": true, "message": "All versions reset to 1"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var controlPanel = template.Must(template.New("control").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Demo Site Control Panel</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .page-card { background: white; border-radius: 8px; padding: 16px; margin: 12px 0; }
        .active { background: #007bff; color: white; }
    </style>
</head>
<body>
    <h1>Demo Site Control Panel</h1>
    <p>Switch page versions, then scan again and diff the two results.</p>
    <button onclick="post('/demo/bump-all')">Bump all versions</button>
    <button onclick="post('/demo/reset')">Reset all to v1</button>
    {{range .}}
    <div class="page-card">
        <a href="{{.Path}}" target="_blank">{{.Path}}</a> (v{{.CurrentVersion}})
        <div>{{.Description}}</div>
        {{$path := .Path}}{{$cur := .CurrentVersion}}
        {{range .AvailableVersions}}
        <button class="{{if eq . $cur}}active{{end}}" onclick="setVersion('{{$path}}', {{.}})">v{{.}}</button>
        {{end}}
    </div>
    {{end}}
    <script>
        function post(url, body) {
            fetch(url, {method: 'POST', headers: {'Content-Type': 'application/x-www-form-urlencoded'}, body: body})
                .then(() => location.reload());
        }
        function setVersion(path, version) {
            post('/demo/set-version', 'path=' + encodeURIComponent(path) + '&version=' + version);
        }
    </script>
</body>
</html>`))
