package demoserver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/raysh454/a11yscan/internal/logging"
)

// SessionCookie is set by a successful login and required by private pages.
const SessionCookie = "demo_session"

// transparent 1x1 PNG served for every image under /static/.
var placeholderPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

// DemoServer serves a small shop whose pages carry known accessibility
// defects. Every page can be flipped between its broken and fixed version at
// runtime, so a scan before and after shows the score moving.
type DemoServer struct {
	cfg      Config
	logger   logging.Logger
	pages    map[string]PageDefinition
	versions map[string]int
	mu       sync.RWMutex
}

// NewDemoServer puts every page on cfg.InitialVersion.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if cfg.InitialVersion == 0 {
		cfg.InitialVersion = VersionBroken
	}
	pageMap := make(map[string]PageDefinition)
	versions := make(map[string]int)

	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
		versions[p.Path] = cfg.InitialVersion
	}

	return &DemoServer{
		cfg:      cfg,
		logger:   logger.With(logging.Field{Key: "component", Value: "demoserver"}),
		pages:    pageMap,
		versions: versions,
	}
}

// Handler returns the site's routes. Exposed for httptest.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()

	for path := range s.pages {
		pattern := "GET " + path
		if path == "/" {
			pattern = "GET /{$}"
		}
		mux.HandleFunc(pattern, s.pageHandler(path))
	}
	mux.HandleFunc("POST /login", s.loginHandler)
	mux.HandleFunc("POST /logout", s.logoutHandler)
	mux.HandleFunc("POST /contact", s.contactHandler)

	// version switching
	mux.HandleFunc("GET /demo/control", s.controlPanelHandler)
	mux.HandleFunc("POST /demo/set-version", s.setVersionHandler)
	mux.HandleFunc("GET /demo/get-versions", s.getVersionsHandler)
	mux.HandleFunc("POST /demo/fix-all", s.setAllHandler(VersionFixed))
	mux.HandleFunc("POST /demo/break-all", s.setAllHandler(VersionBroken))

	mux.HandleFunc("GET /static/", s.staticHandler)

	return mux
}

// Start listens on cfg.Port until the listener fails.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("demo server starting",
		logging.Field{Key: "url", Value: "http://localhost" + addr},
		logging.Field{Key: "control_panel", Value: "http://localhost" + addr + "/demo/control"})
	return http.ListenAndServe(addr, s.Handler())
}

// SetVersion switches one page. Unknown paths are ignored.
func (s *DemoServer) SetVersion(path string, version int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[path]; !ok {
		return false
	}
	s.versions[path] = version
	return true
}

// SetAll switches every page.
func (s *DemoServer) SetAll(version int) {
	s.mu.Lock()
	for path := range s.versions {
		s.versions[path] = version
	}
	s.mu.Unlock()
}

func (s *DemoServer) loggedIn(r *http.Request) bool {
	c, err := r.Cookie(SessionCookie)
	return err == nil && c.Value == s.cfg.Username
}

// pageHandler serves the current version of path. Private pages need a session.
func (s *DemoServer) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		pageDef, ok := s.pages[path]
		version := s.versions[path]
		s.mu.RUnlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		if pageDef.Private && !s.loggedIn(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		pageVersion, ok := pageDef.Versions[version]
		if !ok {
			pageVersion = pageDef.Versions[VersionBroken]
		}

		for k, v := range pageVersion.Headers {
			w.Header().Set(k, v)
		}
		contentType := pageVersion.ContentType
		if contentType == "" {
			contentType = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(pageVersion.HTML))
	}
}

func (s *DemoServer) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("username") != s.cfg.Username || r.FormValue("password") != s.cfg.Password {
		s.logger.Debug("login rejected", logging.Field{Key: "username", Value: r.FormValue("username")})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.cfg.Username,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

func (s *DemoServer) logoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *DemoServer) contactHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(layout("en", "Thanks", "<h1>Thanks, "+template.HTMLEscapeString(r.FormValue("name"))+"</h1>")))
}

// staticHandler serves a placeholder image for any static request.
func (s *DemoServer) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(placeholderPNG)
}

func versionLabel(v int) string {
	switch v {
	case VersionBroken:
		return "broken"
	case VersionFixed:
		return "fixed"
	}
	return "v" + strconv.Itoa(v)
}

var controlPanel = template.Must(template.New("control").
	Funcs(template.FuncMap{"label": versionLabel}).
	Parse(controlPanelHTML))

// controlPanelHandler renders the version switches.
func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := struct {
		Pages    map[string]PageDefinition
		Versions map[string]int
		Port     int
	}{
		Pages:    s.pages,
		Versions: s.versions,
		Port:     s.cfg.Port,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = controlPanel.Execute(w, data)
}

// setVersionHandler flips one page, given as form values path and version.
func (s *DemoServer) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	path := r.FormValue("path")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil || (version != VersionBroken && version != VersionFixed) {
		http.Error(w, "version must be 1 (broken) or 2 (fixed)", http.StatusBadRequest)
		return
	}
	if !s.SetVersion(path, version) {
		http.Error(w, "Unknown page", http.StatusNotFound)
		return
	}
	s.logger.Info("page version changed",
		logging.Field{Key: "path", Value: path},
		logging.Field{Key: "version", Value: versionLabel(version)})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"path":    path,
		"version": versionLabel(version),
	})
}

// PageInfo describes one page in /demo/get-versions.
type PageInfo struct {
	Path              string   `json:"path"`
	Description       string   `json:"description"`
	Defects           []string `json:"defects"`
	CurrentVersion    int      `json:"current_version"`
	AvailableVersions []int    `json:"available_versions"`
}

// getVersionsHandler lists every page with its current version, sorted by path.
func (s *DemoServer) getVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	pages := make([]PageInfo, 0, len(s.pages))
	for path, pageDef := range s.pages {
		var versions []int
		for v := range pageDef.Versions {
			versions = append(versions, v)
		}
		sort.Ints(versions)
		pages = append(pages, PageInfo{
			Path:              path,
			Description:       pageDef.Description,
			Defects:           pageDef.Defects,
			CurrentVersion:    s.versions[path],
			AvailableVersions: versions,
		})
	}
	s.mu.RUnlock()
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pages)
}

// setAllHandler moves every page to version.
func (s *DemoServer) setAllHandler(version int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.SetAll(version)
		s.logger.Info("all pages switched", logging.Field{Key: "version", Value: versionLabel(version)})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "All pages " + versionLabel(version),
		})
	}
}

const controlPanelHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Demo site control</title>
<style>
  body { font: 15px/1.5 system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #1a1a1a; }
  table { border-collapse: collapse; width: 100%; }
  th, td { text-align: left; padding: .5rem .75rem; border-bottom: 1px solid #ddd; vertical-align: top; }
  code { background: #f2f2f2; padding: 0 .25rem; border-radius: 3px; }
  .state-broken { color: #a4000f; font-weight: 600; }
  .state-fixed { color: #0b6b2a; font-weight: 600; }
  button { font: inherit; padding: .25rem .75rem; margin-right: .25rem; cursor: pointer; }
  button[aria-pressed="true"] { background: #1a1a1a; color: #fff; }
</style>
</head>
<body>
<h1>Demo site control</h1>
<p>Flip pages between the broken and fixed versions, then run the scan again and
compare the runs. Sign in with the demo credentials to reach <a href="/account">/account</a>.</p>
<p>
  <button type="button" onclick="post('/demo/fix-all')">Fix all pages</button>
  <button type="button" onclick="post('/demo/break-all')">Break all pages</button>
</p>
<table>
  <thead><tr><th scope="col">Page</th><th scope="col">Seeded defects</th><th scope="col">Version</th></tr></thead>
  <tbody>
  {{range $path, $page := .Pages}}
  {{$cur := index $.Versions $path}}
  <tr>
    <td><a href="{{$path}}">{{$path}}</a><br><small>{{$page.Description}}</small></td>
    <td>{{range $page.Defects}}<code>{{.}}</code> {{end}}</td>
    <td>
      <span class="state-{{label $cur}}">{{label $cur}}</span><br>
      {{range $v, $_ := $page.Versions}}
      <button type="button" aria-pressed="{{if eq $cur $v}}true{{else}}false{{end}}"
              onclick="setVersion('{{$path}}', {{$v}})">{{label $v}}</button>
      {{end}}
    </td>
  </tr>
  {{end}}
  </tbody>
</table>
<script>
  function post(url, body) {
    fetch(url, {
      method: 'POST',
      headers: {'Content-Type': 'application/x-www-form-urlencoded'},
      body: body || ''
    }).then(function () { location.reload(); });
  }
  function setVersion(path, version) {
    post('/demo/set-version', 'path=' + encodeURIComponent(path) + '&version=' + version);
  }
</script>
</body>
</html>`
