package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/harrylevesque/desuite/internal/auth"
	"github.com/harrylevesque/desuite/internal/views"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"landing", "login", "register", "dashboard",
	"spaces", "space", "space_create",
	"task", "task_create", "tasks",
	"profile", "leaderboard", "error",
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006")
	},
	"deadline": func(t *time.Time) string {
		if t == nil {
			return "No deadline"
		}
		return t.Local().Format("Jan 2, 2006")
	},
	"join":   strings.Join,
	"plural": plural,
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

type pages struct {
	byName map[string]*template.Template
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

// page is what every template receives.
type page struct {
	Title string
	User  *views.User
	CSRF  string
	Error string
	Path  string
	Data  any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title, errMsg string, data any) {
	t, ok := s.pages.byName[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	p := page{
		Title: title,
		CSRF:  s.auth.CSRFToken(w, r),
		Error: errMsg,
		Path:  r.URL.Path,
		Data:  data,
	}
	if sc := auth.FromRequest(r); sc != nil {
		p.User = sc.User()
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		s.logger.Errorf("render %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error", http.StatusText(status), "", msg)
}
