// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public blog and
// the author dashboard. Pages are parsed once at startup from the embedded
// templates directory and executed into a buffer so template errors never
// leave a half-written response.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/markdown"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title      string            // Page title for <title> tag
	Session    *session.Data     // Current user session (nil if anonymous)
	CSRFToken  string            // CSRF token for forms
	Categories []models.Category // Navigation categories
	Flashes    []session.Flash   // One-time notices popped from the session
	Data       map[string]any    // Page-specific data
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	now       func() time.Time
}

// standaloneTemplates render without the base layout.
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_verify": true,
}

// New creates a Renderer by parsing every page template paired with the
// base layout. mediaURL turns a stored image key into a public URL; it may
// be nil when object storage is not configured.
func New(devMode bool, mediaURL func(string) string) (*Renderer, error) {
	if mediaURL == nil {
		mediaURL = func(string) string { return "" }
	}

	rn := &Renderer{
		templates: make(map[string]*template.Template),
		now:       time.Now,
	}
	rn.funcMap = template.FuncMap{
		"isDev":    func() bool { return devMode },
		"mediaURL": mediaURL,
		// markdown renders a post body. Conversion failures fall back to
		// the escaped source.
		"markdown": func(src string) template.HTML {
			out, err := markdown.ToHTML(src)
			if err != nil {
				slog.Warn("markdown render failed", "error", err)
				return template.HTML(template.HTMLEscapeString(src))
			}
			return template.HTML(out)
		},
		"timeSince": func(p models.Post) string {
			return p.TimeSincePublished(rn.now())
		},
		"date": formatDate,
		"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
			return ptr != nil && *ptr == val
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return strings.TrimSpace(string(r[:n])) + "..."
		},
	}

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || name == "partials.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		if standaloneTemplates[tmplName] {
			tmpl, err = template.New(name).Funcs(rn.funcMap).ParseFS(
				templateFS, "templates/partials.html", "templates/"+name,
			)
		} else {
			tmpl, err = template.New("base.html").Funcs(rn.funcMap).ParseFS(
				templateFS, "templates/base.html", "templates/partials.html", "templates/"+name,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		rn.templates[tmplName] = tmpl
	}

	return rn, nil
}

// Page renders a full page with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a full page with the given status code. Session and
// CSRF token are taken from the request context when not set by the caller.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = &PageData{}
	}
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err,
			"request_id", middleware.RequestIDFromCtx(r.Context()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formatDate renders a time.Time or *time.Time as "Jan 2, 2006". Nil
// pointers and zero times render empty.
func formatDate(v any) string {
	var t time.Time
	switch tv := v.(type) {
	case time.Time:
		t = tv
	case *time.Time:
		if tv == nil {
			return ""
		}
		t = *tv
	default:
		return ""
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// Has reports whether a page template with the given name was parsed.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}
