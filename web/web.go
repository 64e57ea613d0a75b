// Package web serves wayfarer's fixed catalogue of HTML pages and their
// static assets from files embedded in the binary.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed dist
var content embed.FS

// Pages maps each served path to its embedded HTML file.
var Pages = map[string]string{
	"/":             "index.html",
	"/login":        "login.html",
	"/signup":       "signup.html",
	"/profile":      "profile.html",
	"/destinations": "destinations.html",
	"/about":        "about.html",
	"/faq":          "faq.html",
	"/contact":      "contact.html",
}

const staticPrefix = "/static/"

// Handler returns an http.Handler for the page catalogue and /static/*.
// Any other path is a 404; there is no index fallback.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(content, "dist")
	if err != nil {
		return nil, fmt.Errorf("loading embedded web assets: %w", err)
	}

	pages := make(map[string][]byte, len(Pages))
	for route, file := range Pages {
		b, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading embedded page %s: %w", file, err)
		}
		pages[route] = b
	}

	static := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if body, ok := pages[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Write(body)
			return
		}

		if clean := path.Clean(r.URL.Path); clean == r.URL.Path && strings.HasPrefix(clean, staticPrefix) {
			if info, err := fs.Stat(fsys, strings.TrimPrefix(clean, "/")); err == nil && !info.IsDir() {
				static.ServeHTTP(w, r)
				return
			}
		}

		http.NotFound(w, r)
	}), nil
}
