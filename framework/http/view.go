package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// View renders html/template files from a directory. Handlers get it from
// the request container and return its output as a Response.
type View struct {
	dir   string
	ext   string
	cache bool

	mu       sync.RWMutex
	funcs    template.FuncMap
	compiled map[string]*template.Template
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithFuncs adds template functions.
func WithFuncs(fm template.FuncMap) ViewOption {
	return func(v *View) {
		for k, f := range fm {
			v.funcs[k] = f
		}
	}
}

// WithTemplateCache keeps parsed templates between renders.
func WithTemplateCache(on bool) ViewOption {
	return func(v *View) { v.cache = on }
}

// NewView creates a View. dir is the templates directory (e.g. "./views"),
// ext the file extension (e.g. ".html").
func NewView(dir, ext string, opts ...ViewOption) *View {
	v := &View{
		dir:      dir,
		ext:      ext,
		funcs:    template.FuncMap{"lower": strings.ToLower, "upper": strings.ToUpper},
		compiled: make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// AddFunc registers a template function for every later parse.
func (v *View) AddFunc(name string, fn any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.funcs[name] = fn
	clear(v.compiled)
}

// Exists reports whether the named template file is present.
func (v *View) Exists(name string) bool {
	_, err := os.Stat(v.path(name))
	return err == nil
}

// Render executes a single template file.
//
//	return view.Render("posts/show", map[string]any{"Post": post})
func (v *View) Render(name string, data any) (*Response, error) {
	tmpl, err := v.load(name)
	if err != nil {
		return nil, err
	}
	return v.execute(tmpl, filepath.Base(v.path(name)), name, data)
}

// RenderLayout executes layout with name parsed into the same set, so the
// layout can {{template "content" .}} blocks defined by the page.
func (v *View) RenderLayout(layout, name string, data any) (*Response, error) {
	tmpl, err := v.load(layout, name)
	if err != nil {
		return nil, err
	}
	return v.execute(tmpl, filepath.Base(v.path(layout)), name, data)
}

func (v *View) execute(tmpl *template.Template, entry, name string, data any) (*Response, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, entry, data); err != nil {
		return nil, fmt.Errorf("view: render %s: %w", name, err)
	}
	return HTML(http.StatusOK, buf.String()), nil
}

func (v *View) load(names ...string) (*template.Template, error) {
	key := strings.Join(names, "|")
	if v.cache {
		v.mu.RLock()
		tmpl, ok := v.compiled[key]
		v.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	files := make([]string, len(names))
	for i, n := range names {
		files[i] = v.path(n)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	tmpl, err := template.New(filepath.Base(files[0])).Funcs(v.funcs).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("view: template %s: %w", key, err)
	}
	if v.cache {
		v.compiled[key] = tmpl
	}
	return tmpl, nil
}

func (v *View) path(name string) string {
	return filepath.Join(v.dir, name+v.ext)
}
