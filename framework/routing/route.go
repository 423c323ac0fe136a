package routing

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	placeholder   = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(?::([A-Za-z]+))?\}`)
	repeatedSlash = regexp.MustCompile(`/{2,}`)
)

// Placeholder sub-patterns by type suffix.
var placeholderTypes = map[string]string{
	"":  `[^/]+?`,
	"i": `\d+`,
	"f": `\d+(?:\.\d+)?`,
}

// Param is one argument captured from a path.
type Param struct {
	Name  string
	Value string
}

// Route binds a URL template and an optional HTTP method to a handler.
//
// Templates use typed placeholders:
//
//	/posts/{slug}         any segment
//	/posts/{id:i}         digits only
//	/prices/{amount:f}    integer or decimal
//
// A Route is immutable once built; its pattern is compiled on first use.
type Route struct {
	name       string
	template   string
	method     string
	handler    any
	middleware []Middleware

	once sync.Once
	re   *regexp.Regexp
	args []string
	err  error
}

// NewRoute builds a route. An empty method matches any method. handler is a
// HandlerFunc, any func taking the captured arguments, or a
// "Class@Method" string.
func NewRoute(name, template, method string, handler any) *Route {
	return &Route{
		name:     name,
		template: template,
		method:   strings.ToUpper(method),
		handler:  handler,
	}
}

func (r *Route) Name() string     { return r.name }
func (r *Route) Template() string { return r.template }
func (r *Route) Method() string   { return r.method }
func (r *Route) Handler() any     { return r.handler }

// Allows reports whether the route answers method.
func (r *Route) Allows(method string) bool {
	return r.method == "" || strings.EqualFold(r.method, method)
}

// Regex returns the compiled pattern.
func (r *Route) Regex() (*regexp.Regexp, error) {
	r.once.Do(r.compile)
	return r.re, r.err
}

// ArgumentNames returns the placeholder names in template order.
func (r *Route) ArgumentNames() []string {
	r.once.Do(r.compile)
	return r.args
}

func (r *Route) compile() {
	tpl := repeatedSlash.ReplaceAllString(r.template, "/")
	tpl = strings.TrimRight(tpl, "/")

	var b strings.Builder
	b.WriteByte('^')
	seen := make(map[string]bool)
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(tpl, -1) {
		name, kind := tpl[m[2]:m[3]], ""
		if m[4] >= 0 {
			kind = tpl[m[4]:m[5]]
		}
		sub, ok := placeholderTypes[kind]
		if !ok {
			r.err = &TemplateError{Template: r.template, Reason: fmt.Sprintf("unknown placeholder type %q for {%s}", kind, name)}
			return
		}
		if seen[name] {
			r.err = &TemplateError{Template: r.template, Reason: fmt.Sprintf("duplicate placeholder {%s}", name)}
			return
		}
		seen[name] = true
		r.args = append(r.args, name)

		b.WriteString(regexp.QuoteMeta(tpl[last:m[0]]))
		b.WriteString("(?P<" + name + ">" + sub + ")")
		last = m[1]
	}
	b.WriteString(regexp.QuoteMeta(tpl[last:]))
	b.WriteString(`/*$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		r.err = &TemplateError{Template: r.template, Reason: err.Error()}
		return
	}
	r.re = re
}

// Match tests path against the route pattern and returns the captured
// arguments in template order.
func (r *Route) Match(path string) ([]Param, bool) {
	re, err := r.Regex()
	if err != nil {
		return nil, false
	}
	m := re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make([]Param, len(r.args))
	for i, name := range r.args {
		params[i] = Param{Name: name, Value: m[re.SubexpIndex(name)]}
	}
	return params, true
}

// URL fills the template placeholders with params and returns the result in
// lower case. Placeholder types are not checked; missing params leave the
// placeholder in place.
//
//	r := routing.NewRoute("posts.show", "/posts/{id:i}", "GET", nil)
//	r.URL(map[string]string{"id": "42"}) // "/posts/42"
func (r *Route) URL(params map[string]string) string {
	url := placeholder.ReplaceAllStringFunc(r.template, func(ph string) string {
		name := placeholder.FindStringSubmatch(ph)[1]
		if v, ok := params[name]; ok {
			return v
		}
		return ph
	})
	return strings.ToLower(url)
}

func (r *Route) String() string {
	method := r.method
	if method == "" {
		method = "ANY"
	}
	return method + " " + r.template
}
