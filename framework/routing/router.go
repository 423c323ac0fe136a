package routing

import (
	"net/http"
	"path"
	"strings"
)

// Router is the route-table builder.
//
//	r := routing.NewRouter()
//	r.Get("/", "HomeController@Index").Name("home")
//	r.Prefix("/api/v1", func(api *routing.Router) {
//	    api.Middleware(Auth)
//	    api.Get("/posts/{id:i}", "PostController@Show").Name("posts.show")
//	})
//	routes, err := r.Collection()
//
// Routes keep their registration order, which is also the match order.
type Router struct {
	prefix     string
	namePrefix string
	middleware []Middleware
	entries    *[]*Entry
}

// Entry is a route being declared.
type Entry struct {
	name       string
	namePrefix string
	template   string
	method     string
	handler    any
	middleware []Middleware
}

// Name sets the route name, prefixed by any enclosing Names group.
func (e *Entry) Name(name string) *Entry {
	e.name = e.namePrefix + name
	return e
}

// Entries are the routes declared by one Match call.
type Entries []*Entry

// Name names every entry. Lookups by name return the last one.
func (es Entries) Name(name string) Entries {
	for _, e := range es {
		e.Name(name)
	}
	return es
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{entries: new([]*Entry)}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h any) *Entry    { return r.add(http.MethodGet, pattern, h) }
func (r *Router) Post(pattern string, h any) *Entry   { return r.add(http.MethodPost, pattern, h) }
func (r *Router) Put(pattern string, h any) *Entry    { return r.add(http.MethodPut, pattern, h) }
func (r *Router) Patch(pattern string, h any) *Entry  { return r.add(http.MethodPatch, pattern, h) }
func (r *Router) Delete(pattern string, h any) *Entry { return r.add(http.MethodDelete, pattern, h) }

// Any registers a route that answers every method.
func (r *Router) Any(pattern string, h any) *Entry { return r.add("", pattern, h) }

// Match registers one route per method.
func (r *Router) Match(methods []string, pattern string, h any) Entries {
	out := make(Entries, 0, len(methods))
	for _, m := range methods {
		out = append(out, r.add(m, pattern, h))
	}
	return out
}

func (r *Router) add(method, pattern string, h any) *Entry {
	e := &Entry{
		namePrefix: r.namePrefix,
		template:   r.join(pattern),
		method:     strings.ToUpper(method),
		handler:    h,
		middleware: append([]Middleware(nil), r.middleware...),
	}
	*r.entries = append(*r.entries, e)
	return e
}

func (r *Router) join(pattern string) string {
	if r.prefix == "" {
		return pattern
	}
	return path.Join(r.prefix, pattern)
}

// ── Groups & prefixes ────────────────────────────────────────────────────────

// Group runs fn on a router that shares this one's prefix; middleware added
// inside stays inside.
func (r *Router) Group(fn func(r *Router)) {
	fn(r.sub(r.prefix, r.namePrefix))
}

// Prefix runs fn on a router whose templates start with pattern.
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	fn(r.sub(r.join(pattern), r.namePrefix))
}

// Names runs fn on a router whose route names start with prefix.
func (r *Router) Names(prefix string, fn func(r *Router)) {
	fn(r.sub(r.prefix, r.namePrefix+prefix))
}

func (r *Router) sub(prefix, namePrefix string) *Router {
	return &Router{
		prefix:     prefix,
		namePrefix: namePrefix,
		middleware: append([]Middleware(nil), r.middleware...),
		entries:    r.entries,
	}
}

// Middleware adds middleware to the routes registered after the call.
func (r *Router) Middleware(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// ── Resource routes ──────────────────────────────────────────────────────────

// Resource registers the RESTful routes of a controller class:
//
//	GET    /photos        → Controller@Index    photos.index
//	POST   /photos        → Controller@Store    photos.store
//	GET    /photos/{id}   → Controller@Show     photos.show
//	PUT    /photos/{id}   → Controller@Update   photos.update
//	PATCH  /photos/{id}   → Controller@Update   photos.update
//	DELETE /photos/{id}   → Controller@Destroy  photos.destroy
func (r *Router) Resource(pattern, controller string) {
	base := path.Base(pattern)
	item := strings.TrimRight(pattern, "/") + "/{id}"
	r.Get(pattern, controller+"@Index").Name(base + ".index")
	r.Post(pattern, controller+"@Store").Name(base + ".store")
	r.Get(item, controller+"@Show").Name(base + ".show")
	r.Match([]string{http.MethodPut, http.MethodPatch}, item, controller+"@Update").Name(base + ".update")
	r.Delete(item, controller+"@Destroy").Name(base + ".destroy")
}

// Collection compiles the declared routes.
func (r *Router) Collection() (*RouteCollection, error) {
	rc := NewRouteCollection()
	for _, e := range *r.entries {
		route := NewRoute(e.name, e.template, e.method, e.handler)
		route.middleware = e.middleware
		if err := rc.Add(route); err != nil {
			return nil, err
		}
	}
	return rc, nil
}
