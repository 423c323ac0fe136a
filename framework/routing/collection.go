package routing

import (
	"fmt"

	"github.com/km-arc/gomvc/framework/collection"
)

// RouteCollection holds routes in registration order and indexes the named
// ones. Adding a route whose name is taken replaces the index entry; the
// earlier route stays in the ordered list and can still match.
type RouteCollection struct {
	routes *collection.Collection[*Route]
	names  *collection.Collection[*Route]
}

// NewRouteCollection returns an empty collection.
func NewRouteCollection() *RouteCollection {
	typ := collection.InstanceOf[*Route]()
	return &RouteCollection{
		routes: collection.NewList[*Route](typ),
		names:  collection.NewMap[*Route](typ),
	}
}

// Add appends routes. Each template is compiled first; nothing is added if
// any of them is invalid.
func (rc *RouteCollection) Add(routes ...*Route) error {
	for _, r := range routes {
		if r == nil {
			return fmt.Errorf("routing: nil route")
		}
		if _, err := r.Regex(); err != nil {
			return err
		}
	}
	for _, r := range routes {
		if err := rc.routes.Set(r); err != nil {
			return err
		}
		if r.name != "" {
			if err := rc.names.Set(r, r.name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the route indexed under name.
func (rc *RouteCollection) Get(name string) (*Route, bool) {
	return rc.names.Lookup(name)
}

func (rc *RouteCollection) Has(name string) bool { return rc.names.Has(name) }

// Routes returns every route in registration order.
func (rc *RouteCollection) Routes() []*Route { return rc.routes.Values() }

func (rc *RouteCollection) Len() int { return rc.routes.Len() }

// Merge returns a collection with the routes of rc followed by those of
// other. Names in other win.
func (rc *RouteCollection) Merge(other *RouteCollection) (*RouteCollection, error) {
	routes, err := rc.routes.Merge(other.routes)
	if err != nil {
		return nil, err
	}
	names, err := rc.names.Merge(other.names)
	if err != nil {
		return nil, err
	}
	return &RouteCollection{routes: routes, names: names}, nil
}

// URL builds the path of the named route.
//
//	url, err := routes.URL("posts.show", map[string]string{"id": "7"})
func (rc *RouteCollection) URL(name string, params map[string]string) (string, error) {
	r, ok := rc.Get(name)
	if !ok {
		return "", fmt.Errorf("routing: no route named %q: %w", name, ErrRouteNotFound)
	}
	return r.URL(params), nil
}

// Find returns the first route allowing method whose pattern matches path.
func (rc *RouteCollection) Find(method, path string) (*Route, []Param, error) {
	for _, r := range rc.routes.All() {
		if !r.Allows(method) {
			continue
		}
		if params, ok := r.Match(path); ok {
			return r, params, nil
		}
	}
	return nil, nil, &RouteNotFoundError{Method: method, Path: path}
}
