package routing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/km-arc/gomvc/framework/container"
	gohttp "github.com/km-arc/gomvc/framework/http"
	"github.com/km-arc/gomvc/framework/resolver"
)

// HandlerFunc is the native route handler.
type HandlerFunc func(ctx context.Context, req *gohttp.Request) (*gohttp.Response, error)

// Middleware wraps a handler.
//
//	func Auth(next routing.HandlerFunc) routing.HandlerFunc {
//	    return func(ctx context.Context, req *gohttp.Request) (*gohttp.Response, error) {
//	        if req.BearerToken() == "" {
//	            return gohttp.Unauthorized(), nil
//	        }
//	        return next(ctx, req)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// DefaultMethod is called on a string handler that names no method.
const DefaultMethod = "Handle"

var (
	ctxType       = reflect.TypeFor[context.Context]()
	requestType   = reflect.TypeFor[*gohttp.Request]()
	rawType       = reflect.TypeFor[*http.Request]()
	routeType     = reflect.TypeFor[*Route]()
	containerType = reflect.TypeFor[*container.Container]()
)

// Matcher finds the route for a request and runs its handler.
type Matcher struct {
	routes   *RouteCollection
	resolver *resolver.Resolver
	log      *slog.Logger
}

// NewMatcher returns a matcher over routes. res builds "Class@Method"
// handlers; it may be nil when every handler is a func.
func NewMatcher(routes *RouteCollection, res *resolver.Resolver, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{routes: routes, resolver: res, log: log}
}

// Routes returns the route collection.
func (m *Matcher) Routes() *RouteCollection { return m.routes }

// FindAndRun matches req and runs the handler. The matched route and req are
// registered on scope, the per-request container, before a string handler
// is resolved so its constructor can ask for them.
//
// Handlers are called with the captured arguments positionally, in template
// order. Parameters of type context.Context, *gohttp.Request, *http.Request,
// *Route and *container.Container are injected instead; any other
// non-scalar parameter is resolved from scope by its type key.
func (m *Matcher) FindAndRun(ctx context.Context, req *gohttp.Request, scope *container.Container) (*gohttp.Response, error) {
	route, params, err := m.routes.Find(req.Method(), req.Path())
	if err != nil {
		return nil, err
	}
	m.log.Debug("route matched", "route", route.String(), "name", route.name, "path", req.Path())

	values := make(map[string]string, len(params))
	args := make([]string, len(params))
	for i, p := range params {
		values[p.Name] = p.Value
		args[i] = p.Value
	}
	req.SetRouteParams(values)

	if scope == nil {
		scope = container.New()
	}
	scope.Instance(container.KeyOf[*Route](), route)
	scope.Instance(container.KeyOf[*gohttp.Request](), req)

	h, err := m.handler(ctx, route, args, scope)
	if err != nil {
		return nil, &HandlerError{Route: route.String(), Cause: err}
	}
	for i := len(route.middleware) - 1; i >= 0; i-- {
		h = route.middleware[i](h)
	}
	return h(ctx, req)
}

func (m *Matcher) handler(ctx context.Context, route *Route, args []string, scope *container.Container) (HandlerFunc, error) {
	switch h := route.handler.(type) {
	case HandlerFunc:
		return h, nil
	case func(context.Context, *gohttp.Request) (*gohttp.Response, error):
		return h, nil
	case string:
		class, method, ok := strings.Cut(h, "@")
		if !ok {
			method = DefaultMethod
		}
		if m.resolver == nil {
			return nil, fmt.Errorf("%w: %q needs a class resolver", ErrInvalidHandler, h)
		}
		instance, err := m.resolver.Resolve(ctx, class, scope)
		if err != nil {
			return nil, err
		}
		fn := reflect.ValueOf(instance).MethodByName(method)
		if !fn.IsValid() {
			return nil, fmt.Errorf("%w: %s has no method %s", ErrInvalidHandler, class, method)
		}
		return bind(fn, route, args, scope)
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrInvalidHandler)
	default:
		fn := reflect.ValueOf(h)
		if fn.Kind() != reflect.Func {
			return nil, fmt.Errorf("%w: %T is not callable", ErrInvalidHandler, h)
		}
		return bind(fn, route, args, scope)
	}
}

func bind(fn reflect.Value, route *Route, args []string, scope *container.Container) (HandlerFunc, error) {
	typ := fn.Type()
	if typ.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic handlers are not supported", ErrInvalidHandler)
	}
	return func(ctx context.Context, req *gohttp.Request) (*gohttp.Response, error) {
		in := make([]reflect.Value, typ.NumIn())
		next := 0
		for i := range in {
			t := typ.In(i)
			switch {
			case t == ctxType:
				in[i] = reflect.ValueOf(ctx)
			case t == requestType:
				in[i] = reflect.ValueOf(req)
			case t == rawType:
				in[i] = reflect.ValueOf(req.Raw())
			case t == routeType:
				in[i] = reflect.ValueOf(route)
			case t == containerType:
				in[i] = reflect.ValueOf(scope)
			case scalar(t):
				if next >= len(args) {
					return nil, fmt.Errorf("%w: handler wants more than the %d captured arguments", ErrInvalidHandler, len(args))
				}
				v, err := convert(args[next], t)
				if err != nil {
					return nil, err
				}
				in[i] = v
				next++
			default:
				key := container.TypeKeyOf(t)
				if !scope.IsRegistered(key) {
					return nil, fmt.Errorf("%w: nothing bound for handler parameter %s", ErrInvalidHandler, key)
				}
				v := reflect.ValueOf(scope.Resolve(key))
				if !v.IsValid() || !v.Type().AssignableTo(t) {
					return nil, fmt.Errorf("%w: %s does not hold a %s", ErrInvalidHandler, key, t)
				}
				in[i] = v
			}
		}
		return results(fn.Call(in))
	}, nil
}

func scalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convert(s string, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	var err error
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		var b bool
		if b, err = strconv.ParseBool(s); err == nil {
			v.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if n, err = strconv.ParseInt(s, 10, t.Bits()); err == nil {
			v.SetInt(n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		if n, err = strconv.ParseUint(s, 10, t.Bits()); err == nil {
			v.SetUint(n)
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = strconv.ParseFloat(s, t.Bits()); err == nil {
			v.SetFloat(f)
		}
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %q is not a valid %s", ErrBadArgument, s, t)
	}
	return v, nil
}

// results turns handler return values into a response. A *Response is used
// as is, a non-nil error is returned, a string becomes text/plain and any
// other value is encoded as JSON. Nothing at all is a 204.
func results(out []reflect.Value) (*gohttp.Response, error) {
	var res *gohttp.Response
	for _, v := range out {
		switch x := v.Interface().(type) {
		case nil:
		case *gohttp.Response:
			if x != nil {
				res = x
			}
		case error:
			return nil, x
		case string:
			res = gohttp.Text(http.StatusOK, x)
		default:
			res = gohttp.JSON(http.StatusOK, x)
		}
	}
	if res == nil {
		return gohttp.NoContent(), nil
	}
	return res, nil
}
