package routing_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/gomvc/framework/routing"
)

func describe(rc *routing.RouteCollection) []string {
	var out []string
	for _, r := range rc.Routes() {
		out = append(out, r.String()+" "+r.Name())
	}
	return out
}

func TestRouter_PrefixNamesAndResource(t *testing.T) {
	r := routing.NewRouter()
	r.Get("/", "HomeController@Index").Name("home")
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Names("api.", func(api *routing.Router) {
			api.Post("/posts", "PostController@Store").Name("posts.store")
		})
		api.Resource("/photos", "PhotoController")
	})
	r.Any("/ping", "PingController")

	rc, err := r.Collection()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GET / home",
		"POST /api/v1/posts api.posts.store",
		"GET /api/v1/photos photos.index",
		"POST /api/v1/photos photos.store",
		"GET /api/v1/photos/{id} photos.show",
		"PUT /api/v1/photos/{id} photos.update",
		"PATCH /api/v1/photos/{id} photos.update",
		"DELETE /api/v1/photos/{id} photos.destroy",
		"ANY /ping ",
	}, describe(rc))

	// duplicate names keep the last route in the index
	update, ok := rc.Get("photos.update")
	require.True(t, ok)
	assert.Equal(t, "PATCH", update.Method())

	url, err := rc.URL("photos.show", map[string]string{"id": "5"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/photos/5", url)

	_, err = rc.URL("nope", nil)
	assert.ErrorIs(t, err, routing.ErrRouteNotFound)
}

func TestRouter_InvalidTemplate(t *testing.T) {
	r := routing.NewRouter()
	r.Get("/a/{id:z}", "X")
	_, err := r.Collection()
	assert.ErrorIs(t, err, routing.ErrInvalidTemplate)
}

func TestRouteCollection_AddIsAllOrNothing(t *testing.T) {
	rc := routing.NewRouteCollection()
	err := rc.Add(
		routing.NewRoute("ok", "/ok", "", "X"),
		routing.NewRoute("bad", "/{a}/{a}", "", "X"),
	)
	assert.ErrorIs(t, err, routing.ErrInvalidTemplate)
	assert.Equal(t, 0, rc.Len())
	assert.False(t, rc.Has("ok"))
}

func TestRouteCollection_Merge(t *testing.T) {
	a := routing.NewRouteCollection()
	require.NoError(t, a.Add(routing.NewRoute("home", "/", "GET", "A")))
	b := routing.NewRouteCollection()
	require.NoError(t, b.Add(routing.NewRoute("home", "/home", "GET", "B")))

	merged, err := a.Merge(b)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Len())
	home, _ := merged.Get("home")
	assert.Equal(t, "/home", home.Template())
	assert.Equal(t, 1, a.Len())
}

const routesYAML = `
prefix: /api
routes:
  - name: posts.show
    method: GET
    path: /posts/{id:i}
    handler: PostController@Show
  - path: /health
    methods: [GET, HEAD]
    handler: HealthController
  - path: /anything
    method: ANY
    handler: AnyController
  - resource: /tags
    controller: TagController
`

func TestLoad(t *testing.T) {
	r := routing.NewRouter()
	r.Get("/", "HomeController@Index").Name("home")
	require.NoError(t, routing.Load(strings.NewReader(routesYAML), r))

	rc, err := r.Collection()
	require.NoError(t, err)
	lines := describe(rc)
	assert.Equal(t, "GET / home", lines[0])
	assert.Equal(t, "GET /api/posts/{id:i} posts.show", lines[1])
	assert.Equal(t, "GET /api/health ", lines[2])
	assert.Equal(t, "HEAD /api/health ", lines[3])
	assert.Equal(t, "ANY /api/anything ", lines[4])
	assert.Contains(t, lines, "DELETE /api/tags/{id} tags.destroy")

	show, ok := rc.Get("posts.show")
	require.True(t, ok)
	assert.Equal(t, "PostController@Show", show.Handler())
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown field": "routes:\n  - pth: /x\n",
		"no path":       "routes:\n  - handler: X\n",
		"no handler":    "routes:\n  - path: /x\n",
		"no controller": "routes:\n  - resource: /x\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, routing.Load(strings.NewReader(src), routing.NewRouter()))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routesYAML), 0o644))

	r := routing.NewRouter()
	require.NoError(t, routing.LoadFile(path, r))
	rc, err := r.Collection()
	require.NoError(t, err)
	assert.True(t, rc.Has("posts.show"))

	assert.Error(t, routing.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), r))
}

func TestLoad_Empty(t *testing.T) {
	r := routing.NewRouter()
	require.NoError(t, routing.Load(strings.NewReader(""), r))
	rc, err := r.Collection()
	require.NoError(t, err)
	assert.Equal(t, 0, rc.Len())
}
