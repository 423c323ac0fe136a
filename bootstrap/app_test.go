package bootstrap_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/km-arc/gomvc/app/models"
	"github.com/km-arc/gomvc/bootstrap"
	"github.com/km-arc/gomvc/framework/app"
	"github.com/km-arc/gomvc/framework/config"
	"github.com/km-arc/gomvc/framework/container"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fixture struct {
	app     *app.Application
	handler http.Handler
	out     *bytes.Buffer
}

func setup(t *testing.T) fixture {
	t.Helper()
	cfg := &config.Config{
		App:    config.AppConfig{Name: "Blog", Env: "testing", PublicDir: "../public"},
		DB:     config.DBConfig{Driver: "sqlite", Database: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1},
		Cache:  config.CacheConfig{Store: "database", TTL: time.Minute},
		View:   config.ViewConfig{Dir: "../views", Ext: ".html"},
		Routes: config.RoutesConfig{File: "../routes/web.yaml"},
	}
	var out bytes.Buffer
	a := bootstrap.New(app.WithConfig(cfg), app.WithLogOutput(io.Discard), app.WithCommandOutput(&out))
	require.NoError(t, a.Boot())
	t.Cleanup(func() { _ = a.Close() })
	return fixture{app: a, handler: a.Handler(), out: &out}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type postEnvelope struct {
	Data models.Post `json:"data"`
}

func TestPostsResource(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/posts", `{"title":"Hello Go","body":"First post","published":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[postEnvelope](t, rec).Data
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Hello Go", created.Title)

	rec = f.do(t, http.MethodGet, "/posts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "First post", decode[postEnvelope](t, rec).Data.Body)

	rec = f.do(t, http.MethodPatch, "/posts/1", `{"title":"Hello again","body":"Edited"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello again", decode[postEnvelope](t, rec).Data.Title)

	rec = f.do(t, http.MethodGet, "/posts?page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Data     []models.Post `json:"data"`
		Total    int64         `json:"total"`
		LastPage int           `json:"last_page"`
	}](t, rec)
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 1, list.LastPage)
	require.Len(t, list.Data, 1)

	rec = f.do(t, http.MethodDelete, "/posts/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/posts/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostsResource_Errors(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"validation", http.MethodPost, "/posts", `{"title":"Go"}`, http.StatusUnprocessableEntity, "The title must be at least 3 characters."},
		{"empty body", http.MethodPost, "/posts", "", http.StatusBadRequest, "empty"},
		{"missing post", http.MethodGet, "/posts/99", "", http.StatusNotFound, "Post not found."},
		{"bad id", http.MethodGet, "/posts/abc", "", http.StatusNotFound, "Not Found"},
		{"unknown route", http.MethodGet, "/nowhere", "", http.StatusNotFound, "Not Found"},
		{"method not routed", http.MethodPut, "/posts", "", http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestHomePage(t *testing.T) {
	f := setup(t)
	f.do(t, http.MethodPost, "/posts", `{"title":"Visible","body":"yes","published":true}`)
	f.do(t, http.MethodPost, "/posts", `{"title":"Hidden draft","body":"no"}`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<a href="/posts/1">Visible</a>`)
	assert.NotContains(t, body, "Hidden draft")
	assert.Contains(t, body, "<title>Blog</title>")
}

func TestHealthAndStatic(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/static/css/app.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "font-family")
}

func TestPrunePostsCommand(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	db := container.MustGet[*gorm.DB](f.app.Container, "gorm")

	old := time.Now().AddDate(0, 0, -60)
	require.NoError(t, db.Create(&[]models.Post{
		{Title: "old draft", Body: "x", CreatedAt: old},
		{Title: "old published", Body: "x", Published: true, CreatedAt: old},
		{Title: "new draft", Body: "x"},
	}).Error)

	assert.Zero(t, f.app.RunCommand(ctx, []string{"posts:prune", "--dry-run"}))
	assert.Equal(t, "Would prune 1 draft posts older than 30 days.\n", f.out.String())

	f.out.Reset()
	assert.Zero(t, f.app.RunCommand(ctx, []string{"posts:prune", "--days", "30"}))
	assert.Equal(t, "Pruned 1 draft posts older than 30 days.\n", f.out.String())

	var left int64
	require.NoError(t, db.Model(&models.Post{}).Count(&left).Error)
	assert.EqualValues(t, 2, left)

	assert.Equal(t, 2, f.app.RunCommand(ctx, []string{"posts:prune", "--days=-1"}))
	assert.Equal(t, 2, f.app.RunCommand(ctx, []string{"posts:prune", "--bogus"}))
}

func TestSchedule(t *testing.T) {
	f := setup(t)
	jobs := f.app.Scheduler().Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "posts:prune", jobs[0].Command)
	assert.Equal(t, []string{"--days=30"}, jobs[0].Args)

	code, err := f.app.Scheduler().RunNow(context.Background(), jobs[0].ID)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Contains(t, f.out.String(), "Pruned 0 draft posts")
}
