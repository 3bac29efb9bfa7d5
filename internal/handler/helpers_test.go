package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	ginrender "github.com/gin-gonic/gin/render"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/render"
)

const testVisitor = "5b0c1f8e-3c55-4a38-9d1e-8f6f6bb1e001"

type stubHTMLRender struct {
	last *stubHTMLInstance
}

type stubHTMLInstance struct {
	name string
	data interface{}
}

func (r *stubHTMLRender) Instance(name string, data interface{}) ginrender.Render {
	r.last = &stubHTMLInstance{name: name, data: data}
	return r.last
}

func (r *stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func (r *stubHTMLRender) data(t *testing.T) gin.H {
	t.Helper()
	if r.last == nil {
		t.Fatal("expected a template to be rendered")
	}
	data, ok := r.last.data.(gin.H)
	if !ok {
		t.Fatalf("expected gin.H template data, got %T", r.last.data)
	}
	return data
}

const medianLesson = `---
title: "Median with Unknown Values"
section: "14.6.4"
heading: "Finding the median when a value is unknown"
description: "Bounding the median of a set."
legacy_id: 2455
---
Sort the known values first.

~~~mustknow
The median depends only on the middle of the ordered list.
~~~

~~~mcq
number: 43
prompt: "If S = {x, 4, 3, 12, 11, 10, 10}, what is the median of set S?"
options: ["3", "5", "10", "11", "12"]
correct: "10"
solution: "The two 10s hold the middle."
~~~

~~~ds
number: 2
question: 'Is $\sqrt{18a}$ an integer?'
statements: ["a is a multiple of 2", "a is a multiple of 9"]
correct: "E"
solution: "Try a = 18 and a = 36."
~~~

~~~ds
number: 3
question: "Drill: which statement helps?"
statements: ["x > 0", "x < 5"]
correct: "—"
~~~
`

func testContentFS() fstest.MapFS {
	return fstest.MapFS{
		"Statistics/chapter.yaml": {Data: []byte("number: 14\ntitle: Statistics\ndescription: Averages and spread.\n")},
		"Statistics/median.md":    {Data: []byte(medianLesson)},
		"Statistics/mean.md":      {Data: []byte("---\ntitle: Arithmetic Mean\nsection: \"14.6\"\n---\nThe mean is the sum divided by the count.\n")},
	}
}

type testEnv struct {
	api   *API
	db    *gorm.DB
	fsys  fstest.MapFS
	store *content.Store
	html  *stubHTMLRender
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open("file:handler-"+name+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupHandlerTestDB(t)
	fsys := testContentFS()
	store := content.NewStore(fsys)
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("failed to load content: %v", err)
	}

	api := NewAPI(Dependencies{
		DB:          gdb,
		Content:     store,
		Renderer:    render.New(nil),
		SiteBaseURL: "https://prep.example.com/",
	})
	return &testEnv{api: api, db: gdb, fsys: fsys, store: store, html: &stubHTMLRender{}}
}

// engine wires routes the same way the router does, with the stub
// template renderer.
func (e *testEnv) engine() *gin.Engine {
	r := gin.New()
	r.HTMLRender = e.html
	r.Use(sessions.Sessions("gmatprep_session", cookie.NewStore([]byte("test-secret"))))

	r.GET("/", e.api.ShowHome)
	r.GET("/chapters/:chapter", e.api.ShowChapter)
	r.GET("/chapters/:chapter/:lesson", e.api.ShowLesson)
	r.GET("/lesson/:id", e.api.RedirectLegacyLesson)
	r.GET("/search", e.api.ShowSearch)
	r.GET("/healthz", e.api.HealthCheck)
	r.POST("/api/lessons/:chapter/:lesson/answers", e.api.SubmitAnswer)
	r.PUT("/api/lessons/:chapter/:lesson/progress", e.api.UpdateProgress)
	r.POST("/api/math", e.api.PreviewMath)

	r.GET("/admin/login", e.api.ShowLoginPage)
	r.POST("/admin/login", e.api.Login)
	auth := r.Group("/admin")
	auth.Use(AuthRequired())
	auth.GET("/dashboard", e.api.ShowDashboard)
	auth.GET("/api/settings", e.api.GetSystemSettings)
	auth.PUT("/api/settings", e.api.UpdateSystemSettings)
	auth.POST("/api/reload", e.api.ReloadContent)
	r.NoRoute(e.api.NotFound)
	return r
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.engine().ServeHTTP(w, req)
	return w
}

func visitorCookie() *http.Cookie {
	return &http.Cookie{Name: visitorCookieName, Value: testVisitor}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}
