package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/handler"
	"github.com/gmatprep/internal/metrics"
	"github.com/gmatprep/internal/render"
	"github.com/gmatprep/web"
)

const lessonSource = `---
title: "Median with Unknown Values"
section: "14.6.4"
legacy_id: 2455
---
The median of $n$ values sits at position $\frac{n+1}{2}$.

~~~mustknow
Sort before you look for the middle.
~~~

~~~mcq
number: 43
prompt: "If S = {x, 4, 3, 12, 11, 10, 10}, what is the median of S?"
options: ["3", "5", "10", "11", "12"]
correct: "10"
solution: "Two 10s hold the middle."
~~~

~~~ds
number: 2
question: 'Is $\sqrt{18a}$ an integer?'
statements: ["a is a multiple of 2", "a is a multiple of 9"]
correct: "E"
~~~
`

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file:router-"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := content.NewStore(fstest.MapFS{
		"Statistics/chapter.yaml": {Data: []byte("number: 14\ntitle: Statistics\n")},
		"Statistics/median.md":    {Data: []byte(lessonSource)},
	})
	_, err = store.Reload(context.Background())
	require.NoError(t, err)

	api := handler.NewAPI(handler.Dependencies{
		DB:       gdb,
		Content:  store,
		Renderer: render.New(nil),
	})
	r, err := SetupRouter(api, Options{SessionSecret: "test-secret", Metrics: metrics.New()})
	require.NoError(t, err)
	return r, gdb
}

func get(r http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTemplatesDefinePages(t *testing.T) {
	tmpl, err := Templates(web.FS)
	require.NoError(t, err)

	for _, name := range []string{"home.html", "chapter.html", "lesson.html", "search.html", "error.html", "login.html", "dashboard.html", "settings.html", "head", "foot", "mcq", "ds", "mustknow", "progress_bar"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestPublicPagesRender(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		target   string
		status   int
		contains []string
	}{
		{"/", http.StatusOK, []string{"14. Statistics", "lessons read"}},
		{"/chapters/statistics", http.StatusOK, []string{"Median with Unknown Values", "14.6.4"}},
		{"/chapters/statistics/median", http.StatusOK, []string{
			`data-answers-url="/api/lessons/statistics/median/answers"`,
			`data-question="43"`,
			"Must know",
			`data-tex="inline"`,
			// no heading in front matter: the title fills the h1
			`<span class="lesson-section">14.6.4</span> Median with Unknown Values</h1>`,
		}},
		{"/search?q=median", http.StatusOK, []string{`href="/chapters/statistics/median"`}},
		{"/chapters/statistics/unknown", http.StatusNotFound, []string{"Page not found"}},
		{"/admin/login", http.StatusOK, []string{`name="password"`}},
	}

	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			w := get(r, tc.target)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			for _, want := range tc.contains {
				assert.Contains(t, w.Body.String(), want)
			}
		})
	}
}

func TestLegacyRedirect(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/lesson/2455")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/chapters/statistics/median", w.Header().Get("Location"))
}

func TestOperationalEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")

	w = get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	get(r, "/chapters/statistics/median")
	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gmatprep_lesson_views_total{chapter="statistics"} 1`)

	w = get(r, "/static/css/site.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())

	w = get(r, "/static/js/lesson.js")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminPagesRender(t *testing.T) {
	r, gdb := newTestRouter(t)
	require.NoError(t, db.SetPassword(gdb, "admin", "secret"))

	w := get(r, "/admin/dashboard")
	require.Equal(t, http.StatusFound, w.Code)

	form := url.Values{"username": {"admin"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionName {
			session = c
		}
	}
	require.NotNil(t, session)

	w = get(r, "/admin/dashboard", session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Signed in as admin")
	assert.Contains(t, w.Body.String(), `data-reload-url="/admin/api/reload"`)

	w = get(r, "/admin/settings", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-settings-url="/admin/api/settings"`)
}
