package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroupMethods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("items", "/items")
	reply := func(body string) gin.HandlerFunc {
		return func(c *gin.Context) { c.String(http.StatusOK, body) }
	}
	g.GET("", reply("list")).
		POST("", reply("create")).
		PUT("/:id", reply("update")).
		PATCH("/:id", reply("patch")).
		DELETE("/:id", reply("delete"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/items", "list"},
		{http.MethodPost, "/api/v1/items", "create"},
		{http.MethodPut, "/api/v1/items/1", "update"},
		{http.MethodPatch, "/api/v1/items/1", "patch"},
		{http.MethodDelete, "/api/v1/items/1", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroupMiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}

	g := NewDomainGroup("parent", "/parent").Use(mark("parent"))
	g.Group("child", "/child").
		Use(mark("child")).
		GET("/leaf", mark("route"), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.RegisterRoutes(engine.Group(""))

	w := serve(engine, http.MethodGet, "/parent/child/leaf")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"parent", "child", "route"}, order)
	assert.Equal(t, []Route{{Method: http.MethodGet, Path: "/parent/child/leaf"}}, g.Routes())
}

func TestDomainGroupSkipsNilHandlers(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("x", "/x").
		GET("", nil, func(c *gin.Context) { c.Status(http.StatusAccepted) })
	g.RegisterRoutes(engine.Group(""))

	assert.Equal(t, http.StatusAccepted, serve(engine, http.MethodGet, "/x").Code)
}

func TestDomainGroupAccessors(t *testing.T) {
	g := NewDomainGroup("catalog", "/catalog")
	assert.Equal(t, "catalog", g.Name())
	assert.Equal(t, "/catalog", g.Prefix())
}
