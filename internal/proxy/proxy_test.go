package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func proxyRouter(f *Forwarder, sess *identity.Session) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.SessionKey, sess)
		c.Next()
	})
	r.Any("/api/*path", f.Handler())
	return r
}

func TestForwarder_PassesThroughBodyAndStatus(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, "limit=5", r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"id":"e1"}]`))
	}))
	defer backend.Close()

	f := NewForwarder(DefaultConfig(backend.URL, backend.URL))
	r := proxyRouter(f, identity.Anonymous())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[{"id":"e1"}]`, w.Body.String())
}

func TestForwarder_PropagatesUpstreamStatus(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"sold out"}`))
	}))
	defer backend.Close()

	f := NewForwarder(DefaultConfig(backend.URL, backend.URL))
	sess := &identity.Session{Subject: "u1", Authenticated: true, Token: "tok"}
	r := proxyRouter(f, sess)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tickets/purchase", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "sold out")
}

func TestForwarder_RequiresBearerForProtectedRoutes(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be reached without auth")
	}))
	defer backend.Close()

	f := NewForwarder(DefaultConfig(backend.URL, backend.URL))
	r := proxyRouter(f, identity.Anonymous())

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/tickets/my-tickets"},
		{http.MethodPost, "/api/v1/tickets/purchase"},
		{http.MethodGet, "/api/v1/tickets"},
		{http.MethodPost, "/api/v1/events"},
	}

	for _, route := range protected {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestForwarder_PublicRoutesSkipAuth(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	f := NewForwarder(DefaultConfig(backend.URL, backend.URL))
	r := proxyRouter(f, identity.Anonymous())

	public := []string{
		"/api/v1/events",
		"/api/events/e1",
		"/api/v1/event-stats",
	}

	for _, path := range public {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestForwarder_ForwardsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	f := NewForwarder(DefaultConfig(backend.URL, backend.URL))
	sess := &identity.Session{Subject: "u1", Authenticated: true, Token: "tok"}
	r := proxyRouter(f, sess)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets", nil)
	req.Header.Set("Authorization", "Bearer tok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestForwarder_TransportFailureReturnsGenericError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close() // refuse connections

	f := NewForwarder(DefaultConfig(backend.URL, backend.URL))
	r := proxyRouter(f, identity.Anonymous())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	// Generic wording only, no backend detail.
	assert.Equal(t, "Internal server error", body.Error.Message)
}

func TestForwarder_UnknownRoute(t *testing.T) {
	f := NewForwarder(DefaultConfig("http://localhost:1", "http://localhost:1"))
	r := proxyRouter(f, identity.Anonymous())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFindRoute_MethodGranularity(t *testing.T) {
	f := NewForwarder(DefaultConfig("http://localhost:1", "http://localhost:2"))

	get := f.findRoute("/api/v1/events", http.MethodGet)
	require.NotNil(t, get)
	assert.False(t, get.RequireAuth)

	post := f.findRoute("/api/v1/events", http.MethodPost)
	require.NotNil(t, post)
	assert.True(t, post.RequireAuth)

	// Sub-paths win over the bare tickets prefix.
	my := f.findRoute("/api/v1/tickets/my-tickets", http.MethodGet)
	require.NotNil(t, my)
	assert.Equal(t, "/api/v1/tickets/my-tickets", my.PathPrefix)

	del := f.findRoute("/api/v1/events", http.MethodDelete)
	assert.Nil(t, del)
}

func TestForwarder_PostBodyReachesBackend(t *testing.T) {
	var gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	f := NewForwarder(DefaultConfig(backend.URL, backend.URL))
	sess := &identity.Session{Subject: "u1", Authenticated: true}
	r := proxyRouter(f, sess)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"name":"New Fest"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"name":"New Fest"}`, gotBody)
}
