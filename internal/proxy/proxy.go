package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dws-org/dws-frontend/internal/middleware"
	"github.com/dws-org/dws-frontend/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ServiceConfig holds configuration for a backend service
type ServiceConfig struct {
	Name    string
	BaseURL string
	Timeout time.Duration
}

// RouteConfig holds configuration for a forwarded route
type RouteConfig struct {
	// PathPrefix is the prefix that triggers this route (e.g. "/api/v1/tickets")
	PathPrefix string
	// Service is the target backend service
	Service ServiceConfig
	// RequireAuth rejects requests without a valid bearer with 401 before
	// they reach the backend
	RequireAuth bool
	// AllowedMethods restricts which HTTP methods are forwarded (empty = all)
	AllowedMethods []string
}

// Config holds the overall forwarding configuration
type Config struct {
	Routes         []RouteConfig
	DefaultTimeout time.Duration
}

// Forwarder passes API requests through to the event and ticket services
// unchanged: bodies, query strings, and bearer tokens all travel as-is, and
// upstream status codes come back untouched.
type Forwarder struct {
	config  Config
	proxies map[string]*httputil.ReverseProxy
	mu      sync.RWMutex
	client  *http.Client
}

// NewForwarder creates a forwarder over the given route table.
func NewForwarder(config Config) *Forwarder {
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          1000,
		MaxIdleConnsPerHost:   1000,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	f := &Forwarder{
		config:  config,
		proxies: make(map[string]*httputil.ReverseProxy),
		client: &http.Client{
			Transport: transport,
			Timeout:   config.DefaultTimeout,
		},
	}

	for _, route := range config.Routes {
		if _, exists := f.proxies[route.Service.Name]; !exists {
			f.initProxy(route.Service)
		}
	}

	return f
}

func (f *Forwarder) initProxy(service ServiceConfig) {
	targetURL, err := url.Parse(service.BaseURL)
	if err != nil {
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)
	proxy.Transport = f.client.Transport

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = targetURL.Host
	}

	// Transport failures never leak backend detail to the caller.
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`)
	}

	f.mu.Lock()
	f.proxies[service.Name] = proxy
	f.mu.Unlock()
}

// findRoute finds the matching route for a request. Routes are checked in
// table order, so more specific prefixes must come first.
func (f *Forwarder) findRoute(path, method string) *RouteConfig {
	for i := range f.config.Routes {
		route := &f.config.Routes[i]
		if !strings.HasPrefix(path, route.PathPrefix) {
			continue
		}
		if len(route.AllowedMethods) > 0 {
			allowed := false
			for _, m := range route.AllowedMethods {
				if strings.EqualFold(m, method) {
					allowed = true
					break
				}
			}
			if !allowed {
				continue
			}
		}
		return route
	}
	return nil
}

// Handler returns a Gin handler forwarding requests per the route table.
func (f *Forwarder) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "storefront.forward")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.path", c.Request.URL.Path),
		)

		route := f.findRoute(c.Request.URL.Path, c.Request.Method)
		if route == nil {
			span.SetStatus(codes.Error, "No route configured for this path")
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ROUTE_NOT_FOUND",
					"message": "No route configured for this path",
				},
			})
			c.Abort()
			return
		}

		span.SetAttributes(attribute.String("target.service", route.Service.Name))

		if route.RequireAuth && !middleware.GetSession(c).Authenticated {
			span.SetStatus(codes.Error, "Authentication required")
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "authentication required",
				},
			})
			c.Abort()
			return
		}

		f.mu.RLock()
		proxy, exists := f.proxies[route.Service.Name]
		f.mu.RUnlock()

		if !exists {
			span.SetStatus(codes.Error, "Backend service not configured")
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SERVICE_NOT_CONFIGURED",
					"message": "Backend service not configured",
				},
			})
			c.Abort()
			return
		}

		if requestID := middleware.GetRequestID(c); requestID != "" {
			c.Request.Header.Set(middleware.RequestIDHeader, requestID)
		}

		timeout := route.Service.Timeout
		if timeout == 0 {
			timeout = f.config.DefaultTimeout
		}
		timeoutCtx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(timeoutCtx)

		span.SetStatus(codes.Ok, "")

		func() {
			defer func() {
				if r := recover(); r != nil {
					span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
					span.RecordError(fmt.Errorf("panic: %v", r))
				}
			}()
			proxy.ServeHTTP(c.Writer, c.Request)
		}()
	}
}

// Routes returns the route table the forwarder serves, for registration.
func (f *Forwarder) Routes() []RouteConfig {
	return f.config.Routes
}

// DefaultConfig builds the storefront route table over the two backends.
// Order matters: the ticket sub-paths must precede the bare /api/v1/tickets
// prefix.
func DefaultConfig(eventServiceURL, ticketServiceURL string) Config {
	eventService := ServiceConfig{
		Name:    "event-service",
		BaseURL: eventServiceURL,
		Timeout: 15 * time.Second,
	}
	ticketService := ServiceConfig{
		Name:    "ticket-service",
		BaseURL: ticketServiceURL,
		Timeout: 15 * time.Second,
	}

	return Config{
		DefaultTimeout: 30 * time.Second,
		Routes: []RouteConfig{
			{
				PathPrefix:     "/api/v1/events",
				Service:        eventService,
				RequireAuth:    false,
				AllowedMethods: []string{"GET"},
			},
			{
				PathPrefix:     "/api/v1/events",
				Service:        eventService,
				RequireAuth:    true,
				AllowedMethods: []string{"POST"},
			},
			{
				PathPrefix:     "/api/events",
				Service:        eventService,
				RequireAuth:    false,
				AllowedMethods: []string{"GET"},
			},
			{
				PathPrefix:     "/api/v1/event-stats",
				Service:        ticketService,
				RequireAuth:    false,
				AllowedMethods: []string{"GET"},
			},
			{
				PathPrefix:     "/api/v1/tickets/my-tickets",
				Service:        ticketService,
				RequireAuth:    true,
				AllowedMethods: []string{"GET"},
			},
			{
				PathPrefix:     "/api/v1/tickets/purchase",
				Service:        ticketService,
				RequireAuth:    true,
				AllowedMethods: []string{"POST"},
			},
			{
				PathPrefix:     "/api/v1/tickets",
				Service:        ticketService,
				RequireAuth:    true,
				AllowedMethods: []string{"GET"},
			},
		},
	}
}
