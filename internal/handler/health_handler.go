package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dws-org/dws-frontend/pkg/redis"
	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	redis            *redis.Client
	eventServiceURL  string
	ticketServiceURL string
	client           *http.Client
}

// NewHealthHandler creates a new HealthHandler. The redis client may be nil
// when caching is disabled.
func NewHealthHandler(redis *redis.Client, eventServiceURL, ticketServiceURL string) *HealthHandler {
	return &HealthHandler{
		redis:            redis,
		eventServiceURL:  eventServiceURL,
		ticketServiceURL: ticketServiceURL,
		client:           &http.Client{Timeout: 3 * time.Second},
	}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health returns a simple health check (liveness probe)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready returns a readiness check (readiness probe). The backends are
// reported but never gate readiness: the storefront degrades instead of
// failing when a backend is down.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string)
	allHealthy := true

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			components["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			components["redis"] = "healthy"
		}
	} else {
		components["redis"] = "not configured"
	}

	components["event-service"] = h.probe(ctx, h.eventServiceURL)
	components["ticket-service"] = h.probe(ctx, h.ticketServiceURL)

	response := ReadyResponse{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	if allHealthy {
		response.Status = "ready"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "not ready"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) probe(ctx context.Context, baseURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return "unhealthy: " + err.Error()
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "unhealthy: " + resp.Status
	}
	return "healthy"
}
