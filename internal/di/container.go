package di

import (
	"github.com/dws-org/dws-frontend/internal/client"
	"github.com/dws-org/dws-frontend/internal/handler"
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/internal/proxy"
	"github.com/dws-org/dws-frontend/pkg/config"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"github.com/dws-org/dws-frontend/pkg/redis"
)

// Container holds all dependencies for the storefront
type Container struct {
	// Infrastructure
	Redis *redis.Client

	// Identity
	SessionProvider *identity.Provider

	// Service clients
	EventClient  client.EventClient
	TicketClient client.TicketClient

	// Forwarding
	Forwarder *proxy.Forwarder

	// Handlers
	HealthHandler *handler.HealthHandler
	ViewHandler   *handler.ViewHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	Logger *logger.Logger
	Redis  *redis.Client // nil disables the event cache
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		Redis: cfg.Redis,
	}

	c.SessionProvider = identity.NewProvider(&identity.Config{
		JWTSecret:     cfg.Config.Identity.JWTSecret,
		Issuer:        cfg.Config.Identity.Issuer,
		OrganiserRole: cfg.Config.Identity.OrganiserRole,
	})

	timeout := cfg.Config.Services.RequestTimeout
	eventClient := client.NewEventClient(cfg.Config.Services.EventServiceURL, timeout, cfg.Logger)
	c.EventClient = eventClient
	if cfg.Redis != nil {
		c.EventClient = client.NewCachedEventClient(eventClient, cfg.Redis, cfg.Config.Redis.CacheTTL)
	}
	c.TicketClient = client.NewTicketClient(cfg.Config.Services.TicketServiceURL, timeout, cfg.Logger)

	c.Forwarder = proxy.NewForwarder(proxy.DefaultConfig(
		cfg.Config.Services.EventServiceURL,
		cfg.Config.Services.TicketServiceURL,
	))

	c.HealthHandler = handler.NewHealthHandler(
		cfg.Redis,
		cfg.Config.Services.EventServiceURL,
		cfg.Config.Services.TicketServiceURL,
	)
	c.ViewHandler = handler.NewViewHandler(c.EventClient, c.TicketClient, cfg.Logger)

	return c
}
