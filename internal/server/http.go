package server

import (
	"mediamod/internal/conf"
	"mediamod/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer creates the HTTP server and mounts all routes.
func NewHTTPServer(c *conf.Bootstrap, moderation *service.ModerationService, admin *service.AdminService, logger log.Logger) *http.Server {
	opts := []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.Server.HTTP.Network != "" {
		opts = append(opts, http.Network(c.Server.HTTP.Network))
	}
	if c.Server.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.Server.HTTP.Addr))
	}
	if timeout := c.Server.HTTP.Timeout.AsDuration(); timeout > 0 {
		opts = append(opts, http.Timeout(timeout))
	}

	srv := http.NewServer(opts...)
	moderation.RegisterRoutes(srv)
	admin.RegisterRoutes(srv)
	return srv
}
