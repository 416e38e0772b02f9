package handler

import (
	"fmt"
	"slices"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/response"
)

// NewRouter builds the gin engine with logging, CORS and rate limiting
// applied ahead of the REST and websocket routes.
func NewRouter(cfg *config.Config, logger zerolog.Logger, api *Handler, ws *WSHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(logger, "/health"))
	r.Use(cors.New(corsConfig(cfg.CORS.Origins())))

	if cfg.RateLimit.Enabled {
		r.Use(rateLimiter(cfg.RateLimit))
	}

	api.RegisterRoutes(r)
	ws.RegisterRoutes(r)

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Request-ID")
	c.ExposeHeaders = []string{"X-Request-ID"}
	c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	return c
}

func rateLimiter(cfg config.RateLimitConfig) gin.HandlerFunc {
	window := cfg.Window
	if window <= 0 {
		window = time.Second
	}
	limit := cfg.Limit
	if limit == 0 {
		limit = 100
	}

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  window,
		Limit: limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			response.TooManyRequests(c, fmt.Sprintf("too many requests, try again in %s",
				time.Until(info.ResetTime).Round(time.Second)))
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
