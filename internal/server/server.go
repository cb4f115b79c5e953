// Package server exposes the claim store over HTTP.
package server

import (
	"log"
	"net/http"

	"github.com/kylejryan/vehicle-claims-api/internal/api"
	"github.com/kylejryan/vehicle-claims-api/internal/claims"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Store  *claims.Store
	Logger *log.Logger

	// AllowedOrigins lists the origins accepted for cross-origin requests.
	// Empty, or any entry equal to "*", allows every origin.
	AllowedOrigins []string
}

// New builds the gin engine serving /ping and the /api/claims routes.
func New(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = log.Default()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Middlewares (outermost -> innermost)
	r.Use(
		RequestID(),
		Logging(d.Logger),
		gin.CustomRecoveryWithWriter(d.Logger.Writer(), func(c *gin.Context, _ any) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.MessageResponse{Message: "internal server error"})
		}),
		cors.New(corsConfig(d.AllowedOrigins)),
	)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.MessageResponse{Message: "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, api.MessageResponse{Message: "method not allowed"})
	})

	h := &handlers{store: d.Store, logger: d.Logger}

	r.GET("/ping", h.ping)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/claims", h.createClaim)
		apiGroup.GET("/claims", h.listClaims)
		apiGroup.GET("/claims/:id", h.getClaim)
		apiGroup.PUT("/claims/:id", h.updateClaim)
		apiGroup.DELETE("/claims/:id", h.deleteClaim)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader, "Location"}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
