package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health", "/metrics"},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		MaxAge:       12 * time.Hour,
	}
	if len(corsOrigins) > 0 {
		corsConfig.AllowOrigins = corsOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Published channel feeds
	r.GET("/feeds/:channel", handler.GetChannelFeed)

	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API endpoints require authentication")
	} else {
		slog.Warn("API endpoints are open (API_ACCESS_KEY not set)")
	}
	{
		api.GET("/channels", handler.ListChannels)
		api.GET("/content-types", handler.ListContentTypes)

		api.POST("/contents", handler.CreateContent)
		api.GET("/contents", handler.ListContents)
		api.GET("/contents/:id", handler.GetContent)
		api.PATCH("/contents/:id/status", handler.UpdateStatus)
		api.POST("/contents/:id/generate", handler.GenerateContent)
		api.GET("/contents/:id/channels", handler.ListChannelContents)
		api.PUT("/contents/:id/channels/:channel", handler.EditChannelContent)

		api.POST("/generate", handler.Generate)
		api.POST("/review", handler.Review)
		api.POST("/autofix", handler.AutoFix)
		api.POST("/import/url", handler.ImportURL)
		api.GET("/sources", handler.ListSources)
		api.POST("/sources/:name/import", handler.ImportSource)

		api.GET("/edits", handler.ListEdits)
		api.GET("/usage", handler.GetUsage)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "BRITZMEDI Contents Ops",
			"version":     handler.version,
			"description": "Repurposes press releases and other sources into channel drafts with review and auto-fix",
			"endpoints": map[string]string{
				"feed":     "/feeds/<channel>",
				"health":   "/health",
				"metrics":  "/metrics",
				"channels": "/api/channels",
				"contents": "/api/contents",
				"generate": "/api/generate (POST)",
				"review":   "/api/review (POST)",
				"autofix":  "/api/autofix (POST)",
				"usage":    "/api/usage",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware accepts the key in X-API-Key or as a Bearer token.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiAccessKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			return
		}

		c.Next()
	}
}
