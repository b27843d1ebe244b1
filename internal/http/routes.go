package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const sweepInterval = 10 * time.Minute

type RouteOptions struct {
	CORSOrigin  string
	SubmitEvery time.Duration
	// Context bounds the limiter sweeper; nil disables sweeping.
	Context     context.Context
}

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, env *Env, opts RouteOptions) {
	// --- Middleware ---
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(env.Log))
	router.Use(RecoveryMiddleware(env.Log))
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := opts.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{corsOrigin},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
	}))

	// --- Rate Limiter Setup ---
	every := opts.SubmitEvery
	if every <= 0 {
		every = 3 * time.Second
	}
	limiter := NewIPRateLimiter(rate.Every(every), 1)
	if opts.Context != nil {
		go func() {
			t := time.NewTicker(sweepInterval)
			defer t.Stop()
			for {
				select {
				case <-opts.Context.Done():
					return
				case <-t.C:
					limiter.Sweep(sweepInterval)
				}
			}
		}()
	}

	// --- API Routes ---
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := router.Group("/api")
	{
		api.Any("/questions", SubmitRateLimit(limiter), env.HandleQuestions)
	}

	// Any only covers the standard verbs; the rest land here.
	router.HandleMethodNotAllowed = true
	router.NoMethod(methodNotAllowed)
}
