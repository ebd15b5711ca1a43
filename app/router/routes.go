// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/amirphl/filterkit/app/dto"
	"github.com/amirphl/filterkit/app/handlers"
	"github.com/amirphl/filterkit/app/middleware"
	"github.com/amirphl/filterkit/config"
	"github.com/amirphl/filterkit/docs"
	"github.com/amirphl/filterkit/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

const healthPath = "/api/v1/health"

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Options wires the router to its handlers and collectors
type Options struct {
	Server     config.ServerConfig
	Metrics    config.MetricsConfig
	Deployment config.DeploymentConfig
	Logger     zerolog.Logger
	// Registry receives the HTTP collectors and is served on the metrics path
	Registry *prometheus.Registry
	// HealthChecks are run by the health route, keyed by dependency name
	HealthChecks map[string]HealthCheck
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app             *fiber.App
	campaignHandler handlers.CampaignHandlerInterface
	opts            Options
	logger          zerolog.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(campaignHandler handlers.CampaignHandlerInterface, opts Options) Router {
	bodyLimit := opts.Server.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 4 * 1024 * 1024 // 4MB
	}

	// Configure Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Filterkit Campaign API",
		ServerHeader: "Filterkit",
		ErrorHandler: errorHandler(opts.Logger),
		BodyLimit:    bodyLimit,
		ReadTimeout:  opts.Server.ReadTimeout,
		WriteTimeout: opts.Server.WriteTimeout,
		IdleTimeout:  opts.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		TrustProxy:   len(opts.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: opts.Server.TrustedProxies,
		},
		ProxyHeader: opts.Server.ProxyHeader,
	})

	return &FiberRouter{
		app:             app,
		campaignHandler: campaignHandler,
		opts:            opts,
		logger:          opts.Logger,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.logger.Info().Msg("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	if r.opts.Metrics.Enabled && r.opts.Registry != nil {
		path := r.opts.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(r.opts.Registry, promhttp.HandlerOpts{})))
	}

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// API documentation route (development only)
	env := r.opts.Deployment.Environment
	if env == "development" || env == "local" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		r.logger.Info().Msg("API documentation enabled for development")
	}

	// Apply general rate limiting to all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == healthPath
		},
	}))

	// Exports hold a whole result set in memory, so they get a stricter budget
	campaigns := api.Group("/campaigns")
	campaigns.Get("/", r.campaignHandler.ListCampaigns)
	campaigns.Get("/filters", r.campaignHandler.FilterForm)
	campaigns.Get("/export", limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many exports. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}), r.campaignHandler.ExportCampaigns)
	campaigns.Get("/:uuid", r.campaignHandler.GetCampaign)

	r.app.Use(r.notFoundHandler)

	r.logger.Info().Msg("Routes configured successfully")
}

func (r *FiberRouter) setupMiddleware() {
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error().
				Str("request_id", requestid.FromContext(c)).
				Interface("error", e).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Str("ip", c.IP()).
				Msg("Panic recovered")
		},
	}))

	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 86400,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// XLSX is already a zip archive
			return strings.HasSuffix(c.Path(), "/export")
		},
	}))

	if r.opts.Registry != nil {
		r.app.Use(middleware.NewHTTPMetrics(r.opts.Registry).Handler())
	}

	r.app.Use(middleware.RequestLogger(r.logger, healthPath))
}

func (r *FiberRouter) Start(address string) error {
	r.logger.Info().Str("address", address).Msg("Starting server")
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(r.opts.HealthChecks))
	healthy := true
	for name, check := range r.opts.HealthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status, message, state := fiber.StatusOK, "Service is healthy", "ok"
	if !healthy {
		status, message, state = fiber.StatusServiceUnavailable, "Service is degraded", "degraded"
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: healthy,
		Message: message,
		Data: fiber.Map{
			"status":    state,
			"checks":    checks,
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.opts.Deployment.Version,
			"service":   "filterkit-api",
		},
	})
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	htmlContent := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Filterkit Campaign API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true
            });
        };
    </script>
</body>
</html>`

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(htmlContent)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

// Global error handler
func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		// Default error code
		code := fiber.StatusInternalServerError
		message := "An internal server error occurred"
		errorCode := "INTERNAL_ERROR"

		// Retrieve the custom status code if it's a fiber.*Error
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			if code < fiber.StatusInternalServerError {
				message = e.Message
				errorCode = "REQUEST_ERROR"
			}
		}

		logger.Error().Err(err).Int("status", code).Str("path", c.Path()).Msg("Request failed")

		return c.Status(code).JSON(dto.APIResponse{
			Success: false,
			Message: message,
			Error: dto.ErrorDetail{
				Code: errorCode,
				Details: fiber.Map{
					"timestamp":  utils.UTCNow().Unix(),
					"request_id": requestid.FromContext(c),
				},
			},
		})
	}
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
