// Package api implements the HTTP surface of the license back office:
// the JSON admin API, the public device activation endpoints and the
// WebSocket feed for the admin console.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"license-backoffice/internal/auth"
	"license-backoffice/internal/database"
	"license-backoffice/internal/events"
	"license-backoffice/internal/logging"
	"license-backoffice/internal/renewal"
	"license-backoffice/internal/vault"
)

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	repo        *database.Repository
	eventBus    *events.EventBus
	config      ServerConfig
	authService *auth.Service
	authEnabled bool
	vaultClient *vault.Client
	scheduler   *renewal.Scheduler
	log         *logging.Logger
	startedAt   time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ProductionMode  bool
	StaticFilesPath string
	AllowedOrigins  []string
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	repo *database.Repository,
	eventBus *events.EventBus,
	authService *auth.Service, // Can be nil if auth is disabled
	vaultClient *vault.Client, // Can be nil if vault is disabled
	scheduler *renewal.Scheduler,
) *Server {
	// Set Gin mode
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8090"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		repo:        repo,
		eventBus:    eventBus,
		config:      config,
		authService: authService,
		authEnabled: authService != nil,
		vaultClient: vaultClient,
		scheduler:   scheduler,
		log:         logging.WithComponent("api"),
		startedAt:   time.Now(),
	}

	server.setupRoutes()

	// WebSocket hub for real-time event broadcasting to the console
	InitWebSocket(eventBus)

	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Auth routes (public, no authentication required)
	if s.authEnabled {
		s.router.POST("/api/auth/login", s.handleLogin)
	}

	// Auth status endpoint (always available, returns whether auth is enabled)
	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"auth_enabled": s.authEnabled,
		})
	})

	// Public endpoints used by the licensed client software. The license key
	// itself is the credential here.
	public := s.router.Group("/api/public")
	{
		public.POST("/licenses/validate", s.handleValidateLicense)
		public.POST("/devices/register", s.handleRegisterDevice)
	}

	// API routes (protected when auth is enabled)
	api := s.router.Group("/api")

	if s.authEnabled {
		api.Use(auth.Middleware(s.authService.JWT()))
	}

	{
		api.GET("/auth/me", s.handleMe)
		api.POST("/auth/change-password", s.handleChangePassword)

		// Company endpoints
		api.GET("/companies", s.handleListCompanies)
		api.POST("/companies", s.handleCreateCompany)
		api.GET("/companies/:id", s.handleGetCompany)
		api.PUT("/companies/:id", s.handleUpdateCompany)
		api.DELETE("/companies/:id", s.handleDeleteCompany)
		api.POST("/companies/:id/wallet/credit", s.handleCreditWallet)

		// Client endpoints
		api.GET("/clients", s.handleListClients)
		api.POST("/clients", s.handleCreateClient)
		api.GET("/clients/:id", s.handleGetClient)
		api.PUT("/clients/:id", s.handleUpdateClient)
		api.DELETE("/clients/:id", s.handleDeleteClient)

		// Product endpoints
		api.GET("/products", s.handleListProducts)
		api.POST("/products", s.handleCreateProduct)
		api.GET("/products/:id", s.handleGetProduct)
		api.PUT("/products/:id", s.handleUpdateProduct)
		api.DELETE("/products/:id", s.handleDeleteProduct)

		// License endpoints
		api.GET("/licenses", s.handleListLicenses)
		api.POST("/licenses", s.handleCreateLicense)
		api.GET("/licenses/types", s.handleListLicenseTypes)
		api.GET("/licenses/by-key/:key", s.handleGetLicenseByKey)
		api.GET("/licenses/:id", s.handleGetLicense)
		api.PUT("/licenses/:id", s.handleUpdateLicense)
		api.DELETE("/licenses/:id", s.handleDeleteLicense)
		api.POST("/licenses/:id/activate", s.handleActivateLicense)
		api.GET("/licenses/:id/devices", s.handleListLicenseDevices)
		api.DELETE("/licenses/:id/devices/:deviceId", s.handleDeleteDevice)

		// Transaction endpoints
		api.GET("/transactions", s.handleListTransactions)
		api.GET("/transactions/:id", s.handleGetTransaction)
		api.PUT("/transactions/:id/status", s.handleUpdateTransactionStatus)

		// Renewal scheduler endpoints
		api.POST("/renewals/run", s.handleRunRenewals)
		api.GET("/renewals/status", s.handleRenewalStatus)
		api.GET("/renewals/preview", s.handlePreviewExpiry)

		// Dashboard
		api.GET("/stats", s.handleStats)
	}

	// WebSocket endpoint for the admin console
	s.router.GET("/ws", s.handleWebSocket)

	// Serve static files (React admin console build) in production
	if s.config.StaticFilesPath != "" {
		s.router.Static("/assets", s.config.StaticFilesPath+"/assets")
		s.router.StaticFile("/", s.config.StaticFilesPath+"/index.html")

		s.router.NoRoute(func(c *gin.Context) {
			// Unmatched API paths get JSON 404s; everything else falls back to
			// index.html for client-side routing.
			if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
				c.JSON(http.StatusNotFound, gin.H{
					"error":  "API endpoint not found",
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
				return
			}
			c.File(s.config.StaticFilesPath + "/index.html")
		})
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("Starting HTTP server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// pagedResponse is a helper to send paginated list responses
func pagedResponse(c *gin.Context, items interface{}, total, limit, offset int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// getPagination reads limit/offset query parameters with sane bounds
func getPagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
