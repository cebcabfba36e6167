package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/auth"
	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/Digital-Creators-Team/lottery-engine-module/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// App represents the lottery service application
type App struct {
	engine         *gin.Engine
	config         *config.Config
	logger         zerolog.Logger
	lottery        *lottery.Engine
	httpServer     *http.Server
	onShutdown     []func()
	lotteryHandler *LotteryHandler
	adminHandler   *AdminHandler
	streamHandler  *StreamHandler
	history        HistoryProvider
}

// Options holds server configuration options
type Options struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Engine  *lottery.Engine
	History HistoryProvider
}

// Router is an alias for gin.Engine for convenience
type Router = gin.Engine

// New creates a new lottery service application
func New(opts Options) *App {
	// Configure decimal.Decimal to marshal as JSON number instead of string
	// WARNING: This may cause precision loss for decimals with many digits when
	// unmarshaled by clients using IEEE 754 double-precision (e.g., JavaScript)
	decimal.MarshalJSONWithoutQuotes = true

	// Set Gin mode
	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	app := &App{
		engine:  engine,
		config:  opts.Config,
		logger:  opts.Logger,
		lottery: opts.Engine,
		history: opts.History,
	}

	svc := NewLotteryService(opts.Engine, opts.History, opts.Logger)

	app.lotteryHandler = NewLotteryHandler(app, svc)
	app.adminHandler = NewAdminHandler(app)
	app.streamHandler = NewStreamHandler(app)

	return app
}

// UseCommonMiddlewares adds common middlewares to the application
func (a *App) UseCommonMiddlewares() {
	// Recovery middleware (must be first)
	a.engine.Use(middleware.Recovery(a.logger))

	// Trace ID middleware
	a.engine.Use(middleware.TraceID())

	// Logging middleware
	a.engine.Use(middleware.Logging(a.logger))

	// CORS middleware if enabled
	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// UseMiddleware adds a custom middleware
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// Engine returns the lottery engine
func (a *App) Engine() *lottery.Engine {
	return a.lottery
}

// RegisterHealthCheck adds health check endpoints
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   a.config.Environment,
	})
}

// RegisterLotteryRoutes registers the lottery API routes.
//
// Flow: HTTP Request -> lotteryRoutes -> LotteryHandler -> LotteryService -> Engine
//
// Routes registered:
//   - GET  /api/lottery/state              -> LotteryHandler.GetState
//   - GET  /api/lottery/participants       -> LotteryHandler.ListParticipants
//   - GET  /api/lottery/participants/me    -> LotteryHandler.GetMyEntry
//   - POST /api/lottery/enter              -> LotteryHandler.Enter
//   - POST /api/lottery/update-entry       -> LotteryHandler.UpdateEntry
//   - GET  /api/lottery/history            -> LotteryHandler.GetHistory
//   - GET  /api/lottery/updates            -> StreamHandler.StreamUpdates (SSE)
//   - GET  /api/lottery/updates/ws         -> StreamHandler.StreamUpdatesWebSocket (WebSocket)
//
// Admin routes (JWT + admin wallet check):
//   - POST /api/lottery/admin/snapshot     -> AdminHandler.TakeSnapshot
//   - POST /api/lottery/admin/winners      -> AdminHandler.SetWinners
//   - POST /api/lottery/admin/payout       -> AdminHandler.Payout
//   - POST /api/lottery/admin/timing       -> AdminHandler.ConfigureTiming
//   - POST /api/lottery/admin/pause        -> AdminHandler.Pause
//   - POST /api/lottery/admin/resume       -> AdminHandler.Resume
//   - POST /api/lottery/admin/fund         -> AdminHandler.FundJackpot
//   - POST /api/lottery/admin/fees         -> AdminHandler.RecordFees
func (a *App) RegisterLotteryRoutes() {
	api := a.engine.Group("/api/lottery")

	// Public round data. No auth so the site widget can poll it.
	api.GET("/state", a.lotteryHandler.GetState)
	api.GET("/history", a.lotteryHandler.GetHistory)
	api.GET("/updates", a.streamHandler.StreamUpdates)
	api.GET("/updates/ws", a.streamHandler.StreamUpdatesWebSocket)

	authed := api.Group("")
	authed.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	{
		authed.GET("/participants", a.lotteryHandler.ListParticipants)
		authed.GET("/participants/me", a.lotteryHandler.GetMyEntry)
		authed.POST("/enter", a.lotteryHandler.Enter)
		authed.POST("/update-entry", a.lotteryHandler.UpdateEntry)
	}

	admin := api.Group("/admin")
	admin.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	admin.Use(auth.AdminOnly(a.config.Lottery.AdminWallet, a.logger))
	{
		admin.POST("/snapshot", a.adminHandler.TakeSnapshot)
		admin.POST("/winners", a.adminHandler.SetWinners)
		admin.POST("/payout", a.adminHandler.Payout)
		admin.POST("/timing", a.adminHandler.ConfigureTiming)
		admin.POST("/pause", a.adminHandler.Pause)
		admin.POST("/resume", a.adminHandler.Resume)
		admin.POST("/fund", a.adminHandler.FundJackpot)
		admin.POST("/fees", a.adminHandler.RecordFees)
	}

	a.logger.Info().Msg("Lottery routes registered: /api/lottery")
}

// Router returns the Gin engine for custom route registration
func (a *App) Router() *gin.Engine {
	return a.engine
}

// Group creates a route group
func (a *App) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return a.engine.Group(path, handlers...)
}

// AuthGroup creates a route group with JWT authentication
func (a *App) AuthGroup(path string) *gin.RouterGroup {
	return a.engine.Group(path, auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
}

// RegisterRoutes registers custom routes using a callback
func (a *App) RegisterRoutes(fn func(*gin.Engine)) {
	fn(a.engine)
}

// OnShutdown registers a function to be called on shutdown
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server
func (a *App) Run() error {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	return a.waitForShutdown()
}

// RunWithContext starts the HTTP server with context
func (a *App) RunWithContext(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Call registered shutdown handlers
	for _, fn := range a.onShutdown {
		fn()
	}

	// Shutdown HTTP server
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger
func (a *App) Logger() zerolog.Logger {
	return a.logger
}

// LotteryHandler returns the built-in lottery handler
func (a *App) LotteryHandler() *LotteryHandler {
	return a.lotteryHandler
}
