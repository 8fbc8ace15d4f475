package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lodge/pkg/config"
	"lodge/pkg/contracts"
	apperrors "lodge/pkg/errors"
	httputil "lodge/pkg/http"
	"lodge/pkg/middleware"
	"lodge/pkg/ratelimit"

	"github.com/julienschmidt/httprouter"
)

type shutdownHook struct {
	name string
	fn   func() error
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	generalLimiter   ratelimit.Store
	bookingLimiter   ratelimit.Store
	idempotencyStore middleware.IdempotencyStore
	appHttpHandler   http.Handler
	shutdownHooks    []shutdownHook
}

// NewApplication prepares the shared request guards: both rate limiters and
// the idempotency cache, backed by Redis when RATE_LIMIT_BACKEND=redis.
func NewApplication(cfg *config.Config) *Application {
	a := &Application{cfg: cfg}

	general := ratelimit.Config{
		Limit:  cfg.RateLimitRequests,
		Window: cfg.RateLimitWindow,
		Prefix: "general",
	}
	booking := ratelimit.Config{
		Limit:  cfg.BookingRateLimitRequests,
		Window: cfg.BookingRateLimitWindow,
		Prefix: "booking",
	}

	var err error
	switch cfg.RateLimitBackend {
	case ratelimit.BackendRedis:
		if cfg.Client.Redis == nil {
			cfg.SetRedis()
		}
		if a.generalLimiter, err = ratelimit.NewRedisStore(cfg.Client.Redis, general); err != nil {
			cfg.Log.Fatal("Failed to create rate limiter", "limiter", general.Prefix, "error", err)
		}
		if a.bookingLimiter, err = ratelimit.NewRedisStore(cfg.Client.Redis, booking); err != nil {
			cfg.Log.Fatal("Failed to create rate limiter", "limiter", booking.Prefix, "error", err)
		}
		a.idempotencyStore = middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL)
	default:
		if a.generalLimiter, err = ratelimit.NewMemoryStore(general); err != nil {
			cfg.Log.Fatal("Failed to create rate limiter", "limiter", general.Prefix, "error", err)
		}
		if a.bookingLimiter, err = ratelimit.NewMemoryStore(booking); err != nil {
			cfg.Log.Fatal("Failed to create rate limiter", "limiter", booking.Prefix, "error", err)
		}
		a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	}

	cfg.Log.Info("Request guards configured", "backend", cfg.RateLimitBackend)
	return a
}

// BookingRouteMiddleware is the extra protection for the booking endpoint,
// outermost first.
func (a *Application) BookingRouteMiddleware() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RateLimit(a.bookingLimiter, middleware.RateLimitOptions{
			Message: middleware.BookingRateLimitMessage,
		}, a.cfg.Log),
		middleware.Idempotency(a.idempotencyStore, a.cfg.Log),
	}
}

// OnShutdown registers fn to run after the server has stopped accepting requests.
func (a *Application) OnShutdown(name string, fn func() error) {
	a.shutdownHooks = append(a.shutdownHooks, shutdownHook{name: name, fn: fn})
}

func (a *Application) SetApp(handlers ...contracts.Handler) {
	a.setAppHandler(handlers)
	a.setAppServer()
}

// Handler is the fully wrapped HTTP handler. Valid after SetApp.
func (a *Application) Handler() http.Handler {
	return a.appHttpHandler
}

// ResetRateLimits clears both limiters for key (a client IP).
func (a *Application) ResetRateLimits(ctx context.Context, key string) error {
	return errors.Join(
		a.generalLimiter.Reset(ctx, key),
		a.bookingLimiter.Reset(ctx, key),
	)
}

func (a *Application) setAppHandler(handlers []contracts.Handler) {
	cfg := a.cfg

	appRouter := httprouter.New()
	appRouter.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.WriteError(w, apperrors.NotFound("Not found"))
	})
	appRouter.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.WriteError(w, apperrors.MethodNotAllowed("Method not allowed"))
	})
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.RequestTimeout(cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.generalLimiter, middleware.RateLimitOptions{}, cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.CORS(cfg.AllowedOrigins)(appHttpHandler)
	appHttpHandler = middleware.OriginAllowList(cfg.AllowedOrigins, cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.SecureHeaders(cfg.IsDevelopment())(appHttpHandler)
	appHttpHandler = middleware.Recovery(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.ClientIP(cfg.TrustProxyHops)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setAppServer() {
	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.appHttpHandler,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.Close(ctx)
	a.cfg.Log.Info("Server stopped gracefully")
}

// Close stops background workers, runs shutdown hooks and disconnects the
// shared clients.
func (a *Application) Close(ctx context.Context) {
	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	if err := a.generalLimiter.Close(); err != nil {
		a.cfg.Log.Error("Failed to stop rate limiter", "limiter", "general", "error", err)
	}
	if err := a.bookingLimiter.Close(); err != nil {
		a.cfg.Log.Error("Failed to stop rate limiter", "limiter", "booking", "error", err)
	}

	for _, hook := range a.shutdownHooks {
		if err := hook.fn(); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "hook", hook.name, "error", err)
		}
	}

	a.cfg.GracefulShutdown(ctx)
	a.cfg.Log.Info("Background workers stopped")
}
