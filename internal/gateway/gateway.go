// ABOUTME: Gateway orchestrator wiring config, stores, auth, and dispatcher
// ABOUTME: Manages the HTTP server lifecycle with graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopnserve/blackboard/internal/auth"
	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/config"
	"github.com/shopnserve/blackboard/internal/dispatch"
	"github.com/shopnserve/blackboard/internal/handlers"
	"github.com/shopnserve/blackboard/internal/provenance"
	"github.com/shopnserve/blackboard/internal/shop"
)

// Gateway orchestrates the blackboard-gateway server components: the
// provenance and shop stores, the auth service, the capability registry,
// and the HTTP server in front of the dispatcher.
type Gateway struct {
	config     *config.Config
	prov       provenance.Store
	shop       *shop.Store
	identity   *auth.IdentityStore
	authSvc    *auth.Service
	dispatcher *dispatch.Dispatcher
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Gateway instance with the given configuration. All
// capability handlers are registered here; there is no dynamic handler
// discovery.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	prov, err := provenance.NewSQLiteStore(cfg.Database.ProvenancePath)
	if err != nil {
		return nil, fmt.Errorf("initializing provenance store: %w", err)
	}

	shopStore, err := shop.NewStore(cfg.Database.ShopPath)
	if err != nil {
		prov.Close()
		return nil, fmt.Errorf("initializing shop store: %w", err)
	}

	identity := auth.NewIdentityStore()
	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	authSvc := auth.NewService(identity, verifier, cfg.Auth.TokenTTL, logger)

	registry, err := capability.NewRegistry(
		handlers.NewAuthenticationHandler(authSvc, prov, logger),
		handlers.NewAuthorizationHandler(authSvc, prov, logger),
		handlers.NewProductListHandler(shopStore, prov, logger),
		handlers.NewOrderPlacedHandler(identity, shopStore, prov, logger),
	)
	if err != nil {
		prov.Close()
		shopStore.Close()
		return nil, fmt.Errorf("building capability registry: %w", err)
	}

	gw := &Gateway{
		config:     cfg,
		prov:       prov,
		shop:       shopStore,
		identity:   identity,
		authSvc:    authSvc,
		dispatcher: dispatch.New(registry, authSvc, prov, logger),
		logger:     logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)

	// Dispatch does its own gating; login/register must stay reachable
	// without a token.
	mux.HandleFunc("/dispatch", gw.handleDispatch)
	mux.HandleFunc("/auth/login", gw.handleLogin)
	mux.HandleFunc("/auth/register", gw.handleRegister)

	// Query and shop endpoints require a valid token.
	mux.HandleFunc("/dispatch/graph", gw.requireToken(gw.handleGraph))
	mux.HandleFunc("/dispatch/events", gw.requireToken(gw.handleEvents))
	mux.HandleFunc("/products", gw.requireToken(gw.handleProducts))
	mux.HandleFunc("/orders", gw.requireToken(gw.handleOrders))
	mux.HandleFunc("/orders/", gw.requireToken(gw.handleOrderRoutes))

	gw.httpServer = &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	return gw, nil
}

// SeedUser registers a user, ignoring duplicates. Used at startup to
// provision demo credentials.
func (g *Gateway) SeedUser(username, password string) error {
	err := g.identity.Put(username, password)
	if errors.Is(err, auth.ErrUserExists) {
		return nil
	}
	return err
}

// Handler returns the HTTP handler, for tests that drive the API without
// a listener.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "provenance store close", g.prov.Close())
	errs = appendCloseError(errs, "shop store close", g.shop.Close())

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	g.logger.Info("gateway shutdown complete")
	return nil
}

// appendCloseError wraps and collects a shutdown error when non-nil.
func appendCloseError(errs []error, op string, err error) []error {
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", op, err))
	}
	return errs
}
