package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/parcelroute/parcel-server/internal/api"
	"github.com/parcelroute/parcel-server/internal/auth"
	"github.com/parcelroute/parcel-server/internal/config"
	"github.com/parcelroute/parcel-server/internal/logging"
	"github.com/parcelroute/parcel-server/internal/payments"
	"github.com/parcelroute/parcel-server/internal/store"
	"github.com/parcelroute/parcel-server/internal/telemetry"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logging.Init(cfg.Log.Level, cfg.Log.Format)
			return serve(cmd.Context(), cfg, !skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply schema migrations on start")
	return cmd
}

func serve(parent context.Context, cfg config.Config, migrate bool) error {
	// Clients send and expect amounts as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTEL.Endpoint, cfg.OTEL.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	pool, err := store.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if migrate {
		if err := store.RunMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		log.Info().Msg("migrations applied")
	}

	verifier, err := newVerifier(cfg.Identity)
	if err != nil {
		return err
	}

	var intents payments.IntentCreator
	if cfg.Stripe.SecretKey != "" {
		si, err := payments.NewStripeIntents(cfg.Stripe.SecretKey)
		if err != nil {
			return err
		}
		intents = si
	} else {
		log.Warn().Msg("stripe secret key not set; payment intents disabled")
	}

	router := api.NewRouter(api.Deps{
		Parcels:  store.NewPostgresParcelRepo(pool),
		Payments: store.NewPostgresPaymentRepo(pool),
		Users:    store.NewPostgresUserRepo(pool),
		Riders:   store.NewPostgresRiderRepo(pool),
		Finalizer: payments.NewService(pool, payments.Options{
			DistinguishAlreadyPaid: cfg.Payments.DistinguishAlreadyPaid,
		}),
		Intents:  intents,
		Verifier: verifier,
		Pinger:   pool,
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("parcel server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func newVerifier(cfg config.IdentityConfig) (auth.Verifier, error) {
	switch cfg.Mode {
	case config.IdentityModeHMAC:
		log.Warn().Msg("identity mode hmac: tokens are verified with a shared secret")
		return auth.NewHMACVerifier([]byte(cfg.HMACSecret), cfg.HMACIssuer)
	case config.IdentityModeJWKS:
		return auth.NewJWKSVerifier(auth.JWKSConfig{
			ProjectID: cfg.ProjectID,
			JWKSURL:   cfg.JWKSURL,
			KeyTTL:    cfg.KeyTTL,
			Leeway:    cfg.Leeway,
		})
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
}
