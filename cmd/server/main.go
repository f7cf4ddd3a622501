// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"librarium/internal/auth"
	"librarium/internal/catalog"
	"librarium/internal/circulation"
	"librarium/internal/config"
	"librarium/internal/httpx"
	"librarium/internal/membership"
	"librarium/internal/storage"
	"librarium/internal/telemetry"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	bookRepo := catalog.NewPostgresBookRepository(db)
	categoryRepo := catalog.NewPostgresCategoryRepository(db)
	loanRepo := circulation.NewPostgresLoanRepository(db)
	reservationRepo := circulation.NewPostgresReservationRepository(db)
	userRepo := membership.NewPostgresUserRepository(db)

	var searcher catalog.Searcher
	if cfg.MeilisearchURL != "" {
		searcher = catalog.NewMeilisearchSearcher(cfg.MeilisearchURL, cfg.MeilisearchKey)
		logger.Info().Str("url", cfg.MeilisearchURL).Msg("search backend enabled")
	}

	catalogService := catalog.NewService(bookRepo, categoryRepo, searcher, logger)
	circulationService := circulation.NewService(loanRepo, reservationRepo, bookRepo, logger)
	membershipService := membership.NewService(userRepo, logger)

	catalogHandler := catalog.NewHandler(catalogService)
	circulationHandler := circulation.NewHandler(circulationService)
	membershipHandler := membership.NewHandler(membershipService, tokens)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(httpx.RequestLogger(logger))
	router.Use(auth.Authenticator(tokens))

	router.Route("/api", func(r chi.Router) {
		r.Mount("/auth", membershipHandler.AuthRoutes())
		r.Mount("/users", membershipHandler.UserRoutes())
		r.Mount("/books", catalogHandler.BookRoutes())
		r.Mount("/categories", catalogHandler.CategoryRoutes())
		r.Mount("/loans", circulationHandler.LoanRoutes())
		r.Mount("/reservations", circulationHandler.ReservationRoutes())
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to flush traces")
	}
}
