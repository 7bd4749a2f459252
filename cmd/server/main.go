package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-identity-server/exchange/redisstore"
	"github.com/jrsteele09/go-identity-server/identity"
	"github.com/jrsteele09/go-identity-server/internal/config"
	"github.com/jrsteele09/go-identity-server/provider"
	"github.com/jrsteele09/go-identity-server/server"
	"github.com/jrsteele09/go-identity-server/token"
	"github.com/jrsteele09/go-identity-server/token/refresh"
	pgrefreshrepo "github.com/jrsteele09/go-identity-server/token/refresh/repopg"
	pguserrepo "github.com/jrsteele09/go-identity-server/users/repopg"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(log zerolog.Logger) error {
	cfg := config.New()
	displayAppname(cfg.GetAppName())

	if cfg.GetTokenSigningSecret() == "" {
		return errors.New("TOKEN_SIGNING_SECRET is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
	defer func() { _ = rdb.Close() }()

	providerClient, err := provider.NewOIDCClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("provider.NewOIDCClient: %w", err)
	}

	codec := token.NewCodec(token.NewHMACSigner(cfg.GetTokenSigningSecret()), cfg.GetAccessTokenExpiry())
	refreshManager := refresh.NewManager(pgrefreshrepo.NewPostgresRepo(pool), cfg)

	identityService, err := identity.NewService(
		identity.Repos{Users: pguserrepo.NewPostgresRepo(pool)},
		codec,
		refreshManager,
		redisstore.New(rdb),
		providerClient,
		cfg,
		log,
	)
	if err != nil {
		return fmt.Errorf("identity.NewService: %w", err)
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: server.New(cfg, identityService, log)}
	go listenAndServe(httpServer, log)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server, log zerolog.Logger) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
