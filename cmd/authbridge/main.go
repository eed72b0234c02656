// Command authbridge runs the session bridge: it mounts the auth module
// under its base path, proxies everything else to the upstream provider, and
// exposes liveness/readiness probes.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	modauth "github.com/dmitrymomot/authbridge/modules/auth"
	"github.com/dmitrymomot/authbridge/pkg/challenge"
	"github.com/dmitrymomot/authbridge/pkg/clientip"
	"github.com/dmitrymomot/authbridge/pkg/config"
	"github.com/dmitrymomot/authbridge/pkg/identity"
	"github.com/dmitrymomot/authbridge/pkg/logger"
	"github.com/dmitrymomot/authbridge/pkg/mongo"
	"github.com/dmitrymomot/authbridge/pkg/ratelimit"
	"github.com/dmitrymomot/authbridge/pkg/redis"
	"github.com/dmitrymomot/authbridge/provider"
	authsvc "github.com/dmitrymomot/authbridge/svc/auth"
)

type serverConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg)

	if err := run(ctx, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		srvCfg   serverConfig
		authCfg  authsvc.Config
		mongoCfg mongo.Config
		redisCfg redis.Config
	)
	config.MustLoad(&srvCfg)
	config.MustLoad(&authCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&redisCfg)

	db, err := mongo.ConnectDatabase(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	// Redis only backs rate-limit counters; fall back to per-process
	// counters when it is unreachable.
	var limitStore ratelimit.Store
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Warn("redis unavailable, using in-memory rate limit store", "error", err)
		limitStore = ratelimit.NewMemoryStore()
	} else {
		defer func() { _ = redisClient.Close() }()
		limitStore = ratelimit.NewRedisStore(redisClient)
	}

	limiter, err := ratelimit.New(limitStore, authCfg.RateLimit)
	if err != nil {
		return err
	}

	challengeStore, err := challenge.NewMongoStore(ctx, db)
	if err != nil {
		return err
	}
	challenges := challenge.NewService(challengeStore, challenge.WithLogger(log))

	mapper := identity.NewMapper(identity.NewMongoStore(db), identity.WithLogger(log))

	var client provider.Client
	if authCfg.ProviderURL != "" {
		client, err = provider.NewHTTPClient(authCfg.ProviderURL, provider.Features{
			TwoFactor: authCfg.TwoFactor.Enabled(),
			Passkey:   authCfg.Passkey.Enabled(),
		})
		if err != nil {
			return err
		}
	} else {
		log.Warn("no provider url configured, auth module disabled")
	}

	svc := authsvc.New(client, authCfg,
		authsvc.WithDatabase(db),
		authsvc.WithMapper(mapper),
		authsvc.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(clientip.Middleware)
	// Session resolution runs on every path so principals are visible outside
	// the auth surface too; the auth router's own copy is a no-op after this
	// one (first-writer-wins).
	r.Use(svc.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := mongo.Healthcheck(db.Client())(req.Context()); err != nil {
			http.Error(w, "database not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Mount("/", modauth.Router(modauth.Deps{
		Service:    svc,
		Challenges: challenges,
		Limiter:    limiter,
		Logger:     log,
	}))

	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srvCfg.Addr, "base_path", authCfg.BasePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("server stopped")
	return nil
}
