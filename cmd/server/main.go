package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Nishi-Taiga/F-education-sub002/internal/config"
	"github.com/Nishi-Taiga/F-education-sub002/internal/db"
	gatewaygrpc "github.com/Nishi-Taiga/F-education-sub002/internal/grpc"
	"github.com/Nishi-Taiga/F-education-sub002/internal/guard"
	internalhttp "github.com/Nishi-Taiga/F-education-sub002/internal/http"
	"github.com/Nishi-Taiga/F-education-sub002/internal/jobs"
	"github.com/Nishi-Taiga/F-education-sub002/internal/repository"
	"github.com/Nishi-Taiga/F-education-sub002/internal/routes"
	"github.com/Nishi-Taiga/F-education-sub002/internal/session"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()
	store := repository.NewStore(pool)

	checks := []jobs.Check{{Name: "postgres", Ping: store.Ping}}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		checks = append(checks, jobs.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	} else {
		log.Printf("REDIS_ADDR not set: sign-out will only clear cookies")
	}
	denylist := session.NewDenylist(redisClient)

	authClient := session.NewClient(cfg.AuthURL, cfg.AuthAPIKey, nil)
	var resolver session.Resolver
	switch cfg.SessionMode {
	case config.SessionModeRemote:
		resolver = session.NewRemoteResolver(authClient, cfg.AccessTokenCookie, denylist)
	case config.SessionModeJWT:
		resolver = session.NewTokenResolver(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenCookie, denylist)
	default:
		log.Fatalf("unknown SESSION_MODE %q", cfg.SessionMode)
	}

	routeGuard := guard.New(resolver, store, guard.Options{
		Engine:         guard.Engine{DashboardPath: cfg.DashboardPath, ProfileSetupPath: cfg.ProfileSetupPath},
		Matcher:        routes.NewMatcher(cfg.MatcherExcludes),
		SessionTimeout: cfg.SessionTimeout,
		LookupTimeout:  cfg.ProfileLookupTimeout,
		Metrics:        guard.NewMetrics(prometheus.DefaultRegisterer),
	})

	server, err := internalhttp.NewServer(cfg, routeGuard, authClient, store, denylist)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer, healthServer := gatewaygrpc.NewServer()
	jobs.StartHealthProbeJob(ctx, cfg, healthServer, checks...)

	go func() {
		log.Printf("gateway http listening on %s (upstream %s, session mode %s)", cfg.HTTPAddr, cfg.UpstreamURL, cfg.SessionMode)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	go func() {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen error: %v", err)
		}
		log.Printf("gateway grpc health listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("grpc server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthServer.SetServing(false)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	grpcServer.GracefulStop()
}
