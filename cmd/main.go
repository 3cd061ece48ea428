package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myvetstudy/internal/config"
	"myvetstudy/internal/domain"
	"myvetstudy/internal/metrics"
	"myvetstudy/internal/middleware"
	"myvetstudy/internal/permissions"
	"myvetstudy/internal/repository"
	"myvetstudy/internal/services"
	grpcserver "myvetstudy/internal/transport/grpc"
	httpserver "myvetstudy/internal/transport/http"
	"myvetstudy/internal/utils/blacklist"
	authmw "myvetstudy/internal/utils/middleware"
	"myvetstudy/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitLogger(logger.Options{
		Filename: cfg.Log.File,
		Level:    cfg.Log.Level,
		Stdout:   cfg.Log.Stdout,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Logger.Sync()

	ctx := context.Background()

	tp, err := middleware.InitTracer(ctx, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName, cfg.Env)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Logger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		logger.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	model := permissions.Default()
	bl := blacklist.NewRedisBlacklist(redisClient, blacklist.UserBlackList, blacklist.TokenBlackList)
	userRepo := repository.NewUserRepository(db)
	staff := services.NewStaffService(userRepo, bl, model, cfg.Auth.SecretKey, cfg.Auth.TokenTTL)

	if cfg.Bootstrap.Email != "" {
		if err := staff.Bootstrap(ctx, cfg.Bootstrap.Email, cfg.Bootstrap.Password, cfg.Bootstrap.PracticeID); err != nil {
			logger.Logger.Fatal("Failed to bootstrap practice manager", zap.Error(err))
		}
	}

	serverErrors := make(chan error, 4)

	healthSrv := health.NewServer()
	publicSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.TracingInterceptor))
	grpcserver.RegisterPublicService(publicSrv, grpcserver.NewPublicUserServiceServer(staff, bl, cfg.Auth.SecretKey))
	healthpb.RegisterHealthServer(publicSrv, healthSrv)
	reflection.Register(publicSrv)

	internalSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.TracingInterceptor,
		authmw.BlacklistMiddleware(cfg.Auth.SecretKey, bl),
		authmw.RoleRequiredMiddleware(model, grpcserver.Policy()),
		middleware.IdempotencyInterceptor(middleware.NewRedisCache(redisClient, "idempotency:"), grpcserver.IdempotentMethods()),
	))
	grpcserver.RegisterPermissionService(internalSrv, grpcserver.NewInternalUserServiceServer(model, staff))
	reflection.Register(internalSrv)

	serveGRPC(publicSrv, cfg.Server.PublicGRPCAddr, "public", serverErrors)
	serveGRPC(internalSrv, cfg.Server.InternalGRPCAddr, "internal", serverErrors)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	restHandler, err := httpserver.NewHandler(model, staff, httpserver.Options{
		SecretKey:      cfg.Auth.SecretKey,
		Blacklist:      bl,
		Guard:          authmw.GuardOptions{RedirectURL: cfg.Server.GuardRedirectURL},
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to build REST handler", zap.Error(err))
	}
	restSrv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: restHandler}
	serveHTTP(restSrv, "rest", serverErrors)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux}
	serveHTTP(metricsSrv, "metrics", serverErrors)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Logger.Error("Server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Logger.Info("Received signal", zap.String("signal", sig.String()))
	}

	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for name, srv := range map[string]*http.Server{"rest": restSrv, "metrics": metricsSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("HTTP shutdown failed", zap.String("server", name), zap.Error(err))
		}
	}
	stopGRPC(shutdownCtx, publicSrv)
	stopGRPC(shutdownCtx, internalSrv)

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Logger.Info("Shutdown complete")
}

func serveGRPC(srv *grpc.Server, addr, name string, errs chan<- error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Logger.Fatal("Failed to listen", zap.String("server", name), zap.String("addr", addr), zap.Error(err))
	}
	go func() {
		logger.Logger.Info("gRPC server listening", zap.String("server", name), zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil {
			errs <- err
		}
	}()
}

func serveHTTP(srv *http.Server, name string, errs chan<- error) {
	go func() {
		logger.Logger.Info("HTTP server listening", zap.String("server", name), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

func stopGRPC(ctx context.Context, srv *grpc.Server) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Logger.Warn("Shutdown timeout exceeded, forcing stop")
		srv.Stop()
	}
}
