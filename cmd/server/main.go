package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/sarismart-cart/internal/adapter/events"
	"github.com/rl1809/sarismart-cart/internal/adapter/handler"
	"github.com/rl1809/sarismart-cart/internal/adapter/idgen"
	"github.com/rl1809/sarismart-cart/internal/adapter/remote"
	"github.com/rl1809/sarismart-cart/internal/adapter/storage"
	"github.com/rl1809/sarismart-cart/internal/config"
	"github.com/rl1809/sarismart-cart/internal/core/service"
	"github.com/rl1809/sarismart-cart/internal/logger"
	"github.com/rl1809/sarismart-cart/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New("sarismart-cart", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close failed", zap.Error(err))
			}
		}
		log.Info("connections closed")
	}()

	ids := idgen.UUID{}

	// Cart store
	var store port.CartStore
	switch cfg.CartStore {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		closers = append(closers, rdb.Close)
		store = storage.NewRedisStore(rdb, ids, cfg.RedisPrefix)
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	default:
		store = storage.NewMemoryStore(ids)
		log.Info("using in-memory cart store")
	}

	// Product backend
	var products port.ProductService
	switch cfg.ProductBackend {
	case config.ProductsMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal("failed to open mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping mysql", zap.Error(err))
		}
		closers = append(closers, db.Close)
		if err := storage.Migrate(db); err != nil {
			log.Fatal("failed to migrate mysql", zap.Error(err))
		}
		products = storage.NewMySQLProductStore(db, ids)
		log.Info("connected to mysql")
	default:
		products = remote.NewProductClient(cfg.ProductAPIURL, cfg.ProductTimeout, remote.WithClientLogger(log))
		log.Info("using remote product api", zap.String("url", cfg.ProductAPIURL))
	}

	policy, err := service.ParseMissingProductPolicy(cfg.MissingProductPolicy)
	if err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMissingProductPolicy(policy),
		service.WithCompensation(cfg.CheckoutCompensate),
		service.WithStockGuard(cfg.CheckoutStockGuard),
		service.WithRefreshInterval(cfg.ItemsRefreshInterval),
	}

	// Optional event publishing
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		closers = append(closers, conn.Close)
		publisher, err := events.NewPublisher(conn, log)
		if err != nil {
			log.Fatal("failed to create publisher", zap.Error(err))
		}
		closers = append(closers, publisher.Close)
		opts = append(opts, service.WithPublisher(publisher))
		log.Info("publishing checkout events", zap.String("exchange", events.EventsExchange))
	}

	cartService := service.NewCartService(store, products, opts...)

	// gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterCartServiceServer(grpcServer, handler.NewGRPCHandler(cartService, log))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handler.CartServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP server
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	handler.NewHTTPHandler(cartService, log).Routes(r)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	// open watch streams block GracefulStop until their clients leave
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	log.Info("gRPC server stopped")
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
