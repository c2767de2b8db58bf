package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/adapter/handler"
	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/auth"
	"github.com/rl1809/marketplace/internal/config"
	"github.com/rl1809/marketplace/internal/core/service"
	"github.com/rl1809/marketplace/internal/port"
)

type itemStore interface {
	port.ItemRepository
	port.ReceiptRepository
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	envFile := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []io.Closer

	// Initialize item store
	var (
		items    itemStore
		sqlStore *storage.SQLAdapter
	)
	if cfg.Store.Driver == "leveldb" {
		ldb, err := storage.OpenLevelDB(cfg.Store.DSN)
		if err != nil {
			logger.Fatal("failed to open leveldb", zap.Error(err))
		}
		closers = append(closers, ldb)
		items = ldb
	} else {
		dialect, err := storage.ParseDialect(cfg.Store.Driver)
		if err != nil {
			logger.Fatal("invalid store driver", zap.Error(err))
		}
		var db *sql.DB
		db, err = storage.OpenSQL(ctx, dialect, cfg.Store.DSN)
		if err != nil {
			logger.Fatal("failed to connect database", zap.Error(err))
		}
		closers = append(closers, db)

		sqlStore = storage.NewSQLAdapter(db, dialect)
		if err := sqlStore.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		items = sqlStore
	}
	logger.Info("connected item store", zap.String("driver", cfg.Store.Driver))

	// Initialize Redis
	var redisAdapter *storage.RedisAdapter
	if cfg.UsesRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		closers = append(closers, rdb)
		redisAdapter = storage.NewRedisAdapter(rdb, cfg.Idempotency.TTL)
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Address))
	}

	var balances port.BalanceRepository = sqlStore
	if cfg.Payment.Driver == "redis" {
		balances = redisAdapter
	}

	var idempotency port.IdempotencyRepository
	if cfg.Idempotency.Driver == "redis" {
		idempotency = redisAdapter
	} else {
		idempotency = storage.NewMemoryIdempotency(cfg.Idempotency.TTL)
	}

	// Initialize services
	ledger := service.NewLedgerService(items, balances, cfg.Workers.QueueSize,
		service.WithLogger(logger),
		service.WithIdempotency(idempotency),
		service.WithReceipts(items),
	)
	wallets := service.NewWalletService(balances, logger)
	verifier := auth.NewVerifier(cfg.Auth.TokenMaxAge)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers.Count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			service.RunReceiptWorker(id, ledger.GetReceiptQueue(), items, logger)
		}(i)
	}
	logger.Info("started receipt workers", zap.Int("count", cfg.Workers.Count))

	// Initialize gRPC server
	grpcServer := handler.NewGRPCServer(handler.NewGRPCHandler(ledger, verifier, logger))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddress)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddress))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(ledger, wallets, verifier, logger, cfg.Server.Faucet)
	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddress,
		Handler:      httpHandler.Routes(cfg.Server.CORSOrigins),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddress), zap.Bool("faucet", cfg.Server.Faucet))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	// Stop gRPC server
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close receipt queue and wait for workers
	ledger.Close()
	wg.Wait()
	logger.Info("workers stopped")

	// Close connections
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
	logger.Info("connections closed")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Log.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
