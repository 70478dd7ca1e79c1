package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/theoba/bp-invest/internal/adapter/grpc"
	"github.com/theoba/bp-invest/internal/adapter/repository/postgres"
	"github.com/theoba/bp-invest/internal/adapter/repository/sqlite"
	"github.com/theoba/bp-invest/internal/config"
	"github.com/theoba/bp-invest/internal/domain"
	"github.com/theoba/bp-invest/internal/usecase/seeder"
	"github.com/theoba/bp-invest/internal/usecase/simulation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// 1. Configuration and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	// 2. Setup Database and Repository
	repo, closer, err := openRepository(ctx, cfg, logger.Named("store"))
	if err != nil {
		logger.Fatal("failed to open repository", zap.Error(err))
	}
	defer closer.Close()

	// 3. Initialize Services (Use Cases)
	simulationService := simulation.NewSimulationService(repo, logger.Named("simulation"))

	if cfg.Seed.Enabled {
		systemSeeder := seeder.NewSystemSeeder(repo, logger.Named("seeder"))
		if err := systemSeeder.Seed(ctx); err != nil {
			logger.Fatal("failed to seed reference property", zap.Error(err))
		}
	}

	// 4. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger.Named("grpc")),
			grpcadapter.AuthInterceptor(cfg.Server.APIToken),
		),
	)
	grpcadapter.RegisterProjectionServiceServer(grpcServer, grpcadapter.NewServer(simulationService))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
	}

	// Start server in a goroutine
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("failed to serve gRPC server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, logger)
}

// openRepository connects the configured database driver and returns its assumption repository
func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.AssumptionRepository, io.Closer, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite database opened", zap.String("path", cfg.Database.SQLitePath))
		return sqlite.NewAssumptionRepository(db), db, nil

	case config.DriverPostgres:
		db, err := connectPostgres(cfg.PostgresConnStr(), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("postgres database connected", zap.String("host", cfg.Database.Host))
		return postgres.NewAssumptionRepository(db), db, nil
	}

	return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// connectPostgres retries the connection while Postgres is starting up (docker compose)
func connectPostgres(connStr string, logger *zap.Logger) (*postgres.DB, error) {
	const attempts = 5
	var err error
	for i := 1; i <= attempts; i++ {
		var db *postgres.DB
		if db, err = postgres.NewDB(connStr); err == nil {
			return db, nil
		}
		logger.Warn("postgres not ready", zap.Int("attempt", i), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down gracefully", zap.String("signal", sig.String()))

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}
