package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lottobox/config"
	"lottobox/core"
	"lottobox/gateway"
	"lottobox/gateway/middleware"
	"lottobox/observability/logging"
	"lottobox/rpc"
	"lottobox/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("LTB_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("lottoboxd", env, logging.Options{
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	db, err := openDatabase(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node, err := core.NewNode(db, cfg.Owner())
	if err != nil {
		logger.Error("Failed to initialize node", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("node initialized",
		"network", cfg.NetworkName,
		"backend", cfg.Backend,
		"owner", cfg.OwnerAddress,
	)

	gatewayHandler := gateway.New(node, gateway.Config{
		RateLimit: middleware.RateLimit{RequestsPerMinute: 600, Burst: 30},
		Logger:    logger,
	})
	go func() {
		logger.Info("starting gateway", "address", cfg.GatewayAddress)
		if err := http.ListenAndServe(cfg.GatewayAddress, gatewayHandler); err != nil {
			logger.Error("gateway server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("starting metrics endpoint", "address", cfg.MetricsAddress)
		if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
			logger.Error("metrics server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "leveldb":
		return storage.NewLevelDB(cfg.DataDir)
	case "bolt":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "lottobox.db"))
	case "memory":
		return storage.NewMemDB(), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}
