package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/app/provider"
	"token_aggregator/internal/app/service"
	"token_aggregator/internal/infrastructure/chains/near"
	"token_aggregator/internal/infrastructure/chains/solana"
	"token_aggregator/internal/infrastructure/chains/utxo"
	"token_aggregator/internal/infrastructure/configloader"
	"token_aggregator/internal/infrastructure/jsonrpc"
	"token_aggregator/internal/infrastructure/restapi"
	"token_aggregator/internal/infrastructure/tokenregistry"
	"token_aggregator/internal/pkg/cache"
	"token_aggregator/internal/pkg/logger"
	"token_aggregator/internal/pkg/metrics"
	"token_aggregator/internal/pkg/spamfilter"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Bootstrap logging until the configured zap logger is up.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfgPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	slog.SetDefault(slog.New(slogHandler))

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))
	appLogger := logger.NewZapAdapter(zapLogger)

	metrics.MustRegisterMetrics()

	// Verified token registry for the contract-call chain.
	verifiedTokens, err := tokenregistry.LoadVerifiedTokens(cfg.Near.VerifiedTokensFile, appLogger)
	if err != nil {
		zapLogger.Fatal("Failed to load verified token registry", zap.Error(err))
	}

	// Chain adapters.
	nearRPC := jsonrpc.NewClient(cfg.Near.RPCURL, zapLogger,
		jsonrpc.WithRateLimit(cfg.Performance.OutboundRPS))
	tokenIndex := near.NewTokenIndexClient(cfg.Near.TokenIndexURL,
		time.Duration(cfg.Near.TokenIndexTimeoutSeconds)*time.Second)
	nearAdapter := near.NewAdapter(nearRPC, tokenIndex, near.Config{
		NativeSymbol:   cfg.Near.NativeSymbol,
		NativeDecimals: cfg.Near.NativeDecimals,
		VerifiedTokens: verifiedTokens,
	}, appLogger)

	solanaRPC := jsonrpc.NewClient(cfg.Solana.RPCURL, zapLogger,
		jsonrpc.WithRateLimit(cfg.Performance.OutboundRPS))
	solanaAdapter := solana.NewAdapter(solanaRPC, solana.Config{
		NativeSymbol:   cfg.Solana.NativeSymbol,
		TokenProgramID: cfg.Solana.TokenProgramID,
		VerifiedMints:  cfg.Solana.VerifiedMints,
	}, appLogger)

	adapters := []port.ChainAdapter{nearAdapter, solanaAdapter}
	for _, chainCfg := range cfg.UTXOChains {
		adapters = append(adapters, utxo.NewAdapter(utxo.Config{
			Name:        chainCfg.Name,
			Symbol:      chainCfg.Symbol,
			ExplorerURL: chainCfg.ExplorerURL,
			Prefixes:    chainCfg.Prefixes,
			MinLength:   chainCfg.MinLength,
			MaxLength:   chainCfg.MaxLength,
			Decimals:    chainCfg.Decimals,
		}, appLogger))
	}
	registry := provider.NewAdapterRegistry(adapters...)

	// Core services.
	metadataCache := cache.NewTTLMetadataCache(cfg.MetadataCache.GetTTL(), appLogger)
	classifier := spamfilter.New(spamfilter.Config{
		Keywords:          cfg.SpamFilter.Keywords,
		IncludeBareTokens: cfg.SpamFilter.IncludeBareTokens,
	})
	aggregator := service.NewAggregatorService(metadataCache, classifier,
		cfg.Performance.ConcurrencyWindow, appLogger)
	balanceSvc := service.NewBalanceService(registry, aggregator,
		cfg.Performance.MaxBatchAddresses, appLogger)

	handler := restapi.NewBalanceHandler(balanceSvc, appLogger)
	router := restapi.SetupRouter(handler, zapLogger)
	zapLogger.Info("Supported chains", zap.Strings("chains", registry.Chains()))

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
