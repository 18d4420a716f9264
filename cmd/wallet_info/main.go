package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"wallet_info/internal/app/port"
	"wallet_info/internal/client"
	"wallet_info/internal/config"
	evmclient "wallet_info/internal/infrastructure/network/client"
	"wallet_info/internal/infrastructure/restapi"
	"wallet_info/internal/pkg/utils"
	"wallet_info/internal/service"
	"wallet_info/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(slogHandler))

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	alchemyTimeout := time.Duration(cfg.Alchemy.RequestTimeoutMillis) * time.Millisecond
	coinGeckoTimeout := time.Duration(cfg.CoinGecko.RequestTimeoutMillis) * time.Millisecond

	indexer := client.NewAlchemyClient(cfg.Alchemy.APIKey, alchemyTimeout, zapLogger)
	priceSource := client.NewCoinGeckoClient(cfg.CoinGecko.BaseURL, coinGeckoTimeout, zapLogger)
	subgraphClient := client.NewSubgraphClient(alchemyTimeout, zapLogger)
	defiREST := client.NewRESTClient("defi", alchemyTimeout, zapLogger)

	evmProvider := evmclient.NewEVMClientProvider(cfg.Alchemy.APIKey, zapLogger)
	chainReader := evmclient.NewEVMReader(evmProvider, zapLogger)

	priceService := service.NewPriceService(priceSource, cfg, zapLogger)
	balanceService := service.NewBalanceService(indexer, chainReader, priceService, cfg, zapLogger)
	defiService := service.NewDeFiService(subgraphClient, defiREST, zapLogger)
	historyService := service.NewHistoryService(indexer, chainReader, cfg, zapLogger)
	webhookService := service.NewWebhookService(cfg, zapLogger)

	var sender port.TransactionSender
	if cfg.Wallet.PrivateKey != "" {
		sender, err = evmclient.NewEVMSender(
			evmProvider,
			chainReader,
			cfg.Wallet.PrivateKey,
			time.Duration(cfg.Wallet.ReceiptTimeoutSeconds)*time.Second,
			time.Duration(cfg.Wallet.ReceiptPollMillis)*time.Millisecond,
			zapLogger,
		)
		if err != nil {
			log.Fatalf("Failed to initialize transaction sender: %v", err)
		}
	} else {
		zapLogger.Warn("No signing key configured; batch execution disabled")
	}
	batcherService := service.NewBatcherService(sender, webhookService, cfg, zapLogger)

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(restapi.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	restapi.RegisterRoutes(router, &restapi.Handlers{
		Portfolio:   restapi.NewPortfolioHandler(balanceService, zapLogger),
		DeFi:        restapi.NewDeFiHandler(defiService, zapLogger),
		Transaction: restapi.NewTransactionHandler(historyService, zapLogger),
		Batch:       restapi.NewBatchHandler(batcherService, zapLogger),
		Webhook:     restapi.NewWebhookHandler(webhookService, zapLogger),
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/block", gin.WrapH(pprof.Handler("block")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		pprofRouter.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
		pprofRouter.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
	}
	zapLogger.Info("Pprof endpoints enabled under /debug/pprof")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
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
