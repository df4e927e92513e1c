package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-kis-trader/internal/trading/config"
	delivery "golang-kis-trader/internal/trading/delivery/http"
	_ "golang-kis-trader/internal/trading/docs"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/internal/trading/service"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"
	"golang-kis-trader/pkg/postgres"
	"golang-kis-trader/pkg/redis"
	"golang-kis-trader/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the trading service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Trading Service", logger.Field("name", cfg.App.Name), logger.Field("env", cfg.App.Env))

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	notifier := telegram.NewNopNotifier()
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Repositories
	accountRepo := repository.NewTradingAccountRepository(db.DB)
	tokenRepo := repository.NewKISTokenRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)
	strategyRepo := repository.NewStrategyRepository(db.DB)
	balanceRepo := repository.NewBalanceRepository(db.DB)
	marketCache := repository.NewMarketCacheRepository(redisClient.Client)
	feedTimeout, err := cfg.News.FeedTimeout()
	if err != nil {
		appLogger.Fatal("Invalid news timeout", logger.ErrorField(err))
	}
	newsFeed := repository.NewNewsFeedRepository(cfg.News.FeedURLs, feedTimeout, appLogger)

	// Brokerage gateway. Tokens are shared with other processes through Redis.
	tokens := kis.NewTokenManager(cfg.KIS, nil, tokenRepo,
		repository.NewRedisTokenCache(redisClient.Client),
		repository.NewRedisIssueGuard(redisClient.Client, cfg.KIS.IssueInterval),
		appLogger)
	gateway := kis.NewClient(cfg.KIS, nil, tokens, appLogger)

	// Services
	accountSvc := service.NewTradingAccountService(accountRepo, appLogger)
	marketSvc := service.NewMarketService(gateway, accountRepo, marketCache, cfg.Strategy.DefaultMarketCode, cfg.Strategy.SampleWindow, appLogger)
	balanceSvc := service.NewBalanceService(gateway, accountRepo, balanceRepo, appLogger)
	orderSvc := service.NewOrderService(gateway, accountRepo, orderRepo, notifier, appLogger)
	newsSvc := service.NewNewsService(gateway, accountRepo, newsFeed, appLogger)
	strategySvc := service.NewStrategyService(strategyRepo, accountRepo, appLogger)
	signalSvc := service.NewSignalService(strategyRepo, accountRepo, marketCache, marketSvc, orderSvc, notifier, appLogger)
	systemSvc := service.NewSystemService(accountRepo, cfg.App.Version, appLogger)

	if cfg.Strategy.Enabled {
		pollingInterval, err := time.ParseDuration(cfg.Strategy.PollingInterval)
		if err != nil {
			appLogger.Fatal("Invalid polling interval", logger.ErrorField(err))
		}
		schedulerSvc := service.NewStrategySchedulerService(strategyRepo, signalSvc, appLogger, pollingInterval)
		go schedulerSvc.Start(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			c.SetRequest(c.Request().WithContext(logger.WithRequestID(c.Request().Context(), requestID)))
			return next(c)
		}
	})

	apiV1 := e.Group("/api/v1")
	delivery.NewTradingAccountHandler(accountSvc, appLogger).RegisterRoutes(apiV1.Group("/trading-accounts"))
	delivery.NewMarketHandler(marketSvc, balanceSvc, newsSvc, appLogger).RegisterRoutes(apiV1)
	delivery.NewOrderHandler(orderSvc, appLogger).RegisterRoutes(apiV1.Group("/orders"))
	delivery.NewStrategyHandler(strategySvc, signalSvc, appLogger).RegisterRoutes(apiV1.Group("/strategies"))
	delivery.NewSignalHandler(signalSvc, appLogger).RegisterRoutes(apiV1.Group("/signals"))
	delivery.NewSystemHandler(systemSvc, appLogger).RegisterRoutes(apiV1.Group("/system"))

	e.GET("/health", delivery.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", swagger.WrapHandler)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title KIS Trading API
// @version 1.0
// @description VWAP trading service on the Korea Investment & Securities Open API.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "trading-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-trading.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing trading-service CLI: %s\n", err)
		os.Exit(1)
	}
}
