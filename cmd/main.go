package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-kis-trader/internal/trading/config"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"
	"golang-kis-trader/pkg/postgres"
	"golang-kis-trader/pkg/redis"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	configPath string
	accountID  uint
)

var rootCmd = &cobra.Command{
	Use:   "kis-trader",
	Short: "Operator CLI for the KIS trading service",
}

var kisCmd = &cobra.Command{
	Use:   "kis",
	Short: "Brokerage gateway utilities",
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Look up or issue the access token of a trading account",
	Long: `Runs the same token lookup the service uses: memory, Redis, database and,
when nothing valid is cached, a new issuance. Only the token type and expiry are printed.`,
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	db, err := postgres.NewDB(postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		TimeZone: cfg.Database.TimeZone,
		LogLevel: "silent",
	})
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	var (
		shared kis.TokenCache
		guard  kis.IssueGuard = kis.NewLocalIssueGuard(cfg.KIS.IssueInterval)
	)
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Redis unavailable, the issuance guard only covers this process", logger.ErrorField(err))
	} else {
		defer redisClient.Close()
		shared = repository.NewRedisTokenCache(redisClient.Client)
		guard = repository.NewRedisIssueGuard(redisClient.Client, cfg.KIS.IssueInterval)
	}

	account, err := repository.NewTradingAccountRepository(db.DB).FindActiveByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("no active trading account with id %d", accountID)
	}
	if err != nil {
		return err
	}

	tokens := kis.NewTokenManager(cfg.KIS, nil, repository.NewKISTokenRepository(db.DB), shared, guard, appLogger)
	tok, err := tokens.Acquire(ctx, kis.Credentials{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		AppKey:        account.AppKey,
		AppSecret:     account.AppSecret,
	})
	if err != nil {
		var authErr *kis.AuthError
		if errors.As(err, &authErr) && authErr.RetryAfter() > 0 {
			return fmt.Errorf("%w (retry in %s)", err, authErr.RetryAfter())
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "account:    %d\n", account.ID)
	fmt.Fprintf(out, "type:       %s\n", tok.Type)
	fmt.Fprintf(out, "issued at:  %s\n", tok.IssuedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "expires at: %s\n", tok.ExpiresAt().Format(time.RFC3339))
	fmt.Fprintf(out, "remaining:  %s\n", time.Until(tok.ExpiresAt()).Round(time.Second))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-trading.yaml", "Path to the configuration file")
	tokenCmd.Flags().UintVar(&accountID, "account", 0, "Trading account ID")
	_ = tokenCmd.MarkFlagRequired("account")

	kisCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(kisCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'\n", err)
		os.Exit(1)
	}
}
