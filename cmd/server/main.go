package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/fortress-invest/fortress-api/internal/admin"
	"github.com/fortress-invest/fortress-api/internal/auth"
	"github.com/fortress-invest/fortress-api/internal/config"
	"github.com/fortress-invest/fortress-api/internal/contracts"
	"github.com/fortress-invest/fortress-api/internal/database"
	"github.com/fortress-invest/fortress-api/internal/funding"
	"github.com/fortress-invest/fortress-api/internal/kyc"
	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/pricing"
	"github.com/fortress-invest/fortress-api/internal/referral"
	"github.com/fortress-invest/fortress-api/internal/settings"
	"github.com/fortress-invest/fortress-api/internal/tier"
	"github.com/fortress-invest/fortress-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trading platform API with graceful
// shutdown support.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Market data feed
	feed := pricing.NewFeed(cfg.Pricing.Pair, cfg.Pricing.InitialPrice, cfg.Pricing.TickInterval)
	feed.Start()
	defer feed.Stop()

	// Initialize services and handlers
	policy := tier.NewPolicy(cfg.Business.VipMinimumBalance)
	ledgerService := ledger.NewService(db, policy)
	ledgerHandlers := ledger.NewGinHandlers(ledgerService)

	referralService := referral.NewService(db, ledgerService, cfg.Business.ReferralReward)
	referralHandlers := referral.NewGinHandlers(referralService)

	authService := auth.NewService(db, ledgerService, referralService,
		cfg.Server.JWTSecret, cfg.Business.SignupBonus, cfg.Business.DefaultAsset)
	authHandlers := auth.NewGinHandlers(authService)

	fundingService := funding.NewService(db, ledgerService, referralService, authService)
	fundingHandlers := funding.NewGinHandlers(fundingService)

	contractService := contracts.NewService(db, ledgerService, policy, feed)
	contractHandlers := contracts.NewGinHandlers(contractService)

	kycService := kyc.NewService(db, ledgerService)
	kycHandlers := kyc.NewGinHandlers(kycService)

	settingsService := settings.NewService(db)
	settingsHandlers := settings.NewGinHandlers(settingsService)

	adminService := admin.NewService(ledgerService, authService)
	adminHandlers := admin.NewGinHandlers(adminService, fundingService, contractService,
		kycService, settingsService, authService)

	// Create and start the contract expiry processor
	processor := contracts.NewProcessor(contractService, cfg.Business.SettlementInterval, cfg.Business.AutoSettle)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go processor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.Server.JWTSecret, authHandlers, ledgerHandlers, referralHandlers,
		fundingHandlers, contractHandlers, kycHandlers, settingsHandlers, adminHandlers, feed)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers, grouped
// by audience: public auth/market routes, authenticated account routes,
// and the admin back office.
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	ledgerHandlers *ledger.GinHandlers,
	referralHandlers *referral.GinHandlers,
	fundingHandlers *funding.GinHandlers,
	contractHandlers *contracts.GinHandlers,
	kycHandlers *kyc.GinHandlers,
	settingsHandlers *settings.GinHandlers,
	adminHandlers *admin.GinHandlers,
	feed *pricing.Feed,
) {
	v1 := router.Group("/api/v1")
	{
		// Public routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandlers.SignupHandler())
			authGroup.POST("/login", authHandlers.LoginHandler())
		}
		v1.GET("/settings", settingsHandlers.GetSettingsHandler())
		v1.GET("/market/ws", feed.StreamHandler())

		// Authenticated account routes
		me := v1.Group("/accounts/me")
		me.Use(middleware.JWTAuth(jwtSecret))
		{
			me.GET("", ledgerHandlers.GetAccountHandler())
			me.GET("/referrals", referralHandlers.ReferralsHandler())
			me.POST("/deposits", fundingHandlers.RequestDepositHandler())
			me.POST("/withdrawals", fundingHandlers.RequestWithdrawalHandler())
			me.POST("/contracts", contractHandlers.PlaceContractHandler())
			me.POST("/contracts/:contract_id/expire", contractHandlers.ExpireContractHandler())
			me.POST("/kyc", kycHandlers.SubmitHandler())
			me.POST("/password", authHandlers.ChangePasswordHandler())
			me.POST("/fund-password", authHandlers.SetFundPasswordHandler())
			me.POST("/2fa", authHandlers.Toggle2FAHandler())
			me.POST("/notifications/:notification_id/read", ledgerHandlers.MarkNotificationReadHandler())
			me.POST("/notifications/read-all", ledgerHandlers.MarkAllNotificationsReadHandler())
		}

		// Admin back office
		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.JWTAuth(jwtSecret), middleware.AdminOnly())
		{
			adminGroup.POST("/verify-password", adminHandlers.VerifyPasswordHandler())
			adminGroup.GET("/users", adminHandlers.ListAccountsHandler())
			adminGroup.POST("/users", adminHandlers.CreateAccountHandler())
			adminGroup.PUT("/users/:account_id/balance", adminHandlers.OverrideBalanceHandler())
			adminGroup.POST("/transactions", adminHandlers.ManualTransactionHandler())
			adminGroup.GET("/deposits/pending", adminHandlers.PendingDepositsHandler())
			adminGroup.POST("/deposits/:transaction_id/resolve", adminHandlers.ResolveDepositHandler())
			adminGroup.GET("/withdrawals/pending", adminHandlers.PendingWithdrawalsHandler())
			adminGroup.POST("/withdrawals/:transaction_id/resolve", adminHandlers.ResolveWithdrawalHandler())
			adminGroup.GET("/contracts", adminHandlers.OpenContractsHandler())
			adminGroup.POST("/contracts/:contract_id/resolve", adminHandlers.ResolveContractHandler())
			adminGroup.GET("/kyc/pending", adminHandlers.PendingKycHandler())
			adminGroup.POST("/kyc/:account_id/resolve", adminHandlers.ReviewKycHandler())
			adminGroup.GET("/trades", adminHandlers.AllTradesHandler())
			adminGroup.GET("/orders", adminHandlers.AllOrdersHandler())
			adminGroup.PUT("/settings", adminHandlers.UpdateSettingsHandler())
		}
	}
}
