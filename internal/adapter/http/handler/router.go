package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Deep health check across PostgreSQL and Redis.
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	walletHandler := NewWalletHandler(deps.LedgerSvc)
	queryHandler := NewQueryHandler(deps.LedgerSvc)

	// API v1 routes
	v1 := r.Group("/api/v1")

	wallet := v1.Group("/wallet")
	{
		wallet.POST("/topup", rl("wallet_mutations"), walletHandler.TopUp)
		wallet.POST("/bonus", rl("wallet_mutations"), walletHandler.Bonus)
		wallet.POST("/spend", rl("wallet_mutations"), walletHandler.Spend)

		wallet.GET("/:accountId/balance", rl("wallet_queries"), queryHandler.Balance)
		wallet.GET("/:accountId/history", rl("wallet_queries"), queryHandler.History)
		wallet.GET("/:accountId/audit", rl("wallet_queries"), queryHandler.Audit)
	}

	return r
}
