package handler

import (
	"tavern/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 注册中间件和全部路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// /customers 与 /customers/ 都显式注册，不做重定向
	r.RedirectTrailingSlash = false

	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(RecoveryMiddleware())
	r.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))

	h := NewHandler(db, rdb, cfg)

	r.POST("/login", h.Login)

	// 顾客相关
	customers := r.Group("/customers")
	{
		customers.GET("", h.ListCustomers)
		customers.GET("/", h.ListCustomers)
		customers.POST("", h.CreateCustomer)
		customers.POST("/", h.CreateCustomer)
		customers.GET("/:customer_id", h.GetCustomer)
		customers.PUT("/:customer_id", h.UpdateCustomer)
		customers.DELETE("/:customer_id", h.DeleteCustomer)
		customers.GET("/:customer_id/transactions", h.ListBalanceEntries)
		customers.GET("/:customer_id/transactions/:transaction_no", h.GetBalanceEntry)
	}

	// 健康检查
	r.GET("/health", h.Health)

	r.NoRoute(h.NotFound)

	return r
}
