package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xxz807/sgbooks/backend/internal/ledger/api"
)

// Server 封装 HTTP 服务
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	port   string
	server *http.Server
}

// NewServer 初始化 HTTP Server (包含网关逻辑)
func NewServer(
	logger *zap.Logger,
	cfgPort string,
	cfgMode string,
	// 依赖注入：传入具体的 Handler
	ledgerHandler *api.LedgerHandler,
) *Server {

	// 1. 设置 Gin 模式
	if cfgMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ==========================================
	// 🏗️ Logical Gateway Layer (逻辑网关层)
	// ==========================================

	// 1. Recovery (防崩)
	r.Use(gin.Recovery())

	// 2. Custom Logger (接入 Zap)
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next() // 执行后续逻辑

		cost := time.Since(start)
		logger.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", cost),
		)
	})

	// 3. CORS (跨域处理 - 允许前端访问)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Tenant-ID, X-User-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// 4. Identity (身份注入)
	// 身份认证是外部网关的事，这里只信任它塞进来的租户/用户头
	// 以后接入真正的 JWT 中间件时替换这一段
	identityMiddleware := func(c *gin.Context) {
		tenantID, err := strconv.ParseInt(c.GetHeader("X-Tenant-ID"), 10, 64)
		userID := c.GetHeader("X-User-ID")
		if err != nil || tenantID <= 0 || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant or user identity"})
			return
		}
		c.Set(api.CtxTenantID, tenantID)
		c.Set(api.CtxUserID, userID)
		c.Next()
	}

	// ==========================================
	// 🚦 Routing Layer (路由分发)
	// ==========================================

	v1 := r.Group("/api/v1")
	{
		// 健康检查（不需要身份）
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "UP"})
		})

		// 注册 Ledger 模块的路由
		secured := v1.Group("", identityMiddleware)
		ledgerHandler.RegisterRoutes(secured)
	}

	return &Server{
		engine: r,
		logger: logger,
		port:   cfgPort,
	}
}

// Run 启动服务
func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:    ":" + s.port,
		Handler: s.engine,
	}
	s.logger.Info("🚀 SGBooks ledger service started", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown 优雅停机 (Graceful Shutdown)
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
