package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/modem-gateway/internal/hardware"
	"github.com/wfunc/modem-gateway/internal/middleware"
	"github.com/wfunc/modem-gateway/internal/service"
	ws "github.com/wfunc/modem-gateway/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	services       *service.Services
	hub            *ws.Hub
	authHandler    *AuthHandler
	modemHandler   *ModemHandler
	adminHandler   *AdminHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, manager *hardware.ModemManager, config *service.Config, log *zap.Logger) *Router {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// 创建服务
	services := service.NewServices(db, manager, config, log)

	// 创建WebSocket Hub并接入模组事件广播
	hub := ws.NewHub(log)
	go hub.Run()
	services.SetBroadcaster(hub.BroadcastModemEvent)

	// 创建处理器
	authHandler := NewAuthHandler(services.Auth)
	modemHandler := NewModemHandler(services.Modem, services.ModemEvent, log)
	adminHandler := NewAdminHandler(db, services.ModemEvent, hub, log)
	wsHandler := NewWebSocketHandler(hub, log)

	// 创建中间件
	authMiddleware := middleware.NewAuthMiddleware(services.Auth)

	router := &Router{
		engine:         engine,
		db:             db,
		services:       services,
		hub:            hub,
		authHandler:    authHandler,
		modemHandler:   modemHandler,
		adminHandler:   adminHandler,
		wsHandler:      wsHandler,
		authMiddleware: authMiddleware,
		log:            log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由（不需要认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			// 需要认证的路由
			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.POST("/logout", r.authHandler.Logout)
				authRequired.GET("/profile", r.authHandler.GetProfile)
				authRequired.PUT("/password", r.authHandler.UpdatePassword)
			}
		}

		// 模组控制路由（需要认证）
		modem := v1.Group("/modem")
		modem.Use(r.authMiddleware.RequireAuth())
		{
			modem.POST("/power/on", r.modemHandler.PowerOn)
			modem.POST("/power/off", r.modemHandler.PowerOff)
			modem.GET("/status", r.modemHandler.Status)

			events := modem.Group("/events")
			{
				events.GET("", r.modemHandler.QueryEvents)
				events.GET("/latest", r.modemHandler.GetLatestEvents)
				events.GET("/stats", r.modemHandler.GetStats)
				events.GET("/failures", r.modemHandler.GetHookFailures)
				events.GET("/export", r.modemHandler.ExportEvents)
			}
		}

		// 管理员路由（需要管理员权限）
		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireRole("admin"))
		{
			admin.POST("/events/cleanup", r.adminHandler.CleanupEvents)
			admin.GET("/db/integrity", r.adminHandler.CheckIntegrity)
			admin.POST("/db/vacuum", r.adminHandler.Vacuum)
			admin.GET("/ws/online", r.adminHandler.OnlineClients)
		}
	}

	// WebSocket路由
	wsGroup := r.engine.Group("/ws")
	wsGroup.Use(r.authMiddleware.RequireAuth())
	{
		wsGroup.GET("/modem", r.wsHandler.ModemWebSocket)
	}

	// API文档路由
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Services 获取服务集合（用于优雅关闭）
func (r *Router) Services() *service.Services {
	return r.services
}

// Hub 获取WebSocket Hub
func (r *Router) Hub() *ws.Hub {
	return r.hub
}
