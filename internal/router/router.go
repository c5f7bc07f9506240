package router

import (
	"github.com/gin-gonic/gin"

	"sudooom.im.mafia/internal/config"
	"sudooom.im.mafia/internal/handler"
	"sudooom.im.mafia/internal/health"
	"sudooom.im.mafia/internal/middleware"
	"sudooom.im.mafia/shared/jwt"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtService *jwt.Service,
	sessionHandler *handler.SessionHandler,
	checker *health.Checker,
) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	if checker != nil {
		r.GET("/health", checker.Handler)
	}

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 创建与加入（无需令牌）
		v1.POST("/sessions", sessionHandler.Create)
		v1.POST("/sessions/join", sessionHandler.Join)

		// 会话内接口，令牌必须属于路径中的会话
		sessions := v1.Group("/sessions/:id")
		sessions.Use(middleware.JWTAuth(jwtService))
		{
			sessions.GET("", sessionHandler.Get)
			sessions.GET("/log", sessionHandler.Log)
			sessions.GET("/me", sessionHandler.Me)
			sessions.POST("/start", sessionHandler.Start)
			sessions.POST("/actions", sessionHandler.Submit)
			sessions.POST("/synthetic", sessionHandler.AddSynthetic)
			sessions.POST("/advance", sessionHandler.Advance)
		}
	}

	return r
}
