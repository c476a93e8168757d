package simulator

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

// SetupRouter 设置模拟平台路由，mode 取 gin 的 debug/release/test
func SetupRouter(h *Handler, mode string) *gin.Engine {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	// 根路径
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "Data Forward Simulator",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			respondOK(c, gin.H{"status": "ok"})
		})

		// 转发规则与脚本
		forwarding := v1.Group("/data_forwarding")
		{
			rules := forwarding.Group("/rules")
			{
				rules.GET("", h.ListRules)
				rules.GET("/:id", h.GetRule)
				rules.POST("", h.CreateRule)
				rules.PUT("", h.UpdateRule)
				rules.PUT("/status", h.SetRuleStatus)
				rules.DELETE("/:id", h.DeleteRule)
			}

			scripts := forwarding.Group("/scripts")
			{
				scripts.GET("", h.ListScripts)
				scripts.GET("/all", h.ListAllScripts)
				scripts.GET("/:id", h.GetScript)
				scripts.POST("", h.CreateScript)
				scripts.PUT("", h.UpdateScript)
				scripts.DELETE("/:id", h.DeleteScript)
				scripts.POST("/test", h.TestScript)
			}
		}

		// 来源选择用的参考数据
		v1.GET("/devices", h.ListDevices)
		v1.GET("/device_configs", h.ListProducts)
		v1.GET("/device_groups/tree", h.GetGroupTree)
	}

	// 404处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code": http.StatusNotFound,
			"msg":  "接口不存在",
			"path": c.Request.URL.Path,
		})
	})

	return r
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware 请求ID中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		requestID := c.GetString("request_id")
		method := c.Request.Method
		path := c.Request.URL.Path
		statusCode := c.Writer.Status()

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"duration", duration,
			"client_ip", c.ClientIP(),
		)

		if statusCode >= 400 {
			logger.Error("HTTP Error",
				"request_id", requestID,
				"method", method,
				"path", path,
				"status", statusCode,
				"duration", duration,
			)
		}
	}
}
