package server

import (
	"context"
	"errors"
	"time"

	"smartroll-attendance-svc/src/clients"
	"smartroll-attendance-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
)

var errNotConnected = errors.New("not connected")

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupAttendanceRoutes(router, deps)
	setupUserRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Debug("Health check endpoint requested")

		mongoStatus := "ok"
		if err := pingMongo(c.Request.Context(), deps.Mongodb); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := pingRedis(c.Request.Context(), deps.Redis); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"rabbitmq":  getStatus(deps.RabbitMQ != nil),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func setupAttendanceRoutes(router *gin.Engine, deps *dependency.Manager) {
	handler := deps.AttendanceHandler
	admin := deps.AdminAuth.RequireAdmin()

	group := router.Group("/attendance")
	{
		group.POST("/check_in",
			setRouteName("checkIn"),
			handler.CheckIn)

		group.POST("/router_push",
			setRouteName("routerPush"),
			admin,
			handler.RouterPush)

		group.GET("/status",
			setRouteName("getStatus"),
			handler.GetStatus)

		logs := []gin.HandlerFunc{setRouteName("getSessionLogs")}
		if deps.Config.Security.ProtectSessionLogs {
			logs = append(logs, admin)
		}
		group.GET("/session/:session_id", append(logs, handler.GetSessionLogs)...)
	}
}

func setupUserRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/user",
		setRouteName("getUserProfile"),
		deps.StudentHandler.GetProfile)
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func pingMongo(ctx context.Context, mongodb *clients.MongoDB) error {
	if mongodb == nil || mongodb.Client == nil {
		return errNotConnected
	}
	return mongodb.Client.Ping(ctx, nil)
}

func pingRedis(ctx context.Context, redisClient *clients.RedisClient) error {
	if redisClient == nil || redisClient.Client == nil {
		return errNotConnected
	}
	return redisClient.Client.Ping(ctx).Err()
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key, X-Request-ID")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
