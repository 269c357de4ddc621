package dependency

import (
	"time"

	"smartroll-attendance-svc/src/clients"
	"smartroll-attendance-svc/src/internal/attendance"
	"smartroll-attendance-svc/src/internal/cache"
	"smartroll-attendance-svc/src/internal/clock"
	"smartroll-attendance-svc/src/internal/config"
	"smartroll-attendance-svc/src/internal/eligibility"
	"smartroll-attendance-svc/src/internal/heartbeat"
	"smartroll-attendance-svc/src/internal/middleware"
	"smartroll-attendance-svc/src/internal/session"
	"smartroll-attendance-svc/src/internal/student"
	"smartroll-attendance-svc/src/internal/subnet"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router            *gin.Engine
	Config            *config.Configuration
	Mongodb           *clients.MongoDB
	Redis             *clients.RedisClient
	RabbitMQ          *clients.RabbitMQ
	CacheService      cache.Service
	SessionRegistry   session.Registry
	SubnetAuthority   subnet.Authority
	Eligibility       eligibility.Engine
	AttendanceService attendance.Service
	AttendanceHandler attendance.Handler
	StudentHandler    student.Handler
	AdminAuth         *middleware.AdminAuth
}

// NewDependencyManager wires every component. rabbitMQ may be nil, in which
// case activity events are not published.
func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration,
	clk clock.Clock) *Manager {
	collections := cfg.Database.Collections

	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	sessionRepo := session.NewSessionRepository(mongodb.Database, collections.Sessions)
	registry := session.NewRegistry(sessionRepo, cacheService)
	studentRepo := student.NewStudentRepository(mongodb.Database, collections.Students)
	heartbeatRepo := heartbeat.NewHeartbeatRepository(mongodb.Database, collections.Heartbeats, clk, cfg.Database.UseTransactions)
	authority := subnet.NewAuthority(subnet.NewSubnetRepository(mongodb.Database, collections.ApprovedSubnets))
	engine := eligibility.NewEngine(registry, heartbeatRepo, clk)

	var publisher attendance.ActivityPublisher
	if rabbitMQ != nil {
		publisher = clients.NewActivityPublisher(&cfg.Queue.RabbitMQ, rabbitMQ.Channel)
	}

	attendanceService := attendance.NewAttendanceService(attendance.Dependencies{
		Students:   studentRepo,
		Sessions:   registry,
		Heartbeats: heartbeatRepo,
		Subnets:    authority,
		Engine:     engine,
		Publisher:  publisher,
		Clock:      clk,
	})

	return &Manager{
		Router:            router,
		Config:            cfg,
		Mongodb:           mongodb,
		Redis:             redisClient,
		RabbitMQ:          rabbitMQ,
		CacheService:      cacheService,
		SessionRegistry:   registry,
		SubnetAuthority:   authority,
		Eligibility:       engine,
		AttendanceService: attendanceService,
		AttendanceHandler: attendance.NewHandler(cfg, attendanceService),
		StudentHandler:    student.NewHandler(studentRepo, time.Duration(cfg.App.Timeout)*time.Second),
		AdminAuth: middleware.NewAdminAuth(
			cfg.Security.AdminKey,
			cfg.Security.AdminKeyHeader,
			cfg.Security.JwtKey,
		),
	}
}
