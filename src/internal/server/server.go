package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartroll-attendance-svc/src/clients"
	"smartroll-attendance-svc/src/internal/clock"
	"smartroll-attendance-svc/src/internal/config"
	"smartroll-attendance-svc/src/internal/dependency"
	"smartroll-attendance-svc/src/internal/heartbeat"
	"smartroll-attendance-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg      *config.Configuration
	router   *gin.Engine
	mongodb  *clients.MongoDB
	redis    *clients.RedisClient
	rabbitMQ *clients.RabbitMQ
}

func New(cfg *config.Configuration) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	return &Server{
		cfg:    cfg,
		router: NewRouter(),
	}
}

// NewRouter returns an engine that trusts no proxy, so RemoteIP is always
// the socket peer.
func NewRouter() *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.WithError(err).Warn("Failed to reset trusted proxies")
	}
	router.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())
	return router
}

// Start connects the backing stores, serves HTTP and blocks until SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	if err := s.connect(); err != nil {
		s.closeClients()
		return err
	}
	defer s.closeClients()

	deps := dependency.NewDependencyManager(s.router, s.mongodb, s.redis, s.rabbitMQ, s.cfg, clock.Real())
	SetupRoutes(deps)

	httpServer := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", s.cfg.Server.Port).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func (s *Server) connect() error {
	mongodb, err := clients.NewMongoDB(&s.cfg.Database)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	s.mongodb = mongodb

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Database.Timeout)*time.Second)
	defer cancel()
	if err := heartbeat.EnsureIndexes(ctx, mongodb.Database, s.cfg.Database.Collections.Heartbeats); err != nil {
		log.WithError(err).Warn("Failed to ensure heartbeat indexes")
	}

	redisClient, err := clients.NewRedisClient(&s.cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	s.redis = redisClient

	if !s.cfg.Queue.RabbitMQ.Enabled {
		log.Info("RabbitMQ disabled, activity events will not be published")
		return nil
	}

	rabbitMQ, err := clients.NewRabbitMQ(&s.cfg.Queue.RabbitMQ)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	s.rabbitMQ = rabbitMQ

	if err := rabbitMQ.SetupExchange(); err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}

	return nil
}

func (s *Server) closeClients() {
	if s.rabbitMQ != nil {
		_ = s.rabbitMQ.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.mongodb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.mongodb.Close(ctx)
	}
}
