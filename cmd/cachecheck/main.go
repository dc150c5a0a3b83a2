// Command cachecheck verifies a deployed cache stack end to end: it dials the
// shared tier, composes the layered cache exactly as a consuming process
// would, and runs health checks plus a typed round-trip through the manager.
// Exit status is non-zero if any probe fails.
package main

import (
	"context"
	"log"
	"os"
	"time"

	config "github.com/apptrackr/jobcache/configs"
	"github.com/apptrackr/jobcache/internal/application/services"
	"github.com/apptrackr/jobcache/internal/core/domain/user"
	"github.com/apptrackr/jobcache/internal/core/ports"
	"github.com/apptrackr/jobcache/internal/infrastructure/cache"
	"github.com/apptrackr/jobcache/internal/infrastructure/health"
	"github.com/apptrackr/jobcache/internal/infrastructure/memory"
	infraRedis "github.com/apptrackr/jobcache/internal/infrastructure/redis"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting cache probe...")

	// Initialize Redis client (the shared tier's connection pool)
	redisClient, err := infraRedis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// Compose the cache stack: local tier, shared tier, layered orchestrator,
	// domain-facing manager.
	registry := prometheus.NewRegistry()
	metrics := cache.NewMetrics(registry)

	local := memory.NewMemoryCache(cfg.Cache.SweepInterval)
	defer local.Stop()
	shared := infraRedis.NewRedisCache(redisClient, cfg.Cache.KeyPrefix, cfg.Cache.SharedOpTimeout, logger, metrics)
	layered := cache.NewLayeredCache(local, shared, cfg.Cache.LocalTTLCap, logger, metrics)
	manager := services.NewCacheManager(layered, services.CacheManagerConfig{
		KeyHashThreshold: cfg.Cache.KeyHashThreshold,
		EntityTTL:        cfg.Cache.EntityTTL,
		CollectionTTL:    cfg.Cache.CollectionTTL,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := false

	checkers := []ports.HealthChecker{
		health.NewRedisHealthChecker(redisClient),
		health.NewCacheHealthChecker("layered", layered),
	}
	for _, c := range checkers {
		if err := c.Check(ctx); err != nil {
			logger.WithFields(logrus.Fields{"checker": c.Name(), "error": err}).Error("health check failed")
			failed = true
		} else {
			logger.WithField("checker", c.Name()).Info("health check passed")
		}
	}

	if !probeManager(ctx, manager, logger) {
		failed = true
	}

	if failed {
		logger.Error("cache probe failed")
		os.Exit(1)
	}
	logger.Info("cache probe passed")
}

// probeManager exercises the manager's typed surface: cache a user, read it
// back, invalidate, and confirm the read becomes a miss.
func probeManager(ctx context.Context, manager ports.CacheManager, logger *logrus.Logger) bool {
	probe := &user.User{
		ID:        uuid.New(),
		Email:     "probe@example.com",
		FirstName: "Probe",
		LastName:  "User",
		Role:      user.RoleMember,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	manager.SetUser(ctx, probe, time.Minute)
	got, ok := manager.GetUser(ctx, probe.ID)
	if !ok || got.Email != probe.Email {
		logger.Error("manager round-trip failed: cached user not readable")
		return false
	}

	manager.InvalidateUser(ctx, probe.ID)
	if _, ok := manager.GetUser(ctx, probe.ID); ok {
		logger.Error("manager invalidation failed: user still cached")
		return false
	}

	logger.Info("manager round-trip passed")
	return true
}
