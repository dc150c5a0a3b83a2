package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Redis RedisConfig
	Cache CacheConfig
	Log   LogConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type CacheConfig struct {
	// KeyPrefix namespaces every key written to the shared tier.
	KeyPrefix string
	// LocalTTLCap bounds the TTL of any entry in the local tier, including
	// entries promoted from the shared tier.
	LocalTTLCap time.Duration
	// EntityTTL and CollectionTTL are defaults used by the manager when a
	// caller passes ttl <= 0.
	EntityTTL     time.Duration
	CollectionTTL time.Duration
	// KeyHashThreshold is the key length above which keys are replaced by a
	// fixed-length content hash.
	KeyHashThreshold int
	// SharedOpTimeout bounds every round-trip to the shared tier.
	SharedOpTimeout time.Duration
	// SweepInterval controls the local tier's background cleanup of expired
	// entries. Zero disables the sweeper; lazy eviction still applies.
	SweepInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Cache: CacheConfig{
			KeyPrefix:        getEnv("CACHE_KEY_PREFIX", "jobcache"),
			LocalTTLCap:      getDurationEnv("CACHE_LOCAL_TTL_CAP", 300*time.Second),
			EntityTTL:        getDurationEnv("CACHE_ENTITY_TTL", 30*time.Minute),
			CollectionTTL:    getDurationEnv("CACHE_COLLECTION_TTL", 5*time.Minute),
			KeyHashThreshold: getIntEnv("CACHE_KEY_HASH_THRESHOLD", 250),
			SharedOpTimeout:  getDurationEnv("CACHE_SHARED_OP_TIMEOUT", 2*time.Second),
			SweepInterval:    getDurationEnv("CACHE_SWEEP_INTERVAL", time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
