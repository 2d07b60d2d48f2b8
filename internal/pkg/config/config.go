package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT        JWTConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Services   ServicesConfig
	Resilience ResilienceConfig
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL,  default=15m"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL, default=168h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=coursehub"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type CacheConfig struct {
	// ValidationTTL bounds the token-validation verdict cache.
	ValidationTTL time.Duration `env:"CACHE_VALIDATION_TTL, default=10m"`
}

// ServicesConfig holds the base URLs of the peer services. Each binary only
// reads the entries it actually calls.
type ServicesConfig struct {
	AuthURL     string        `env:"AUTH_SERVICE_URL,     default=http://localhost:8081"`
	UserURL     string        `env:"USER_SERVICE_URL,     default=http://localhost:8082"`
	CourseURL   string        `env:"COURSE_SERVICE_URL,   default=http://localhost:8083"`
	InstanceURL string        `env:"INSTANCE_SERVICE_URL, default=http://localhost:8084"`
	Timeout     time.Duration `env:"SERVICE_CALL_TIMEOUT, default=5s"`
}

// ResilienceConfig tunes the retry policy and circuit breakers on outbound
// inter-service calls.
type ResilienceConfig struct {
	RetryMaxAttempts    uint64        `env:"RETRY_MAX_ATTEMPTS,    default=3"`
	RetryBaseDelay      time.Duration `env:"RETRY_BASE_DELAY,      default=500ms"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO, default=0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS,  default=5"`
	BreakerOpenTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT,  default=30s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
