package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LoginPath string `env:"LOGIN_PATH, default=/login"`

	Backend    BackendConfig
	TokenStore TokenStoreConfig
	Redis      RedisConfig
	Mongo      MongoConfig
}

type BackendConfig struct {
	// BaseURL points at the grading backend; the default matches local
	// development.
	BaseURL        string        `env:"BACKEND_BASE_URL,        default=http://localhost:8000"`
	RequestTimeout time.Duration `env:"BACKEND_REQUEST_TIMEOUT, default=15s"`
	// JobTimeout applies to job-status and grade-posting forwards. Values
	// below the 120s contract floor are raised by the backend client.
	JobTimeout time.Duration `env:"BACKEND_JOB_TIMEOUT, default=120s"`
}

type TokenStoreConfig struct {
	// Backend selects the persistence backend: file, redis, or mongo.
	Backend string `env:"TOKEN_STORE, default=file"`
	File    string `env:"TOKEN_FILE,  default=.gateway-token"`
	Key     string `env:"TOKEN_KEY,   default=gateway:session:token"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=grading_gateway"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
