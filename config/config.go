package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	MongoURI   string `mapstructure:"MONGO_URI"`
	MongoDB    string `mapstructure:"MONGO_DB"`
	RedisAddr  string `mapstructure:"REDIS_ADDR"`

	AccessSecret   string `mapstructure:"ACCESS_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	RollbarToken   string `mapstructure:"ROLLBAR_TOKEN"`

	QueueWorkers      int           `mapstructure:"QUEUE_WORKERS"`
	QueueSize         int           `mapstructure:"QUEUE_SIZE"`
	QueueMaxRetries   int           `mapstructure:"QUEUE_MAX_RETRIES"`
	QueueRetryBackoff time.Duration `mapstructure:"QUEUE_RETRY_BACKOFF"`
	BatchSize         int           `mapstructure:"BATCH_SIZE"`
	SummaryCacheTTL   time.Duration `mapstructure:"SUMMARY_CACHE_TTL"`
	AwardMaxPoints    int           `mapstructure:"AWARD_MAX_POINTS"`
}

var defaults = map[string]interface{}{
	"APP_ENV":             "development",
	"HTTP_PORT":           ":8080",
	"GRPC_PORT":           ":50051",
	"DB_DRIVER":           DriverPostgres,
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_NAME":             "jhub",
	"MONGO_URI":           "mongodb://localhost:27017",
	"MONGO_DB":            "jhub",
	"ALLOWED_ORIGINS":     "http://localhost:3000",
	"QUEUE_WORKERS":       4,
	"QUEUE_SIZE":          1024,
	"QUEUE_MAX_RETRIES":   3,
	"QUEUE_RETRY_BACKOFF": "2s",
	"BATCH_SIZE":          100,
	"SUMMARY_CACHE_TTL":   "5m",
	"AWARD_MAX_POINTS":    1000,
}

var keys = []string{
	"APP_ENV", "HTTP_PORT", "GRPC_PORT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"MONGO_URI", "MONGO_DB", "REDIS_ADDR",
	"ACCESS_SECRET", "ALLOWED_ORIGINS", "ROLLBAR_TOKEN",
	"QUEUE_WORKERS", "QUEUE_SIZE", "QUEUE_MAX_RETRIES", "QUEUE_RETRY_BACKOFF",
	"BATCH_SIZE", "SUMMARY_CACHE_TTL", "AWARD_MAX_POINTS",
}

// LoadConfig reads <path>/.env into the environment, then <path>/app.env and
// the environment through viper. Both files are optional.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !os.IsNotExist(err) {
		return config, errors.Wrap(err, "load .env")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for _, key := range keys {
		if err = v.BindEnv(key); err != nil {
			return config, errors.Wrapf(err, "bind %s", key)
		}
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, errors.Wrap(err, "read app.env")
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "decode config")
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return errors.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessSecret == "" {
		return errors.New("ACCESS_SECRET is required")
	}
	if c.QueueWorkers <= 0 {
		return errors.New("QUEUE_WORKERS must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.New("QUEUE_SIZE must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	if c.AwardMaxPoints <= 0 {
		return errors.New("AWARD_MAX_POINTS must be positive")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}
