package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env        string
	ServerPort int
	// Store selects the repository backend: "postgres" or "memory".
	Store      string
	Database   DatabaseConfig
	Session    SessionConfig
	Redis      RedisConfig
	MQ         MQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// SessionConfig controls the cookie-backed session store.
// Store is one of "memory", "postgres" or "redis".
type SessionConfig struct {
	Store      string
	CookieName string
	Lifetime   time.Duration
	Secure     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQConfig selects the domain event backend: "none", "rabbitmq" or "pubsub".
type MQConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// LoadConfig reads configuration from defaults, an optional
// ./config/config.yaml and the environment. A config file that exists but
// cannot be parsed is reported as an error alongside a Config built from
// env and defaults, so callers may log it and continue.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	var fileErr error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fileErr = fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Env:        v.GetString("ENV"),
		ServerPort: v.GetInt("SERVER_PORT"),
		Store:      v.GetString("STORE"),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			UseSSL:   v.GetBool("DB_USE_SSL"),
		},
		Session: SessionConfig{
			Store:      v.GetString("SESSION_STORE"),
			CookieName: v.GetString("SESSION_COOKIE_NAME"),
			Lifetime:   v.GetDuration("SESSION_LIFETIME"),
			Secure:     v.GetBool("SESSION_SECURE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MQ: MQConfig{
			Backend: v.GetString("MQ_BACKEND"),
			Channel: v.GetString("MQ_CHANNEL"),
			RabbitMQ: RabbitMQConfig{
				URL:             v.GetString("RABBITMQ_URL"),
				QueueDurable:    v.GetBool("RABBITMQ_QUEUE_DURABLE"),
				QueueAutoDelete: v.GetBool("RABBITMQ_QUEUE_AUTO_DELETE"),
				PrefetchCount:   v.GetInt("RABBITMQ_PREFETCH_COUNT"),
			},
			PubSub: PubSubConfig{
				ProjectID:          v.GetString("PUBSUB_PROJECT_ID"),
				CredentialsFile:    v.GetString("PUBSUB_CREDENTIALS_FILE"),
				SubscriptionSuffix: v.GetString("PUBSUB_SUBSCRIPTION_SUFFIX"),
			},
		},
	}
	return cfg, fileErr
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("SERVER_PORT", 4000)
	v.SetDefault("STORE", "postgres")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lireddit")
	v.SetDefault("DB_USE_SSL", false)

	v.SetDefault("SESSION_STORE", "postgres")
	v.SetDefault("SESSION_COOKIE_NAME", "qid")
	v.SetDefault("SESSION_LIFETIME", 10*365*24*time.Hour)
	v.SetDefault("SESSION_SECURE", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MQ_BACKEND", "none")
	v.SetDefault("MQ_CHANNEL", "lireddit-events")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE_DURABLE", true)
	v.SetDefault("RABBITMQ_QUEUE_AUTO_DELETE", false)
	v.SetDefault("RABBITMQ_PREFETCH_COUNT", 10)
	v.SetDefault("PUBSUB_PROJECT_ID", "")
	v.SetDefault("PUBSUB_CREDENTIALS_FILE", "")
	v.SetDefault("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub")
}
