package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBackendURL = "http://localhost:8000/api/"
	defaultTimeout    = 60 * time.Second
	envProduction     = "production"
)

var ErrBackendURLRequired = errors.New("BACKEND_URL is required")

// Config содержит конфигурацию приложения.
type Config struct {
	RunAddress      string
	BackendURL      string
	DatabaseURI     string
	RefreshInterval time.Duration
	GoEnv           string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogHTTPBodies  bool

	FallbackQuotesFile string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSS3Endpoint      string
}

// Load загружает конфигурацию из .env файлов, флагов командной строки и переменных окружения.
// Приоритет: переменные окружения > флаги > значения по умолчанию.
// Файлы .env.<GO_ENV> и .env не перезаписывают уже заданные переменные.
func Load() (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.BackendURL, "b", defaultBackendURL, "базовый URL REST API бэкенда")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "строка подключения к PostgreSQL")
	flag.DurationVar(&cfg.RefreshInterval, "i", 0, "интервал фонового обновления, 0 - только при старте")
	flag.Parse()

	if v := os.Getenv("RUN_ADDRESS"); v != "" {
		cfg.RunAddress = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("DATABASE_URI"); v != "" {
		cfg.DatabaseURI = v
	}
	cfg.RefreshInterval = envDuration("REFRESH_INTERVAL", cfg.RefreshInterval)

	cfg.GoEnv = getEnv("GO_ENV", "development")

	cfg.ConnectTimeout = envDuration("HTTP_CONNECT_TIMEOUT", defaultTimeout)
	cfg.ReadTimeout = envDuration("HTTP_READ_TIMEOUT", defaultTimeout)
	cfg.WriteTimeout = envDuration("HTTP_WRITE_TIMEOUT", defaultTimeout)

	// Полные тела запросов пишутся в журнал только вне production
	cfg.LogHTTPBodies = !cfg.IsProduction()
	if v := os.Getenv("LOG_HTTP_BODIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogHTTPBodies = b
		}
	}

	cfg.FallbackQuotesFile = os.Getenv("FALLBACK_QUOTES_FILE")

	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.AWSS3Bucket = os.Getenv("AWS_S3_BUCKET")
	cfg.AWSAccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.AWSS3Endpoint = os.Getenv("AWS_S3_ENDPOINT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return ErrBackendURLRequired
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative: %s", c.RefreshInterval)
	}
	return nil
}

// IsProduction сообщает, запущено ли приложение в production.
func (c *Config) IsProduction() bool {
	return c.GoEnv == envProduction
}

// PhotosEnabled сообщает, настроено ли хранилище фото.
func (c *Config) PhotosEnabled() bool {
	return c.AWSS3Bucket != ""
}

func loadEnvFiles() {
	env := getEnv("GO_ENV", "development")
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err == nil {
		log.Printf("Loaded configuration from %s", envFile)
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
