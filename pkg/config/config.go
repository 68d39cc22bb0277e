package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ilkoid/mcp-s3/pkg/fuzzy"
)

// Драйверы объектного хранилища.
const (
	DriverMinio = "minio" // minio-go, любой S3-совместимый endpoint
	DriverAWS   = "aws"   // aws-sdk-go-v2, shared config профили
)

// Переменные окружения, которые перекрывают значения из файла.
const (
	EnvBucket  = "MCP_S3_BUCKET"
	EnvPrefix  = "MCP_S3_PREFIX"
	EnvProfile = "MCP_S3_PROFILE"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	S3      S3Config      `yaml:"s3"`
	Lookup  LookupConfig  `yaml:"lookup"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// S3Config — настройки объектного хранилища.
type S3Config struct {
	Driver    string  `yaml:"driver"`   // "minio" (по умолчанию) или "aws"
	Endpoint  string  `yaml:"endpoint"` // host:port или URL; пусто = AWS S3
	Region    string  `yaml:"region"`
	Bucket    string  `yaml:"bucket"`
	Prefix    string  `yaml:"prefix"`
	Profile   string  `yaml:"profile"`    // профиль в ~/.aws/credentials
	AccessKey string  `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string  `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool    `yaml:"use_ssl"`
	MaxKeys   int     `yaml:"max_keys"`   // 0 → 1000 (одна страница S3), -1 → без ограничения
	RateLimit float64 `yaml:"rate_limit"` // запросов листинга в секунду, 0 = без лимита
}

// LookupConfig — параметры поиска похожих ключей.
type LookupConfig struct {
	Limit  int    `yaml:"limit"`
	Scorer string `yaml:"scorer"` // weighted | ratio | subsequence
}

// ServerConfig — параметры stdio сервера инструментов.
type ServerConfig struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version"`
	CallTimeout time.Duration `yaml:"call_timeout"` // "30s", "1m"
}

// LogConfig — настройки логгера. stdout занят транспортом, поэтому только stderr или файл.
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // console | json
}

// MetricsConfig — адрес HTTP listener для /metrics. Пусто = выключено.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Значения по умолчанию.
const (
	DefaultDriver      = DriverMinio
	DefaultRegion      = "us-east-1"
	DefaultProfile     = "default"
	DefaultEndpoint    = "s3.amazonaws.com"
	DefaultMaxKeys     = 1000
	DefaultServerName  = "mcp_s3"
	DefaultCallTimeout = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
)

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает содержимое config.yaml.
//
// Порядок: ${VAR} подстановка → YAML → ENV overrides → дефолты → валидация.
func Parse(raw []byte) (*AppConfig, error) {
	contentWithEnv := os.ExpandEnv(string(raw))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v, ok := os.LookupEnv(EnvBucket); ok && v != "" {
		c.S3.Bucket = v
	}
	// пустой префикс — валидное значение (весь бакет)
	if v, ok := os.LookupEnv(EnvPrefix); ok {
		c.S3.Prefix = v
	}
	if v, ok := os.LookupEnv(EnvProfile); ok && v != "" {
		c.S3.Profile = v
	}
}

func (c *AppConfig) applyDefaults() {
	c.S3.Driver = strings.ToLower(strings.TrimSpace(c.S3.Driver))
	if c.S3.Driver == "" {
		c.S3.Driver = DefaultDriver
	}
	if c.S3.Region == "" {
		c.S3.Region = DefaultRegion
	}
	if c.S3.Profile == "" {
		c.S3.Profile = DefaultProfile
	}
	// Без endpoint идём в AWS, а там только https
	if c.S3.Endpoint == "" && c.S3.Driver == DriverMinio {
		c.S3.Endpoint = DefaultEndpoint
		c.S3.UseSSL = true
	}
	if c.S3.MaxKeys == 0 {
		c.S3.MaxKeys = DefaultMaxKeys
	}

	if c.Lookup.Limit == 0 {
		c.Lookup.Limit = fuzzy.DefaultLimit
	}
	if c.Lookup.Scorer == "" {
		c.Lookup.Scorer = string(fuzzy.ScorerWeighted)
	}

	if c.Server.Name == "" {
		c.Server.Name = DefaultServerName
	}
	if c.Server.CallTimeout == 0 {
		c.Server.CallTimeout = DefaultCallTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required (or set %s)", EnvBucket)
	}
	switch c.S3.Driver {
	case DriverMinio, DriverAWS:
	default:
		return fmt.Errorf("s3.driver must be %q or %q, got %q", DriverMinio, DriverAWS, c.S3.Driver)
	}
	if c.S3.MaxKeys < -1 {
		return fmt.Errorf("s3.max_keys must be positive or -1, got %d", c.S3.MaxKeys)
	}
	if c.S3.RateLimit < 0 {
		return fmt.Errorf("s3.rate_limit must not be negative")
	}
	if c.Lookup.Limit < 0 {
		return fmt.Errorf("lookup.limit must be positive, got %d", c.Lookup.Limit)
	}
	if _, err := fuzzy.ParseScorer(c.Lookup.Scorer); err != nil {
		return fmt.Errorf("lookup.scorer: %w", err)
	}
	if c.Server.CallTimeout < 0 {
		return fmt.Errorf("server.call_timeout must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
