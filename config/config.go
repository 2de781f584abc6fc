package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	ServerPort  int

	// Путь к внешнему движку жеребьевки (bbpPairings-совместимый бинарник).
	PairingEnginePath    string
	PairingEngineTimeout time.Duration

	// Разрешать генерацию тура N+1, пока в туре N есть незавершенные партии.
	AllowOpenRoundGeneration bool

	// Cloudflare R2 (архив PGN). Все поля пустые - архив отключен.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// PGNArchiveEnabled reports whether the R2 credentials are complete enough
// to construct the uploader.
func (c *Config) PGNArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	enginePath := os.Getenv("PAIRING_ENGINE_PATH")
	if enginePath == "" {
		return nil, fmt.Errorf("PAIRING_ENGINE_PATH environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080" // Порт по умолчанию
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	timeoutSeconds := 60
	if v := os.Getenv("PAIRING_ENGINE_TIMEOUT_SECONDS"); v != "" {
		timeoutSeconds, err = strconv.Atoi(v)
		if err != nil || timeoutSeconds <= 0 {
			return nil, fmt.Errorf("invalid PAIRING_ENGINE_TIMEOUT_SECONDS environment variable: %q", v)
		}
	}

	allowOpen := true
	if v := os.Getenv("ALLOW_OPEN_ROUND_GENERATION"); v != "" {
		allowOpen, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOW_OPEN_ROUND_GENERATION environment variable: %q", v)
		}
	}

	cfg := &Config{
		DatabaseURL:              dbURL,
		ServerPort:               port,
		PairingEnginePath:        enginePath,
		PairingEngineTimeout:     time.Duration(timeoutSeconds) * time.Second,
		AllowOpenRoundGeneration: allowOpen,
		R2AccountID:              os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:            os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:        os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:             os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:          os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}
