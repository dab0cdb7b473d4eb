// Package config содержит логику чтения конфигурации банковского клиента и тестового сервера.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

const (
	defaultRunAddress  = "localhost:8080"
	defaultTimeout     = 10 * time.Second
	defaultMockLatency = 300 * time.Millisecond
	defaultLogLevel    = "info"

	mockScheme = "mock:"
)

// Config содержит параметры конфигурации.
type Config struct {
	// APIBaseURL — адрес банковского API. Пустое значение или схема mock: включают бэкенд в памяти.
	APIBaseURL      string        `env:"API_BASE_URL"`
	APITimeout      time.Duration `env:"API_TIMEOUT"`
	SessionFile     string        `env:"SESSION_FILE"`
	DatabaseURI     string        `env:"DATABASE_URI"`
	LogLevel        string        `env:"LOG_LEVEL"`
	MockLatency     time.Duration `env:"MOCK_LATENCY"`
	RateLimit       float64       `env:"RATE_LIMIT"`
	BreakerFailures uint32        `env:"BREAKER_FAILURES"`

	RunAddress string `env:"RUN_ADDRESS"`
	JWTSecret  string `env:"JWT_SECRET"`

	// Args — аргументы, оставшиеся после флагов (подкоманда и её параметры).
	Args []string
}

// UseMock сообщает, что вместо настоящего API нужен бэкенд в памяти.
func (c *Config) UseMock() bool {
	base := strings.TrimSpace(c.APIBaseURL)
	return base == "" || strings.HasPrefix(strings.ToLower(base), mockScheme)
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse(name string, args []string) (*Config, error) {
	cfg := &Config{}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetInterspersed(false)

	fs.StringVarP(&cfg.APIBaseURL, "api-url", "u", "", "bank API base URL (empty or mock: uses the in-memory backend)")
	fs.DurationVar(&cfg.APITimeout, "timeout", defaultTimeout, "API request timeout")
	fs.StringVar(&cfg.SessionFile, "session-file", "", "path of the persisted session (defaults to the user config dir)")
	fs.StringVarP(&cfg.DatabaseURI, "database", "d", "", "database URI for the session store")
	fs.StringVarP(&cfg.LogLevel, "log-level", "l", defaultLogLevel, "log level")
	fs.DurationVar(&cfg.MockLatency, "mock-latency", defaultMockLatency, "artificial latency of the in-memory backend")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", 0, "max API requests per second (0 disables)")
	fs.Uint32Var(&cfg.BreakerFailures, "breaker-failures", 0, "consecutive failures before the circuit opens (0 uses the default)")
	fs.StringVarP(&cfg.RunAddress, "address", "a", defaultRunAddress, "address and port for HTTP server")
	fs.StringVarP(&cfg.JWTSecret, "secret", "k", "", "token signing secret")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	cfg.Args = fs.Args()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = defaultTimeout
	}
	if cfg.MockLatency < 0 {
		cfg.MockLatency = 0
	}

	return cfg, nil
}
