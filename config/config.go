package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

// Config — все настройки монитора.
type Config struct {
	Portal   PortalConfig   `yaml:"portal"`
	Search   SearchConfig   `yaml:"search"`
	Telegram TelegramConfig `yaml:"telegram"`
	State    StateConfig    `yaml:"state"`
	Log      LogConfig      `yaml:"log"`
	Timezone string         `yaml:"timezone"`
}

// PortalConfig — адрес портала и учётные данные. Пустые BaseURL и Module
// означают значения по умолчанию клиента портала.
type PortalConfig struct {
	BaseURL  string        `yaml:"baseUrl"`
	Module   string        `yaml:"module"`
	RUN      string        `yaml:"run"`
	Password string        `yaml:"password"`
	Region   string        `yaml:"region"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SearchConfig — что и как часто искать.
type SearchConfig struct {
	Offices      []string      `yaml:"offices"`
	DaysToSearch int           `yaml:"daysToSearch"`
	WaitTime     time.Duration `yaml:"waitTime"`
	RolloverYear bool          `yaml:"rolloverYear"`
}

type TelegramConfig struct {
	Token    string `yaml:"token"`
	ChatID   int64  `yaml:"chatId"`
	Endpoint string `yaml:"endpoint"` // пусто — официальный API; формат tgbotapi.APIEndpoint
}

// Enabled — уведомления идут в Telegram, а не в лог.
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

// StateConfig выбирает, где хранится лучшая найденная запись.
type StateConfig struct {
	Backend string      `yaml:"backend"` // file | redis
	File    string      `yaml:"file"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Load собирает конфиг: значения по умолчанию, затем YAML (CONFIG_PATH или ./config.yaml),
// затем .env (уже заданные переменные не перетираются), затем переменные окружения.
// Валидацию вызывает тот, кому нужны все поля (см. Validate).
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(defaultConfigFile); err == nil {
		if err := hydrateFromFile(cfg, defaultConfigFile); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", defaultEnvFile, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RUN"); v != "" {
		cfg.Portal.RUN = v
	}
	if v := os.Getenv("PASSWORD"); v != "" {
		cfg.Portal.Password = v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.Portal.Region = v
	}
	if v := os.Getenv("PORTAL_URL"); v != "" {
		cfg.Portal.BaseURL = v
	}
	if v := os.Getenv("PORTAL_MODULE"); v != "" {
		cfg.Portal.Module = v
	}
	if v := os.Getenv("OFFICES"); v != "" {
		cfg.Search.Offices = splitList(v)
	}
	if v := os.Getenv("DAYS_TO_SEARCH"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DAYS_TO_SEARCH: %w", err)
		}
		cfg.Search.DaysToSearch = parsed
	}
	// WAIT_TIME задаётся в секундах.
	if v := os.Getenv("WAIT_TIME"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WAIT_TIME: %w", err)
		}
		cfg.Search.WaitTime = time.Duration(parsed) * time.Second
	}
	if v := os.Getenv("ROLLOVER_YEAR"); v != "" {
		cfg.Search.RolloverYear = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_API_ENDPOINT"); v != "" {
		cfg.Telegram.Endpoint = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = parsed
	}
	if v := os.Getenv("STATE_BACKEND"); v != "" {
		cfg.State.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.State.File = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.State.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.State.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.State.Redis.DB = parsed
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			Timeout: 20 * time.Second,
		},
		Search: SearchConfig{
			DaysToSearch: 30,
			WaitTime:     60 * time.Second,
		},
		State: StateConfig{
			Backend: BackendFile,
			File:    "appointment_state.json",
		},
		Log: LogConfig{
			File:  "appointment_checker.log",
			Level: "info",
		},
		Timezone: "America/Santiago",
	}
}

// Validate проверяет всё, что нужно для запуска цикла проверки.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Portal.RUN) == "" {
		return errors.New("portal.run (RUN) cannot be empty")
	}
	if c.Portal.Password == "" {
		return errors.New("portal.password (PASSWORD) cannot be empty")
	}
	if strings.TrimSpace(c.Portal.Region) == "" {
		return errors.New("portal.region (REGION) cannot be empty")
	}
	if len(c.Search.Offices) == 0 {
		return errors.New("search.offices (OFFICES) must list at least one office")
	}
	if c.Search.DaysToSearch <= 0 {
		return errors.New("search.daysToSearch must be positive")
	}
	if c.Search.WaitTime <= 0 {
		return errors.New("search.waitTime must be positive")
	}
	if c.Telegram.Enabled() && c.Telegram.ChatID == 0 {
		return errors.New("telegram.chatId (TELEGRAM_CHAT_ID) is required when a bot token is set")
	}
	return c.ValidateState()
}

// ValidateState проверяет только хранилище: его достаточно командам status и forget.
func (c *Config) ValidateState() error {
	switch c.State.Backend {
	case BackendFile:
		if strings.TrimSpace(c.State.File) == "" {
			return errors.New("state.file cannot be empty for the file backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.State.Redis.Addr) == "" {
			return errors.New("state.redis.addr (REDIS_ADDR) cannot be empty for the redis backend")
		}
	default:
		return fmt.Errorf("state.backend must be %q or %q, got %q", BackendFile, BackendRedis, c.State.Backend)
	}
	return nil
}
