// config реализует конфигурацию wishlist-service: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	DB       DBConfig      `yaml:"db"`
	Auth     AuthConfig    `yaml:"auth"`
	Cache    CacheConfig   `yaml:"cache"`
	Limits   LimitsConfig  `yaml:"limits"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — публичный REST-сервер (API + health/metrics).
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig — настройки подключения к MongoDB.
// Имя базы берётся из пути URI, по умолчанию "wishlists".
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
}

// AuthConfig — проверка токенов сессии. Выпуск токенов — забота внешнего auth-сервиса.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"JWT_SECRET"  env-required:"true"`
	CookieName string        `yaml:"cookie_name" env:"AUTH_COOKIE" env-default:"token"`
	Issuer     string        `yaml:"issuer"      env:"JWT_ISSUER"`
	Leeway     time.Duration `yaml:"leeway"      env:"JWT_LEEWAY"  env-default:"5s"`
}

// CacheConfig — опциональный Redis-кэш профилей пользователей.
// Пустой RedisURL отключает кэш.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	UserTTL  time.Duration `yaml:"user_ttl"  env:"USER_CACHE_TTL" env-default:"5m"`
}

// LimitsConfig — ограничения на входные данные и попытки записи.
type LimitsConfig struct {
	// Максимальная длина комментария в символах после TrimSpace.
	CommentMaxLen int `yaml:"comment_max_len" env:"COMMENT_MAX_LEN" env-default:"2000"`
	// Максимальная длина эмодзи в символах (ZWJ-последовательности длиннее одного символа).
	EmojiMaxLen int `yaml:"emoji_max_len" env:"EMOJI_MAX_LEN" env-default:"16"`
	// Сколько раз повторять find-or-create реакции при гонке с параллельной записью.
	ReactionAttempts int `yaml:"reaction_attempts" env:"REACTION_ATTEMPTS" env-default:"3"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Auth.CookieName == "" {
		return fmt.Errorf("auth.cookie_name must not be empty")
	}

	if c.Auth.Leeway < 0 {
		return fmt.Errorf("auth.leeway must be >= 0")
	}

	if c.Cache.RedisURL != "" && c.Cache.UserTTL <= 0 {
		return fmt.Errorf("cache.user_ttl must be > 0 when redis is enabled")
	}

	if c.Limits.CommentMaxLen <= 0 {
		return fmt.Errorf("limits.comment_max_len must be > 0")
	}

	if c.Limits.EmojiMaxLen <= 0 {
		return fmt.Errorf("limits.emoji_max_len must be > 0")
	}

	if c.Limits.ReactionAttempts <= 0 {
		return fmt.Errorf("limits.reaction_attempts must be > 0")
	}

	if c.Limits.ReactionAttempts > 10 {
		return fmt.Errorf("limits.reaction_attempts is too large (<= 10)")
	}

	return nil
}
