package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type GuardConfig struct {
	// ServiceExpirationHours overrides the built-in expiry window per
	// service type.
	ServiceExpirationHours map[model.ServiceType]int
	// StrictLabels logs every humanized label, even in production.
	StrictLabels bool
	// ExpirySweepInterval is how often unclaimed service requests are
	// checked for expiry. Zero disables the sweep.
	ExpirySweepInterval time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Guard       GuardConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()
	v.SetDefault("SERVICE_EXPIRY_SWEEP_INTERVAL", "5m")

	_ = v.ReadInConfig()

	expiration, err := parseExpiration(v.GetString("SERVICE_EXPIRATION_HOURS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Guard: GuardConfig{
			ServiceExpirationHours: expiration,
			StrictLabels:           v.GetBool("GUARD_STRICT_LABELS"),
			ExpirySweepInterval:    v.GetDuration("SERVICE_EXPIRY_SWEEP_INTERVAL"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"*"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}

// parseExpiration reads "TOWING=2,MOVING=72".
func parseExpiration(raw string) (map[model.ServiceType]int, error) {
	items := parseList(raw)
	if len(items) == 0 {
		return nil, nil
	}
	result := make(map[model.ServiceType]int, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("SERVICE_EXPIRATION_HOURS: %q is not TYPE=hours", item)
		}
		hours, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("SERVICE_EXPIRATION_HOURS: invalid hours for %s", key)
		}
		result[model.ServiceType(strings.ToUpper(strings.TrimSpace(key)))] = hours
	}
	return result, nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
