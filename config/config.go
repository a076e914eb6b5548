// Ininicializing common application configuration
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	App       AppConfig       `mapstructure:"app"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Insight   InsightConfig   `mapstructure:"insight"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	// RequestTimeout bounds a single handler, outbound calls included.
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode" validate:"oneof=debug release test"`
	LogLevel       string        `mapstructure:"log_level"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
}

type WarehouseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=snowflake postgres"`

	// snowflake
	Account   string `mapstructure:"account"`
	Warehouse string `mapstructure:"warehouse"`
	Role      string `mapstructure:"role"`

	// postgres
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	SSLMode string `mapstructure:"sslmode"`

	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema"`

	SourceTable string `mapstructure:"source_table" validate:"required"`
	AuditTable  string `mapstructure:"audit_table" validate:"required"`

	QueryTimeout    time.Duration `mapstructure:"query_timeout" validate:"gt=0"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type TelegramConfig struct {
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIURL   string        `mapstructure:"api_url" validate:"required,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type InsightConfig struct {
	PullLimit    int    `mapstructure:"pull_limit" validate:"gte=0"`
	NotifyLimit  int    `mapstructure:"notify_limit" validate:"gte=0"`
	MaxLimit     int    `mapstructure:"max_limit" validate:"gte=1"`
	IdleTimeUnit string `mapstructure:"idle_time_unit" validate:"required"`
}

type SchedulerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval" validate:"gt=0"`
	JobTimeout time.Duration `mapstructure:"job_timeout" validate:"gt=0"`
	RunOnStart bool          `mapstructure:"run_on_start"`
}

// RedisConfig is optional; an empty Addr keeps the run lock in-process.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	LockKey     string        `mapstructure:"lock_key"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// legacy environment names of the deployed service
var envBindings = map[string][]string{
	"warehouse.account":   {"SNOWFLAKE_ACCOUNT"},
	"warehouse.user":      {"SNOWFLAKE_USER"},
	"warehouse.password":  {"SNOWFLAKE_PASSWORD"},
	"warehouse.warehouse": {"SNOWFLAKE_WAREHOUSE"},
	"warehouse.database":  {"SNOWFLAKE_DATABASE"},
	"warehouse.schema":    {"SNOWFLAKE_SCHEMA"},
	"warehouse.role":      {"SNOWFLAKE_ROLE"},
	"telegram.bot_token":  {"TELEGRAM_BOT_TOKEN"},
	"telegram.chat_id":    {"TELEGRAM_CHAT_ID"},
	"app.base_url":        {"APP_BASE_URL"},
	"server.port":         {"SERVER_PORT", "PORT"},
	"redis.addr":          {"REDIS_ADDR"},
}

var tableIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

// LoadConfig reads ./config/config.yaml when present and layers environment
// variables (and a .env file) on top of the defaults.
func LoadConfig() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using process environment")
	}

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)

	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()
	for key, names := range envBindings {
		if err := viperInstance.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	err := viperInstance.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		logrus.Info("config file not found, using defaults and environment")
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for name, table := range map[string]string{
		"warehouse.source_table": c.Warehouse.SourceTable,
		"warehouse.audit_table":  c.Warehouse.AuditTable,
	} {
		if !tableIdentifier.MatchString(table) {
			return fmt.Errorf("invalid config: %s %q is not a table identifier", name, table)
		}
	}

	// the audit write after a send outlives the request context by up to one query timeout
	if minWrite := c.Server.RequestTimeout + c.Warehouse.QueryTimeout; c.Server.Timeout > 0 && c.Server.Timeout <= minWrite {
		return fmt.Errorf("invalid config: server.timeout %s must exceed request_timeout + query_timeout (%s)", c.Server.Timeout, minWrite)
	}

	if c.Insight.PullLimit > c.Insight.MaxLimit || c.Insight.NotifyLimit > c.Insight.MaxLimit {
		return fmt.Errorf("invalid config: insight limits must not exceed max_limit %d", c.Insight.MaxLimit)
	}
	return nil
}

// GetServerAddress returns the listen address
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "2.0.0")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "10000")
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_level", "info")

	// App defaults
	v.SetDefault("app.name", "FleetInsight")
	v.SetDefault("app.base_url", "http://127.0.0.1:10000")

	// Warehouse defaults
	v.SetDefault("warehouse.driver", "snowflake")
	v.SetDefault("warehouse.account", "")
	v.SetDefault("warehouse.warehouse", "")
	v.SetDefault("warehouse.role", "")
	v.SetDefault("warehouse.host", "localhost")
	v.SetDefault("warehouse.port", 5432)
	v.SetDefault("warehouse.sslmode", "disable")
	v.SetDefault("warehouse.user", "")
	v.SetDefault("warehouse.password", "")
	v.SetDefault("warehouse.database", "FLEET_ANALYTICS")
	v.SetDefault("warehouse.schema", "ANALYTICS")
	v.SetDefault("warehouse.source_table", "FLEET_ANALYTICS.ANALYTICS.VEHICLE_METRICS")
	v.SetDefault("warehouse.audit_table", "FLEET_ANALYTICS.ANALYTICS.INSIGHT_LOGS")
	v.SetDefault("warehouse.query_timeout", 15*time.Second)
	v.SetDefault("warehouse.max_open_conns", 5)
	v.SetDefault("warehouse.max_idle_conns", 2)
	v.SetDefault("warehouse.conn_max_lifetime", 30*time.Minute)

	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 10*time.Second)

	// Insight defaults
	v.SetDefault("insight.pull_limit", 5)
	v.SetDefault("insight.notify_limit", 3)
	v.SetDefault("insight.max_limit", 100)
	v.SetDefault("insight.idle_time_unit", "sec")

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 60*time.Minute)
	v.SetDefault("scheduler.job_timeout", 2*time.Minute)
	v.SetDefault("scheduler.run_on_start", false)

	// Redis defaults
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_key", "fleet_insight:notify:lock")
	v.SetDefault("redis.lock_ttl", 5*time.Minute)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
}
