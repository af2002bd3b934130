package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Asset    AssetConfig    `mapstructure:"asset"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Gate     GateConfig     `mapstructure:"gate"`
	Backfill BackfillConfig `mapstructure:"backfill"`
	Stream   StreamConfig   `mapstructure:"stream"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Collect string `mapstructure:"collect"`
}

type AssetConfig struct {
	ID string `mapstructure:"id"`
}

type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	APIKey  string        `mapstructure:"api_key"`
}

// GateConfig carries the fetch gate's two windows. MinInterval is the hard
// floor between upstream calls; CacheTTL is how long a fetched sample is
// served as fresh. CacheTTL larger than MinInterval is allowed.
type GateConfig struct {
	MinInterval    time.Duration `mapstructure:"min_interval"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type BackfillConfig struct {
	Window       time.Duration `mapstructure:"window"`
	MinGap       time.Duration `mapstructure:"min_gap"`
	LookbackDays int           `mapstructure:"lookback_days"`
	MaxGaps      int           `mapstructure:"max_gaps"`
}

type StreamConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	SendBuffer int  `mapstructure:"send_buffer"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.collect", "@every 1m")
	v.SetDefault("asset.id", "bitcoin")
	v.SetDefault("upstream.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("upstream.timeout", "10s")
	// Conservative CoinGecko free-tier pacing: one call per 15s floor,
	// samples served as fresh for 30s.
	v.SetDefault("gate.min_interval", "15s")
	v.SetDefault("gate.cache_ttl", "30s")
	v.SetDefault("gate.fetch_timeout", "10s")
	v.SetDefault("gate.request_timeout", "12s")
	v.SetDefault("backfill.window", "6h")
	v.SetDefault("backfill.min_gap", "1h")
	v.SetDefault("backfill.lookback_days", 30)
	v.SetDefault("backfill.max_gaps", 10)
	v.SetDefault("stream.enabled", true)
	v.SetDefault("stream.send_buffer", 16)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
