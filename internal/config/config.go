// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Series  SeriesConfig  `mapstructure:"series"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SeriesConfig identifies the series to crawl.
type SeriesConfig struct {
	Name    string `mapstructure:"name"`
	TitleNo int    `mapstructure:"title_no"`
	ListURL string `mapstructure:"list_url"`
	// Pages is how many catalog pages the chapter list spans.
	Pages int   `mapstructure:"pages"`
	Start int   `mapstructure:"start"`
	End   int   `mapstructure:"end"`
	Skip  []int `mapstructure:"skip"`
	// SeasonStarts lists the chapter numbers at which seasons after the
	// first begin; empty means everything is season 1.
	SeasonStarts []int `mapstructure:"season_starts"`
	// Arcs names story arcs by the chapter each one starts at.
	Arcs []ArcConfig `mapstructure:"arcs"`
}

// ArcConfig names the arc beginning at a chapter.
type ArcConfig struct {
	Start int    `mapstructure:"start"`
	Name  string `mapstructure:"name"`
}

// HTTPConfig configures fetch timeout, retry, and per-host rate behavior.
type HTTPConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	Referer        string  `mapstructure:"referer"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     uint    `mapstructure:"max_retries"`
	BackoffBaseMs  int     `mapstructure:"backoff_base_ms"`
	HostRPS        float64 `mapstructure:"host_rps"`
	HostBurst      int     `mapstructure:"host_burst"`
}

// OutputConfig sets where the CSV export lands.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// MetricsConfig enables the ops endpoint when Addr is non-empty.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOONSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.user_agent", "toonstats/0.1")
	v.SetDefault("http.referer", "https://www.webtoons.com/")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 5)
	v.SetDefault("http.backoff_base_ms", 1000)
	v.SetDefault("http.host_rps", 0)
	v.SetDefault("http.host_burst", 8)
	v.SetDefault("output.dir", "output")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Series.TitleNo <= 0 {
		return fmt.Errorf("series.title_no must be > 0")
	}
	if c.Series.ListURL == "" {
		return fmt.Errorf("series.list_url must be set")
	}
	if c.Series.Pages <= 0 {
		return fmt.Errorf("series.pages must be > 0")
	}
	if c.Series.Start < 1 || c.Series.End < c.Series.Start {
		return fmt.Errorf("series chapter range [%d, %d] is invalid", c.Series.Start, c.Series.End)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	for _, a := range c.Series.Arcs {
		if a.Start < 1 || a.Name == "" {
			return fmt.Errorf("series.arcs entries need start >= 1 and a name")
		}
	}
	return nil
}

// Timeout returns the HTTP timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase returns the retry backoff base as a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}
