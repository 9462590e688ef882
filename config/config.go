// Package config loads the server configuration from flags, environment
// variables and an optional config file through viper.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables, e.g. VIDGRAPH_ADDR.
const EnvPrefix = "VIDGRAPH"

// Config is the complete server configuration.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	Endpoint        string        `mapstructure:"endpoint"`
	Playground      bool          `mapstructure:"playground"`
	Gzip            bool          `mapstructure:"gzip"`
	H2C             bool          `mapstructure:"h2c"`
	MetricsPath     string        `mapstructure:"metrics_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Log             Log           `mapstructure:"log"`
	Seed            Seed          `mapstructure:"seed"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Seed is the data the in-memory stores start with.
type Seed struct {
	Channels []SeedChannel `mapstructure:"channels"`
	Videos   []SeedVideo   `mapstructure:"videos"`
}

// SeedChannel is a channel created at startup.
type SeedChannel struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// SeedVideo is a video created at startup.
type SeedVideo struct {
	ID        string `mapstructure:"id"`
	Title     string `mapstructure:"title"`
	Duration  int    `mapstructure:"duration"`
	Released  bool   `mapstructure:"released"`
	Watched   bool   `mapstructure:"watched"`
	ChannelID string `mapstructure:"channel_id"`
}

// DefaultSeed mirrors the catalogue the lessons are written against.
func DefaultSeed() Seed {
	return Seed{
		Channels: []SeedChannel{
			{ID: "c1", Name: "GraphQL Lessons"},
		},
		Videos: []SeedVideo{
			{ID: "a", Title: "Create a GraphQL Schema", Duration: 120, Released: true, Watched: true, ChannelID: "c1"},
			{ID: "b", Title: "Ember.js CLI", Duration: 240, Released: false, Watched: false},
		},
	}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:            ":3000",
		Endpoint:        "/graphql",
		Playground:      true,
		Gzip:            true,
		MetricsPath:     "/metrics",
		ShutdownTimeout: 10 * time.Second,
		Log:             Log{Level: "info", Format: "json"},
		Seed:            DefaultSeed(),
	}
}

// SetDefaults registers the defaults on v so that every key is known to
// viper, including the ones only set from the environment.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("playground", d.Playground)
	v.SetDefault("gzip", d.Gzip)
	v.SetDefault("h2c", d.H2C)
	v.SetDefault("metrics_path", d.MetricsPath)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Flags declares the command line flags. Flag names match viper keys, with
// dots replaced by dashes.
func Flags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.Addr, "Address to listen on.")
	fs.String("endpoint", d.Endpoint, "Path the GraphQL endpoint is served on.")
	fs.Bool("playground", d.Playground, "Serve the GraphiQL playground on GET requests.")
	fs.Bool("gzip", d.Gzip, "Compress responses when the client accepts gzip.")
	fs.Bool("h2c", d.H2C, "Accept cleartext HTTP/2 connections.")
	fs.String("metrics_path", d.MetricsPath, "Path prometheus metrics are served on. Empty disables them.")
	fs.Duration("shutdown_timeout", d.ShutdownTimeout, "Time allowed for in-flight requests on shutdown.")
	fs.String("log-level", d.Log.Level, "Log level: debug, info, warn or error.")
	fs.String("log-format", d.Log.Format, "Log format: json or console.")
	fs.String("config", "", "Configuration file. Values are overridden by environment variables and flags.")
}

// Bind wires flags and environment variables into v.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	SetDefaults(v)

	for _, key := range []string{"addr", "endpoint", "playground", "gzip", "h2c", "metrics_path", "shutdown_timeout"} {
		if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
			return errors.Wrapf(err, "binding flag %s", key)
		}
	}
	if err := v.BindPFlag("log.level", fs.Lookup("log-level")); err != nil {
		return errors.Wrap(err, "binding flag log-level")
	}
	if err := v.BindPFlag("log.format", fs.Lookup("log-format")); err != nil {
		return errors.Wrap(err, "binding flag log-format")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return nil
}

// Load reads the configuration file named by the "config" key, if any, and
// returns the validated configuration.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", file)
		}
	}

	cfg := Default()
	// Decoding into non-empty slices keeps trailing elements, so the seed
	// starts empty and falls back to the default only when unset.
	cfg.Seed = Seed{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if !v.IsSet("seed") {
		cfg.Seed = DefaultSeed()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must be set")
	}
	if !strings.HasPrefix(c.Endpoint, "/") {
		return errors.Errorf("endpoint %q must start with /", c.Endpoint)
	}
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return errors.Errorf("metrics_path %q must start with /", c.MetricsPath)
	}
	if c.MetricsPath == c.Endpoint {
		return errors.Errorf("metrics_path and endpoint are both %q", c.Endpoint)
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown_timeout must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return errors.Errorf("log.format %q must be json or console", c.Log.Format)
	}

	channels := map[string]bool{}
	for _, ch := range c.Seed.Channels {
		if ch.ID == "" {
			return errors.New("seed channel without id")
		}
		if channels[ch.ID] {
			return errors.Errorf("seed channel %q listed twice", ch.ID)
		}
		channels[ch.ID] = true
	}
	videos := map[string]bool{}
	for _, vid := range c.Seed.Videos {
		if vid.ID == "" {
			return errors.New("seed video without id")
		}
		if videos[vid.ID] {
			return errors.Errorf("seed video %q listed twice", vid.ID)
		}
		videos[vid.ID] = true
		if vid.ChannelID != "" && !channels[vid.ChannelID] {
			return errors.Errorf("seed video %q refers to unknown channel %q", vid.ID, vid.ChannelID)
		}
	}
	return nil
}

// NewLogger builds the zap logger described by l.
func NewLogger(l Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}

	zc := zap.NewProductionConfig()
	if l.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
