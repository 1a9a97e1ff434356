// Package config loads the settings of the blade command line.
//
// Precedence, highest first: command flags, BLADE_* environment variables,
// the settings file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override (BLADE_MATCHER_THRESHOLD, ...).
const EnvPrefix = "BLADE"

// Pending backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// History backends. Any other value is the path of a SQLite database.
const (
	HistoryMemory = "memory"
	HistoryNone   = "none"
)

// Settings holds the complete application configuration.
type Settings struct {
	Config         string           `mapstructure:"config"`
	Pending        string           `mapstructure:"pending"`
	PendingBackend string           `mapstructure:"pending_backend"`
	Redis          RedisSettings    `mapstructure:"redis"`
	History        string           `mapstructure:"history"`
	HistoryLimit   int              `mapstructure:"history_limit"`
	Matcher        MatcherSettings  `mapstructure:"matcher"`
	Executor       ExecutorSettings `mapstructure:"executor"`
	LogLevel       string           `mapstructure:"log_level"`
	LogFormat      string           `mapstructure:"log_format"`
	Listen         string           `mapstructure:"listen"`

	// HistoryRedact lists regexps of param keys masked before recording.
	HistoryRedact []string `mapstructure:"history_redact"`
	// HistoryKey is a base64 AES-256 key sealing recorded phrases and params.
	HistoryKey     string   `mapstructure:"history_key"`
	HistoryOldKeys []string `mapstructure:"history_old_keys"`

	// Tools is a YAML file of external commands exposed as host commands.
	Tools string `mapstructure:"tools"`
}

// RedisSettings configures the Redis pending store and merge lock.
type RedisSettings struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MatcherSettings tunes phrase matching.
type MatcherSettings struct {
	Threshold             float64 `mapstructure:"threshold"`
	ColorBoost            float64 `mapstructure:"color_boost"`
	BoostCrossesThreshold bool    `mapstructure:"boost_crosses_threshold"`
}

// ExecutorSettings tunes the fallback loop.
type ExecutorSettings struct {
	Retries int           `mapstructure:"retries"`
	Delay   time.Duration `mapstructure:"delay"`
	AutoFix bool          `mapstructure:"auto_fix"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Config:         "intents.yaml",
		Pending:        "pending_intents.yaml",
		PendingBackend: BackendFile,
		Redis: RedisSettings{
			Addr:   "localhost:6379",
			Prefix: "blade:",
		},
		History:      HistoryMemory,
		HistoryLimit: 500,
		Matcher: MatcherSettings{
			Threshold:             domain.DefaultThreshold,
			ColorBoost:            domain.DefaultColorBoost,
			BoostCrossesThreshold: true,
		},
		Executor: ExecutorSettings{
			Retries: domain.DefaultRetries,
			Delay:   domain.DefaultRetryDelay,
			AutoFix: true,
		},
		LogLevel:  "info",
		LogFormat: "text",
		Listen:    ":8080",
	}
}

// flagKeys maps command flag names to setting keys.
var flagKeys = map[string]string{
	"config":          "config",
	"pending":         "pending",
	"pending-backend": "pending_backend",
	"redis-addr":      "redis.addr",
	"redis-password":  "redis.password",
	"redis-db":        "redis.db",
	"history":         "history",
	"tools":           "tools",
	"threshold":       "matcher.threshold",
	"retries":         "executor.retries",
	"delay":           "executor.delay",
	"auto-fix":        "executor.auto_fix",
	"log-level":       "log_level",
	"log-format":      "log_format",
	"listen":          "listen",
}

// Load reads settings from path (or blade.yaml in the working directory and
// $HOME/.config/blade when path is empty), the environment and flags.
// flags may be nil; only flags listed in flagKeys are bound.
func Load(path string, flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if key, ok := flagKeys[f.Name]; ok {
				bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
			}
		})
		if bindErr != nil {
			return Settings{}, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("blade")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/blade")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks values that would make the engine misbehave.
func (s Settings) Validate() error {
	var errs []error
	switch s.PendingBackend {
	case BackendFile, BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("invalid pending_backend %q (must be file, memory or redis)", s.PendingBackend))
	}
	if s.Matcher.Threshold < 0 || s.Matcher.Threshold > 1 {
		errs = append(errs, fmt.Errorf("matcher.threshold must be within [0, 1], got %v", s.Matcher.Threshold))
	}
	if s.Matcher.ColorBoost < 0 {
		errs = append(errs, fmt.Errorf("matcher.color_boost must not be negative"))
	}
	if s.Executor.Retries < 0 {
		errs = append(errs, fmt.Errorf("executor.retries must not be negative"))
	}
	if s.Executor.Delay < 0 {
		errs = append(errs, fmt.Errorf("executor.delay must not be negative"))
	}
	if strings.TrimSpace(s.Config) == "" {
		errs = append(errs, fmt.Errorf("config path is required"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("config", d.Config)
	v.SetDefault("pending", d.Pending)
	v.SetDefault("pending_backend", d.PendingBackend)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("redis.ttl", d.Redis.TTL)
	v.SetDefault("history", d.History)
	v.SetDefault("history_limit", d.HistoryLimit)
	v.SetDefault("history_redact", d.HistoryRedact)
	v.SetDefault("history_key", d.HistoryKey)
	v.SetDefault("history_old_keys", d.HistoryOldKeys)
	v.SetDefault("tools", d.Tools)
	v.SetDefault("matcher.threshold", d.Matcher.Threshold)
	v.SetDefault("matcher.color_boost", d.Matcher.ColorBoost)
	v.SetDefault("matcher.boost_crosses_threshold", d.Matcher.BoostCrossesThreshold)
	v.SetDefault("executor.retries", d.Executor.Retries)
	v.SetDefault("executor.delay", d.Executor.Delay)
	v.SetDefault("executor.auto_fix", d.Executor.AutoFix)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("listen", d.Listen)
}
