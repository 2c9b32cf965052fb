// Package config loads the payload index's tunables: visited-bitset pool
// sizing, the default payload-block threshold, artifact backend selection,
// the optional catalog DSN, and logging, following the teacher's
// viper+mapstructure internal/config.Load pattern (spec.md §4.H expansion).
package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// S3 configures the optional S3-compatible artifact backend.
type S3 struct {
	Bucket         string `mapstructure:"bucket"`
	Prefix         string `mapstructure:"prefix"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// Logging configures the zap logger built by internal/observability.
type Logging struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// Config is the payload index's full set of operator-tunable knobs.
type Config struct {
	VisitedPoolInitialCapacity  int           `mapstructure:"visited_pool_initial_capacity"`
	PayloadBlockDefaultThreshold int          `mapstructure:"payload_block_default_threshold"`
	ArtifactBackend             string        `mapstructure:"artifact_backend"`
	S3                          S3            `mapstructure:"s3"`
	CatalogDSN                  string        `mapstructure:"catalog_dsn"`
	BuildConcurrency            int           `mapstructure:"build_concurrency"`
	BuildRateBurst              int           `mapstructure:"build_rate_burst"`
	OpenTimeout                 time.Duration `mapstructure:"open_timeout"`
	Logging                     Logging       `mapstructure:"logging"`
}

const envPrefix = "PAYLOADINDEX"

var (
	configMu   sync.Mutex
	loaded     *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("visited_pool_initial_capacity", 1024)
	v.SetDefault("payload_block_default_threshold", 1000)
	v.SetDefault("artifact_backend", "local")
	v.SetDefault("s3.force_path_style", false)
	v.SetDefault("catalog_dsn", "")
	v.SetDefault("build_concurrency", 4)
	v.SetDefault("build_rate_burst", 4)
	v.SetDefault("open_timeout", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")
}

// Load builds a Config from defaults, a config file if present
// (payloadindex.{yaml,json} in the working directory), PAYLOADINDEX_*
// environment variables, and finally the supplied runtime overrides, in
// that ascending order of precedence — the same layering the teacher's
// internal/config.Load uses.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("payloadindex")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, o := range overrides {
		for key, val := range o {
			v.Set(key, val)
		}
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	configMu.Lock()
	loaded = cfg
	configMu.Unlock()

	return cfg, nil
}

// GetConfig returns the most recently Load-ed Config, or nil if Load has
// never been called.
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	return loaded
}
