package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the CLI configuration. Values come from flags, SHED_* environment
// variables and an optional config file, in that order of precedence.
type Config struct {
	Table    string `mapstructure:"table"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Scan struct {
		MaxSegments       int     `mapstructure:"max_segments"`
		Concurrency       int     `mapstructure:"concurrency"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		PageLimit         int32   `mapstructure:"page_limit"`
	} `mapstructure:"scan"`

	CPU struct {
		Workers int64 `mapstructure:"workers"`
	} `mapstructure:"cpu"`

	Journal struct {
		Backend string `mapstructure:"backend"`
		Bucket  string `mapstructure:"bucket"`
		Prefix  string `mapstructure:"prefix"`
		Dir     string `mapstructure:"dir"`
		Codec   string `mapstructure:"codec"`
	} `mapstructure:"journal"`

	MinIO struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Secure    bool   `mapstructure:"secure"`
	} `mapstructure:"minio"`
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("shed", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.String("config", "", "path to a config file (json, yaml or toml)")
	fs.String("table", "", "DynamoDB table name")
	fs.String("region", "", "AWS region")
	fs.String("endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "console", "log format: console or json")
	fs.Int("max-segments", 1_000_000, "upper bound on parallel scan segments")
	fs.Int("concurrency", 0, "segments scanned at once (0 = all)")
	fs.Float64("rps", 0, "DynamoDB requests per second (0 = unlimited)")
	fs.String("journal", "none", "event journal backend: none, local, s3 or minio")
	return fs
}

var flagKeys = map[string]string{
	"table":        "table",
	"region":       "region",
	"endpoint":     "endpoint",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"max-segments": "scan.max_segments",
	"concurrency":  "scan.concurrency",
	"rps":          "scan.requests_per_second",
	"journal":      "journal.backend",
}

// loadConfig resolves the configuration for already parsed flags.
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("scan.max_segments", 1_000_000)
	v.SetDefault("scan.concurrency", 0)
	v.SetDefault("scan.requests_per_second", 0)
	v.SetDefault("scan.page_limit", 0)
	v.SetDefault("cpu.workers", 0)
	v.SetDefault("journal.backend", "none")
	v.SetDefault("journal.prefix", "events")
	v.SetDefault("journal.dir", "./journal")
	v.SetDefault("journal.codec", "go-json")
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.secure", false)
	for _, k := range []string{"table", "region", "endpoint", "journal.bucket", "minio.access_key", "minio.secret_key"} {
		v.SetDefault(k, "")
	}

	v.SetEnvPrefix("SHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("table", "SHED_TABLE", "BACKEND_TABLE_NAME"); err != nil {
		return nil, err
	}

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, err
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("shed")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Table == "" {
		return errors.New("no table configured: set --table, SHED_TABLE or BACKEND_TABLE_NAME")
	}
	switch c.Journal.Backend {
	case "none", "local":
	case "s3", "minio":
		if c.Journal.Bucket == "" {
			return fmt.Errorf("journal backend %s needs journal.bucket", c.Journal.Backend)
		}
	default:
		return fmt.Errorf("unknown journal backend %q", c.Journal.Backend)
	}
	return nil
}
