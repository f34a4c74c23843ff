package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v2"
)

const (
	defaultAddress        = ":4001"
	defaultAPITimeout     = 30
	defaultRedisNamespace = "cli"
	defaultFeedbackBucket = "feedback"
	defaultShotsBucket    = "screenshots"
)

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	API struct {
		URL string `yaml:"url"`
		// TimeoutSeconds of zero uses the client default; negative disables it.
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"api"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Storage struct {
		Endpoint          string `yaml:"endpoint"`
		Region            string `yaml:"region"`
		AccessKeyID       string `yaml:"access_key_id"`
		SecretAccessKey   string `yaml:"secret_access_key"`
		PublicBaseURL     string `yaml:"public_base_url"`
		FeedbackBucket    string `yaml:"feedback_bucket"`
		ScreenshotsBucket string `yaml:"screenshots_bucket"`
	} `yaml:"storage"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		Namespace string `yaml:"namespace"`
	} `yaml:"redis"`
	Credentials struct {
		File       string `yaml:"file"`
		Passphrase string `yaml:"-"`
	} `yaml:"credentials"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
	Sentry struct {
		DSN         string `yaml:"dsn"`
		Environment string `yaml:"environment"`
	} `yaml:"sentry"`
}

// Load reads the optional YAML file at path, applies environment overrides
// and defaults, and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config file: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig loads from the file named by WEBOMAT_CONFIG.
func LoadConfig() (Config, error) {
	return Load(os.Getenv("WEBOMAT_CONFIG"))
}

func applyEnv(cfg *Config) error {
	setString(&cfg.API.URL, "WEBOMAT_API_URL")
	setString(&cfg.Database.URL, "SUPABASE_DB_URL")
	setString(&cfg.Storage.Endpoint, "SUPABASE_S3_ENDPOINT")
	setString(&cfg.Storage.Region, "SUPABASE_S3_REGION")
	setString(&cfg.Storage.AccessKeyID, "SUPABASE_S3_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "SUPABASE_S3_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.PublicBaseURL, "SUPABASE_S3_PUBLIC_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Credentials.File, "WEBOMAT_CREDENTIALS_FILE")
	setString(&cfg.Credentials.Passphrase, "WEBOMAT_PASSPHRASE")
	setString(&cfg.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS_FILE")
	setString(&cfg.Sentry.DSN, "SENTRY_DSN")
	setString(&cfg.Sentry.Environment, "SENTRY_ENVIRONMENT")

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	if v, err := readIntEnv("WEBOMAT_API_TIMEOUT_SECONDS"); err != nil {
		return fmt.Errorf("parse WEBOMAT_API_TIMEOUT_SECONDS: %w", err)
	} else if v != nil {
		cfg.API.TimeoutSeconds = *v
	}
	if v, err := readIntEnv("REDIS_DB"); err != nil {
		return fmt.Errorf("parse REDIS_DB: %w", err)
	} else if v != nil {
		cfg.Redis.DB = *v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = defaultAPITimeout
	}
	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	if cfg.Redis.Namespace == "" {
		cfg.Redis.Namespace = defaultRedisNamespace
	}
	if cfg.Storage.FeedbackBucket == "" {
		cfg.Storage.FeedbackBucket = defaultFeedbackBucket
	}
	if cfg.Storage.ScreenshotsBucket == "" {
		cfg.Storage.ScreenshotsBucket = defaultShotsBucket
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.API.URL == "" {
		result = multierror.Append(result, errors.New("api.url (WEBOMAT_API_URL) is required"))
	} else if u, err := url.ParseRequestURI(c.API.URL); err != nil || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("api.url %q is not an absolute URL", c.API.URL))
	}
	if c.Redis.DB < 0 {
		result = multierror.Append(result, errors.New("redis.db must not be negative"))
	}
	if c.StorageEnabled() || c.Storage.AccessKeyID != "" || c.Storage.SecretAccessKey != "" {
		if c.Storage.Endpoint == "" || c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
			result = multierror.Append(result, errors.New("storage needs endpoint, access key id and secret access key together"))
		}
		if c.Storage.PublicBaseURL == "" {
			result = multierror.Append(result, errors.New("storage.public_base_url (SUPABASE_S3_PUBLIC_URL) is required when storage is configured"))
		}
	}
	for _, o := range c.Server.AllowedOrigins {
		if o == "*" {
			continue
		}
		if u, err := url.Parse(o); err != nil || u.Scheme == "" || u.Host == "" {
			result = multierror.Append(result, fmt.Errorf("allowed origin %q is not a URL", o))
		}
	}
	return result.ErrorOrNil()
}

// StorageEnabled reports whether an S3 endpoint is configured.
func (c Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func readIntEnv(key string) (*int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
