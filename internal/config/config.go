package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"scholarpath-service/internal/scoring"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // color, json
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
		// Duration is the attempt countdown, e.g. "30m".
		Duration string `yaml:"duration"`
	} `yaml:"quiz"`
	Scholarship struct {
		Tiers scoring.TierTable `yaml:"tiers"`
	} `yaml:"scholarship"`
	Auth struct {
		// Mode selects the verifier: "static" or "introspect".
		Mode          string `yaml:"mode"`
		IntrospectURL string `yaml:"introspect_url"`
		Tokens        []struct {
			Token     string `yaml:"token"`
			UserID    string `yaml:"user_id"`
			FirstName string `yaml:"first_name"`
			Role      string `yaml:"role"`
		} `yaml:"tokens"`
	} `yaml:"auth"`
	Upload struct {
		MaxBytes    int64    `yaml:"max_bytes"`
		AllowedExts []string `yaml:"allowed_exts"`
		S3          struct {
			Endpoint  string `yaml:"endpoint"`
			Region    string `yaml:"region"`
			Bucket    string `yaml:"bucket"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"s3"`
	} `yaml:"upload"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Tiers returns the configured tier table or the canonical default.
func (c Config) Tiers() scoring.TierTable {
	if len(c.Scholarship.Tiers) > 0 {
		return c.Scholarship.Tiers
	}
	return scoring.DefaultTiers
}

// MaxUploadBytes returns the attachment size cap, defaulting to 10MB.
func (c Config) MaxUploadBytes() int64 {
	if c.Upload.MaxBytes > 0 {
		return c.Upload.MaxBytes
	}
	return 10 << 20
}

// AllowedExtensions returns the attachment allow-list, defaulting to the
// usual assignment formats.
func (c Config) AllowedExtensions() []string {
	if len(c.Upload.AllowedExts) > 0 {
		return c.Upload.AllowedExts
	}
	return []string{".pdf", ".doc", ".docx", ".zip", ".png", ".jpg", ".jpeg"}
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
