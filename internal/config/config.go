// Package config holds the server configuration and loads it from TOML
// or YAML files and the environment.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gopher-upload/internal/errors"
)

// Defaults mirror the layout of the original demo: uploads live under
// the public directory so the static handler can serve them too.
const (
	DefaultPort        = 3001
	DefaultPublicDir   = "public"
	DefaultUploadDir   = "public/uploads"
	DefaultUploadURL   = "/uploads"
	DefaultMaxPostSize = 11_000_000_000
	DefaultMaxFileSize = 10_000_000_000
	DefaultMinFileSize = 1
	DefaultImageTypes  = `(?i)\.(gif|jpe?g|png)$`
	DefaultAcceptTypes = `.+`
	DefaultListTTL     = 30 * time.Second
	DefaultDiscovery   = 9999
)

// ImageVersion is a resized variant generated for every uploaded image.
type ImageVersion struct {
	Name   string `toml:"name" yaml:"name"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// Upload configures the upload handler.
type Upload struct {
	Dir          string         `toml:"dir" yaml:"dir"`
	URL          string         `toml:"url" yaml:"url"`
	TmpDir       string         `toml:"tmp_dir" yaml:"tmp_dir"`
	MaxPostSize  int64          `toml:"max_post_size" yaml:"max_post_size"`
	MaxFileSize  int64          `toml:"max_file_size" yaml:"max_file_size"`
	MinFileSize  int64          `toml:"min_file_size" yaml:"min_file_size"`
	AcceptTypes  string         `toml:"accept_file_types" yaml:"accept_file_types"`
	ImageTypes   string         `toml:"image_types" yaml:"image_types"`
	Versions     []ImageVersion `toml:"image_versions" yaml:"image_versions"`
	AllowOrigin  string         `toml:"allow_origin" yaml:"allow_origin"`
	AllowMethods string         `toml:"allow_methods" yaml:"allow_methods"`
}

// Cache configures the /list response cache.
type Cache struct {
	// Backend is "none", "memory" or "redis".
	Backend  string        `toml:"backend" yaml:"backend"`
	RedisURL string        `toml:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
}

// Config is the complete server configuration.
type Config struct {
	Host      string `toml:"host" yaml:"host"`
	Port      int    `toml:"port" yaml:"port"`
	PublicDir string `toml:"public_dir" yaml:"public_dir"`
	TLS       bool   `toml:"tls" yaml:"tls"`

	// DiscoveryPort is the UDP port answering discovery probes; 0 disables it.
	DiscoveryPort int `toml:"discovery_port" yaml:"discovery_port"`

	Upload Upload `toml:"upload" yaml:"upload"`
	Cache  Cache  `toml:"cache" yaml:"cache"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:          DefaultPort,
		PublicDir:     DefaultPublicDir,
		DiscoveryPort: DefaultDiscovery,
		Upload: Upload{
			Dir:         DefaultUploadDir,
			URL:         DefaultUploadURL,
			TmpDir:      os.TempDir(),
			MaxPostSize: DefaultMaxPostSize,
			MaxFileSize: DefaultMaxFileSize,
			MinFileSize: DefaultMinFileSize,
			AcceptTypes: DefaultAcceptTypes,
			ImageTypes:  DefaultImageTypes,
			Versions: []ImageVersion{
				{Name: "thumbs", Width: 80, Height: 80},
				{Name: "medium", Width: 320, Height: 800},
			},
			AllowOrigin:  "*",
			AllowMethods: "OPTIONS, HEAD, GET, POST, PUT, DELETE",
		},
		Cache: Cache{
			Backend: "none",
			TTL:     DefaultListTTL,
		},
	}
}

// Load reads path on top of the defaults, then applies environment
// overrides. An empty path loads defaults and environment only. The
// format is picked from the extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format: %s", path)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := getenv("PUBLIC_DIR"); v != "" {
		c.PublicDir = v
	}
	if v := getenv("UPLOAD_DIR"); v != "" {
		c.Upload.Dir = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Cache.Backend = "redis"
		c.Cache.RedisURL = v
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "port out of range: %d", c.Port)
	}
	if c.Upload.Dir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "upload dir is required")
	}
	if !strings.HasPrefix(c.Upload.URL, "/") {
		return errors.New(errors.ErrCodeInvalidConfig, "upload url must start with /: %q", c.Upload.URL)
	}
	if c.Upload.MaxFileSize > 0 && c.Upload.MinFileSize > c.Upload.MaxFileSize {
		return errors.New(errors.ErrCodeInvalidConfig, "min file size exceeds max file size")
	}
	for _, expr := range []string{c.Upload.AcceptTypes, c.Upload.ImageTypes} {
		if _, err := regexp.Compile(expr); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "bad file type pattern %q", expr)
		}
	}
	seen := make(map[string]bool)
	for _, v := range c.Upload.Versions {
		if v.Name == "" || strings.ContainsAny(v.Name, `/\.`) {
			return errors.New(errors.ErrCodeInvalidConfig, "bad image version name %q", v.Name)
		}
		if v.Width <= 0 || v.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "image version %s needs a positive size", v.Name)
		}
		if seen[v.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate image version %s", v.Name)
		}
		seen[v.Name] = true
	}
	switch c.Cache.Backend {
	case "", "none", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis cache needs redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
