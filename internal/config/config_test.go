package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopher-upload/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Port != 3001 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if len(cfg.Upload.Versions) != 2 || cfg.Upload.Versions[0].Name != "thumbs" {
		t.Errorf("Versions = %+v", cfg.Upload.Versions)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "server.toml", `
port = 8080
public_dir = "www"

[upload]
dir = "www/files"
url = "/files"
max_file_size = 1024

[[upload.image_versions]]
name = "small"
width = 50
height = 40

[cache]
backend = "memory"
ttl = "5s"
`)
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.PublicDir != "www" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Upload.URL != "/files" || cfg.Upload.MaxFileSize != 1024 {
		t.Errorf("upload = %+v", cfg.Upload)
	}
	if len(cfg.Upload.Versions) != 1 || cfg.Upload.Versions[0].Width != 50 {
		t.Errorf("versions = %+v", cfg.Upload.Versions)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.TTL != 5*time.Second {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	// untouched fields keep their defaults
	if cfg.Upload.MinFileSize != DefaultMinFileSize {
		t.Errorf("MinFileSize = %d", cfg.Upload.MinFileSize)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "server.yaml", `
port: 9090
upload:
  dir: data
  url: /data
`)
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.Upload.Dir != "data" || cfg.Upload.URL != "/data" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("UPLOAD_DIR", "/srv/uploads")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 4000 || cfg.Upload.Dir != "/srv/uploads" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisURL == "" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestValidateFileSizeLimits(t *testing.T) {
	cfg := Default()
	cfg.Upload.MaxFileSize = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("unlimited max file size rejected: %v", err)
	}

	cfg.Upload.MaxFileSize = 10
	cfg.Upload.MinFileSize = 20
	if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("min above max: err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad extension", "c.ini", "port=1"},
		{"bad toml", "c.toml", "port = ["},
		{"bad url", "c.toml", "[upload]\nurl = \"files\""},
		{"bad version", "c.toml", "[[upload.image_versions]]\nname = \"x\"\nwidth = 0\nheight = 1"},
		{"bad regexp", "c.toml", "[upload]\naccept_file_types = \"(\""},
		{"redis without url", "c.toml", "[cache]\nbackend = \"redis\""},
		{"unknown backend", "c.toml", "[cache]\nbackend = \"memcached\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	cfg.Host = "127.0.0.1"
	if got := cfg.Addr(); got != "127.0.0.1:3001" {
		t.Errorf("Addr = %q", got)
	}
}
