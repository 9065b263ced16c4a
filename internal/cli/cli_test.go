package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"gopher-upload/internal/cache"
	"gopher-upload/internal/config"
	"gopher-upload/internal/errors"
	"gopher-upload/internal/server"
)

func run(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTransformCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "transform: none\n"},
		{[]string{"--translate", "10,20", "--rotate", "45", "--scale", "2"},
			"transform: translate(10px, 20px) rotate(45deg) scale(2)\n"},
		{[]string{"--3d", "--translate", "1,2"}, "transform: translate3d(1px, 2px, 0px)\n"},
		{[]string{"--apply", "skewX(10deg)", "--origin", "50,25"},
			"transform: skewX(10deg)\ntransform-origin: 50px 25px\n"},
	}
	for _, tt := range tests {
		c := New(io.Discard, LogInfo)
		got, err := run(t, c.ClientCommand(), append([]string{"transform"}, tt.args...)...)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if got != tt.want {
			t.Errorf("%v: got %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestTransformCommandErrors(t *testing.T) {
	for _, args := range [][]string{
		{"transform", "--apply", "notAFunction(1)"},
		{"transform", "--translate", "10"},
		{"transform", "--origin", "a,b"},
	} {
		c := New(io.Discard, LogInfo)
		if _, err := run(t, c.ClientCommand(), args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}

	c := New(io.Discard, LogInfo)
	_, err := run(t, c.ClientCommand(), "transform", "--apply", "bogus(1)")
	if !errors.Is(err, errors.ErrCodeInvalidTransform) {
		t.Errorf("err = %v", err)
	}
}

func TestClientCommands(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	cfg.PublicDir = filepath.Join(root, "public")
	cfg.Upload.Dir = filepath.Join(root, "uploads")
	cfg.Upload.TmpDir = t.TempDir()
	s, err := server.New(cfg, cache.NewNullCache(), log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	file := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(file, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	out, err := run(t, c.ClientCommand(), "--server", ts.URL, "upload", "-q", file)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "/uploads/hello.txt" {
		t.Errorf("upload output = %q", out)
	}

	c = New(io.Discard, LogInfo)
	out, err = run(t, c.ClientCommand(), "--server", ts.URL, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "hello.txt") || !strings.Contains(out, "NAME") {
		t.Errorf("list output = %q", out)
	}

	c = New(io.Discard, LogInfo)
	if _, err := run(t, c.ClientCommand(), "--server", ts.URL, "delete", "hello.txt"); err != nil {
		t.Fatal(err)
	}

	c = New(io.Discard, LogInfo)
	out, err = run(t, c.ClientCommand(), "--server", ts.URL, "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("list --json after delete = %q", out)
	}

	c = New(io.Discard, LogInfo)
	_, err = run(t, c.ClientCommand(), "--server", ts.URL, "upload", "-q", filepath.Join(root, "missing"))
	if !errors.Is(err, errors.ErrCodeUploadRejected) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestServeOptionsLoad(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("PUBLIC_DIR", "")

	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("port = 8000\npublic_dir = \"site\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	opts := &serveOptions{}
	cmd := c.serveCommand(opts)
	if err := cmd.ParseFlags([]string{"--config", path, "--port", "9000"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := opts.load(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9000 {
		t.Errorf("flag should override file: port = %d", cfg.Port)
	}
	if cfg.PublicDir != "site" {
		t.Errorf("unset flag should keep file value: public = %q", cfg.PublicDir)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("expected default logger")
	}
	l := log.New(io.Discard)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("expected stored logger")
	}
}
