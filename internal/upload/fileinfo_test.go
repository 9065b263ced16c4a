package upload

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photo.png", "photo.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\report.pdf`, "report.pdf"},
		{".htaccess", "htaccess"},
		{"..", "file"},
		{"", "file"},
		{"/", "file"},
		{"  spaced.txt ", "spaced.txt"},
	}
	for _, tt := range tests {
		if got := safeName(tt.in); got != tt.want {
			t.Errorf("safeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNextName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photo.png", "photo (1).png"},
		{"photo (1).png", "photo (2).png"},
		{"photo (9).png", "photo (10).png"},
		{"archive.tar.gz", "archive.tar (1).gz"},
		{"README", "README (1)"},
		{"README (3)", "README (4)"},
	}
	for _, tt := range tests {
		if got := nextName(tt.in); got != tt.want {
			t.Errorf("nextName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "a (1).txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if got := uniqueName(dir, "a.txt"); got != "a (2).txt" {
		t.Errorf("uniqueName = %q", got)
	}
	if got := uniqueName(dir, "b.txt"); got != "b.txt" {
		t.Errorf("uniqueName = %q", got)
	}
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"a.txt", "a (1).txt"} {
		if !validName(name) {
			t.Errorf("validName(%q) = false", name)
		}
	}
	for _, name := range []string{"", "../a.txt", "dir/a.txt", ".hidden", `a\b`} {
		if validName(name) {
			t.Errorf("validName(%q) = true", name)
		}
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("a.png", ""); got != "image/png" {
		t.Errorf("contentType = %q", got)
	}
	if got := contentType("a.png", "image/x-custom"); got != "image/x-custom" {
		t.Errorf("declared type should win: %q", got)
	}
	if got := contentType("a.unknownext", "application/octet-stream"); got != "application/octet-stream" {
		t.Errorf("contentType = %q", got)
	}
}
