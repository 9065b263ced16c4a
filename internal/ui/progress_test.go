package ui

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestProgressReaderCounts(t *testing.T) {
	data := strings.Repeat("x", 1000)
	var out bytes.Buffer
	pr := NewProgressReader("upload", int64(len(data)), strings.NewReader(data), &out)

	n, err := io.Copy(io.Discard, pr)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1000 || pr.Current != 1000 {
		t.Errorf("read %d, counted %d", n, pr.Current)
	}
	if pr.Fraction() != 1 {
		t.Errorf("Fraction = %v", pr.Fraction())
	}
	if !strings.Contains(out.String(), "100.0%") {
		t.Errorf("final frame missing: %q", out.String())
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Errorf("expected exactly one trailing newline: %q", out.String())
	}
}

func TestProgressReaderNilOut(t *testing.T) {
	pr := NewProgressReader("upload", 3, strings.NewReader("abc"), nil)
	if _, err := io.ReadAll(pr); err != nil {
		t.Fatal(err)
	}
	if pr.Current != 3 {
		t.Errorf("Current = %d", pr.Current)
	}
}

func TestFractionEmptyTotal(t *testing.T) {
	pr := NewProgressReader("x", 0, strings.NewReader(""), nil)
	if pr.Fraction() != 1 {
		t.Errorf("Fraction = %v", pr.Fraction())
	}
}

func TestBar(t *testing.T) {
	// lipgloss drops colors when not writing to a terminal, so the raw
	// cells are comparable.
	bar := Bar(0.5, 10)
	if strings.Count(bar, "█") != 5 || strings.Count(bar, "░") != 5 {
		t.Errorf("Bar(0.5, 10) = %q", bar)
	}
	if strings.Count(Bar(2, 4), "█") != 4 {
		t.Error("fraction above 1 should clamp")
	}
	if strings.Count(Bar(-1, 4), "░") != 4 {
		t.Error("fraction below 0 should clamp")
	}
}
