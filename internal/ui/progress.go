// Package ui renders upload progress on a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 40

var (
	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

// ProgressReader counts the bytes read through it and redraws a progress
// bar on Out at most every 100ms, and once more when the total is reached.
type ProgressReader struct {
	Label   string
	Total   int64
	Current int64
	Reader  io.Reader
	Out     io.Writer

	startTime  time.Time
	lastUpdate time.Time
	finished   bool
}

// NewProgressReader wraps r. A nil out disables drawing.
func NewProgressReader(label string, total int64, r io.Reader, out io.Writer) *ProgressReader {
	return &ProgressReader{
		Label:     label,
		Total:     total,
		Reader:    r,
		Out:       out,
		startTime: time.Now(),
	}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.Current += int64(n)
	pr.draw()
	return n, err
}

// Fraction returns the completed share in [0, 1].
func (pr *ProgressReader) Fraction() float64 {
	if pr.Total <= 0 {
		return 1
	}
	f := float64(pr.Current) / float64(pr.Total)
	if f > 1 {
		return 1
	}
	return f
}

func (pr *ProgressReader) draw() {
	if pr.Out == nil || pr.finished {
		return
	}
	complete := pr.Current >= pr.Total
	if !complete && time.Since(pr.lastUpdate) < 100*time.Millisecond {
		return
	}
	pr.lastUpdate = time.Now()

	elapsed := time.Since(pr.startTime).Seconds()
	if elapsed == 0 {
		elapsed = 0.0001
	}
	speed := float64(pr.Current) / (1024 * 1024) / elapsed

	fmt.Fprintf(pr.Out, "\r%s [%s] %5.1f%% (%.2f MB/s)",
		labelStyle.Render(pr.Label), Bar(pr.Fraction(), barWidth), pr.Fraction()*100, speed)
	if complete {
		pr.finished = true
		fmt.Fprintln(pr.Out)
	}
}

// Bar renders a bar of width cells with fraction of them filled.
func Bar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(float64(width) * fraction)
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
}
