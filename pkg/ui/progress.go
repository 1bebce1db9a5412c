package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	barFilled = "█"
	barEmpty  = "░"
	barWidth  = 24
)

// Progress renders a single-line progress bar over the media batch
type Progress struct {
	total   int
	done    int
	failed  int
	start   time.Time
	enabled bool
}

// NewProgress creates a progress display for total items. A zero or negative
// total disables rendering.
func NewProgress(total int) *Progress {
	return &Progress{
		total:   total,
		start:   time.Now(),
		enabled: total > 0,
	}
}

// Advance marks one item finished and redraws the bar
func (p *Progress) Advance(path string) {
	p.done++
	p.render(filepath.Base(path))
}

// Fail marks one item failed and redraws the bar
func (p *Progress) Fail(name string) {
	p.done++
	p.failed++
	p.render(name)
}

func (p *Progress) render(current string) {
	if !p.enabled {
		return
	}

	filled := p.done * barWidth / p.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, barWidth-filled)

	line := fmt.Sprintf("\r[%s] %d/%d %s", bar, p.done, p.total, current)
	if p.failed > 0 {
		line += " " + Red(fmt.Sprintf("(%d failed)", p.failed))
	}
	// Pad so a shorter line fully overwrites the previous one
	fmt.Printf("%-100s", line)
}

// Finish terminates the progress line and prints a summary
func (p *Progress) Finish() {
	if !p.enabled {
		return
	}
	fmt.Println()

	elapsed := time.Since(p.start).Round(time.Second)
	succeeded := p.done - p.failed
	if p.failed > 0 {
		fmt.Printf("%s %d downloaded, %d failed in %s\n", Yellow("done:"), succeeded, p.failed, elapsed)
	} else {
		fmt.Printf("%s %d downloaded in %s\n", Green("done:"), succeeded, elapsed)
	}
}
