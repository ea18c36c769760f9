package ui

import "strings"

// ProgressBar renders pct (0-100) as a fixed-width bar.
func ProgressBar(pct, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return Accent.Render("[") + bar + Accent.Render("]")
}

// HeatGlyph renders one heatmap cell for an intensity level.
func HeatGlyph(level int) string {
	if level < 0 {
		level = 0
	}
	if level >= len(HeatLevels) {
		level = len(HeatLevels) - 1
	}
	glyph := "■"
	if level == 0 {
		glyph = "·"
	}
	return HeatLevels[level].Render(glyph)
}
