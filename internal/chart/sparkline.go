package chart

import (
	"math"
	"strings"

	"github.com/samber/lo"
)

// Braille cells from empty to full, four sub-steps per text line
var brailleBlocks = []rune{'⠀', '⣀', '⣤', '⣶', '⣿'}

// Sparkline renders values as a two-line braille bar chart, one column per value.
// Fewer than two values produce an empty string.
func Sparkline(values []float64) string {
	return SparklineRows(values, 2)
}

// SparklineRows renders values as a braille bar chart with the given number of text lines
func SparklineRows(values []float64, rows int) string {
	if len(values) < 2 || rows < 1 {
		return ""
	}

	minVal := lo.Min(values)
	rangeVal := lo.Max(values) - minVal
	if rangeVal == 0 {
		rangeVal = 1 // Avoid division by zero
	}

	steps := float64(len(brailleBlocks) - 1)
	lines := make([][]rune, rows)
	for i := range lines {
		lines[i] = make([]rune, len(values))
	}

	for x, val := range values {
		// Height of this column in sub-steps, counted from the bottom
		height := (val - minVal) / rangeVal * float64(rows) * steps

		for y := 0; y < rows; y++ {
			line := rows - 1 - y
			filled := height - float64(y)*steps
			idx := int(math.Round(math.Max(0, math.Min(steps, filled))))
			lines[line][x] = brailleBlocks[idx]
		}
		// Keep a visible baseline under every column
		if lines[rows-1][x] == brailleBlocks[0] {
			lines[rows-1][x] = brailleBlocks[1]
		}
	}

	out := make([]string, rows)
	for i, line := range lines {
		out[i] = string(line)
	}
	return strings.Join(out, "\n")
}
