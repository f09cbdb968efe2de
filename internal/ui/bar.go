package ui

import "strings"

// barWidth is the character width of rendered score bars.
const barWidth = 10

// ScoreBar renders a value in [0, 1] as a block-character bar, a compact
// at-a-glance view of confidence next to the numeric score.
func ScoreBar(value float64) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	filled := int(value*barWidth + 0.5)
	var sb strings.Builder
	sb.Grow(barWidth * 3)
	for i := 0; i < barWidth; i++ {
		if i < filled {
			sb.WriteRune('█')
		} else {
			sb.WriteRune('░')
		}
	}
	return sb.String()
}
