package chat

import "strings"

const (
	thinkingLabel = "Analyzing your question"
	framePeriod   = 8
	maxDots       = 4
)

// Frame returns the waiting indicator for the given tick. The dot count
// cycles 0,1,2,3,4,3,2,1 with period 8: it grows to maxDots and shrinks back.
// Pure and deterministic; safe to call from any goroutine.
func Frame(tick int) string {
	if tick < 0 {
		tick = -tick
	}
	pos := tick % framePeriod
	dots := pos
	if pos > maxDots {
		dots = framePeriod - pos
	}
	return thinkingLabel + strings.Repeat(".", dots)
}
