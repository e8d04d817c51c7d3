package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameDotWaveform(t *testing.T) {
	want := []int{0, 1, 2, 3, 4, 3, 2, 1}
	for tick := 0; tick < 32; tick++ {
		frame := Frame(tick)
		assert.True(t, strings.HasPrefix(frame, thinkingLabel), "tick %d", tick)
		dots := strings.Count(frame, ".")
		assert.Equal(t, want[tick%8], dots, "tick %d", tick)
	}
}

func TestFrameIsIdempotent(t *testing.T) {
	for _, tick := range []int{0, 1, 4, 7, 8, 123} {
		assert.Equal(t, Frame(tick), Frame(tick))
	}
}

func TestFrameDotsBounded(t *testing.T) {
	for tick := 0; tick < 100; tick++ {
		dots := strings.Count(Frame(tick), ".")
		assert.GreaterOrEqual(t, dots, 0)
		assert.LessOrEqual(t, dots, 4)
	}
}
