package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

// fakeProvider is a controllable AnswerProvider for session tests.
type fakeProvider struct {
	mu     sync.Mutex
	delay  time.Duration
	result string
	err    error
	calls  int
	priors [][]domain.Turn
}

func (f *fakeProvider) Answer(ctx context.Context, question string, prior []domain.Turn) (string, error) {
	f.mu.Lock()
	f.calls++
	f.priors = append(f.priors, append([]domain.Turn(nil), prior...))
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.result, f.err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSessionSuccessfulAnswer(t *testing.T) {
	p := &fakeProvider{result: "The Pequod is Captain Ahab's whaling ship.", delay: 30 * time.Millisecond}
	s := NewSession(p, WithInterval(10*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "What is the Pequod?"))
	require.True(t, s.Waiting())

	var emitted [][]domain.Turn
	require.NoError(t, s.Wait(context.Background(), func(tr []domain.Turn) {
		emitted = append(emitted, tr)
	}))

	turns := s.Transcript()
	require.Len(t, turns, 1)
	assert.Equal(t, "What is the Pequod?", turns[0].Question)
	assert.Equal(t, "The Pequod is Captain Ahab's whaling ship.", turns[0].Answer)
	assert.False(t, s.Waiting())
	assert.Equal(t, 1, p.callCount())

	// every snapshot before the last is an animation frame, in tick order
	require.NotEmpty(t, emitted)
	for i, tr := range emitted[:len(emitted)-1] {
		assert.Equal(t, Frame(i+1), tr[0].Answer)
	}
	assert.Equal(t, "The Pequod is Captain Ahab's whaling ship.", emitted[len(emitted)-1][0].Answer)
}

func TestSessionProviderErrorIsNeverSurfacedRaw(t *testing.T) {
	p := &fakeProvider{err: errors.New("api key sk-12345 rejected")}
	s := NewSession(p, WithInterval(5*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "Who is Ishmael?"))
	require.NoError(t, s.Wait(context.Background(), nil))

	turns := s.Transcript()
	require.Len(t, turns, 1)
	assert.Equal(t, answerFailed, turns[0].Answer)
	assert.NotContains(t, turns[0].Answer, "sk-12345")
}

func TestSessionEmptyQuestionIsNoOp(t *testing.T) {
	p := &fakeProvider{result: "unused"}
	s := NewSession(p)

	assert.ErrorIs(t, s.Ask(context.Background(), ""), ErrEmptyQuestion)
	assert.ErrorIs(t, s.Ask(context.Background(), "   \t\n"), ErrEmptyQuestion)
	assert.Empty(t, s.Transcript())
	assert.Equal(t, 0, p.callCount())
}

func TestSessionRejectsConcurrentQuestion(t *testing.T) {
	p := &fakeProvider{result: "answer", delay: 100 * time.Millisecond}
	s := NewSession(p, WithInterval(5*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "Q1"))
	assert.ErrorIs(t, s.Ask(context.Background(), "Q2"), ErrBusy)

	require.NoError(t, s.Wait(context.Background(), nil))
	turns := s.Transcript()
	require.Len(t, turns, 1)
	assert.Equal(t, "Q1", turns[0].Question)
	assert.Equal(t, 1, p.callCount())
}

func TestSessionSequentialQuestions(t *testing.T) {
	p := &fakeProvider{result: "first", delay: 10 * time.Millisecond}
	s := NewSession(p, WithInterval(5*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "Q1"))
	require.NoError(t, s.Wait(context.Background(), nil))

	p.mu.Lock()
	p.result = "second"
	p.mu.Unlock()
	require.NoError(t, s.Ask(context.Background(), "Q2"))
	require.NoError(t, s.Wait(context.Background(), nil))

	turns := s.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "Q1", turns[0].Question)
	assert.Equal(t, "first", turns[0].Answer)
	assert.Equal(t, "Q2", turns[1].Question)
	assert.Equal(t, "second", turns[1].Answer)
	for _, turn := range turns {
		assert.False(t, strings.HasPrefix(turn.Answer, thinkingLabel), "leftover placeholder")
	}
}

func TestSessionPriorTurnsExcludeInFlightTurn(t *testing.T) {
	p := &fakeProvider{result: "A1"}
	s := NewSession(p, WithInterval(5*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "Q1"))
	require.NoError(t, s.Wait(context.Background(), nil))
	require.NoError(t, s.Ask(context.Background(), "Q2"))
	require.NoError(t, s.Wait(context.Background(), nil))

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.priors, 2)
	assert.Empty(t, p.priors[0])
	require.Len(t, p.priors[1], 1)
	assert.Equal(t, domain.Turn{Question: "Q1", Answer: "A1"}, p.priors[1][0])
}

func TestSessionTimeout(t *testing.T) {
	p := &fakeProvider{result: "too late", delay: time.Second}
	s := NewSession(p, WithInterval(5*time.Millisecond), WithTimeout(30*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "slow question"))
	require.NoError(t, s.Wait(context.Background(), nil))

	turns := s.Transcript()
	require.Len(t, turns, 1)
	assert.Equal(t, answerTimedOut, turns[0].Answer)

	// session stays usable afterwards
	p.mu.Lock()
	p.delay = 0
	p.result = "quick"
	p.mu.Unlock()
	require.NoError(t, s.Ask(context.Background(), "fast question"))
	require.NoError(t, s.Wait(context.Background(), nil))
	turns = s.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "quick", turns[1].Answer)
}

func TestSessionNoFrameAfterResolution(t *testing.T) {
	p := &fakeProvider{result: "final"}
	s := NewSession(p, WithInterval(5*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "Q"))
	require.NoError(t, s.Wait(context.Background(), nil))

	for i := 0; i < 5; i++ {
		assert.True(t, s.Advance())
	}
	turns := s.Transcript()
	assert.Equal(t, "final", turns[0].Answer)
}

func TestSessionAdvancePolling(t *testing.T) {
	p := &fakeProvider{result: "done", delay: 40 * time.Millisecond}
	s := NewSession(p, WithInterval(5*time.Millisecond))

	require.NoError(t, s.Ask(context.Background(), "Q"))
	// drive the loop by hand, the way the TUI's tick handler does
	ticks := 0
	for !s.Advance() {
		ticks++
		last := s.Transcript()[0]
		assert.Equal(t, Frame(ticks), last.Answer)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "done", s.Transcript()[0].Answer)
}
