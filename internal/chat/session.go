// Package chat implements the conversational session core: a transcript of
// question/answer turns where each answer is produced by a background worker
// while the caller polls at a fixed cadence to animate a waiting indicator.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"ragchat/internal/domain"
)

var (
	// ErrEmptyQuestion is returned for blank input. The transcript is not
	// touched and no worker is started.
	ErrEmptyQuestion = errors.New("empty question")
	// ErrBusy is returned when a question is submitted while another is
	// still awaiting its answer. The session accepts one question at a time.
	ErrBusy = errors.New("a question is already being answered")
)

// Fixed user-facing strings; raw provider errors never reach the transcript.
const (
	answerFailed   = "Sorry, something went wrong while answering your question. Please try again."
	answerTimedOut = "Sorry, answering your question took too long. Please try again."
)

const defaultInterval = 400 * time.Millisecond

// pendingAnswer is the transient record for one in-flight question. The
// worker goroutine writes result and then closes done; readers only touch
// result after observing the close.
type pendingAnswer struct {
	done    chan struct{}
	result  string
	cancel  context.CancelFunc
	started time.Time
}

// Session owns one chat transcript and runs at most one answer request at a
// time. It is not safe for concurrent use; a single caller (the TUI event
// loop or Wait) drives it.
type Session struct {
	provider domain.AnswerProvider
	interval time.Duration
	timeout  time.Duration
	turns    []domain.Turn
	pending  *pendingAnswer
	tick     int
}

// Option configures a Session.
type Option func(*Session)

// WithInterval sets the animation frame interval used by Wait.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout bounds how long a single question may stay unanswered. Zero
// disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

func NewSession(provider domain.AnswerProvider, opts ...Option) *Session {
	s := &Session{provider: provider, interval: defaultInterval}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask submits a question. It appends a turn holding the initial waiting
// frame, starts the answer worker, and returns immediately. Blank input is a
// no-op reported as ErrEmptyQuestion; a second question while one is pending
// is rejected with ErrBusy.
func (s *Session) Ask(ctx context.Context, question string) error {
	q := strings.TrimSpace(question)
	if q == "" {
		return ErrEmptyQuestion
	}
	if s.pending != nil {
		return ErrBusy
	}
	prior := append([]domain.Turn(nil), s.turns...)
	s.turns = append(s.turns, domain.Turn{Question: q, Answer: Frame(0)})
	s.tick = 0

	p := &pendingAnswer{done: make(chan struct{}), started: time.Now()}
	workerCtx := ctx
	if s.timeout > 0 {
		workerCtx, p.cancel = context.WithTimeout(ctx, s.timeout)
	}
	s.pending = p

	go func() {
		answer, err := s.provider.Answer(workerCtx, q, prior)
		switch {
		case err == nil:
			p.result = answer
		case errors.Is(err, context.DeadlineExceeded):
			p.result = answerTimedOut
		default:
			p.result = answerFailed
		}
		close(p.done)
	}()
	return nil
}

// Advance polls the in-flight request once. While the request is pending it
// advances the animation by one frame and reports false; once the worker has
// finished (or the timeout elapsed) it writes the final answer into the last
// turn, destroys the pending record, and reports true. After resolution it
// is a no-op: no frame is ever emitted over a final answer.
func (s *Session) Advance() bool {
	if s.pending == nil {
		return true
	}
	select {
	case <-s.pending.done:
		s.resolve(s.pending.result)
		return true
	default:
	}
	if s.timeout > 0 && time.Since(s.pending.started) > s.timeout {
		// The worker may still be running; its context is cancelled and its
		// eventual result is never read.
		s.resolve(answerTimedOut)
		return true
	}
	s.tick++
	s.turns[len(s.turns)-1].Answer = Frame(s.tick)
	return false
}

func (s *Session) resolve(answer string) {
	s.turns[len(s.turns)-1].Answer = answer
	if s.pending.cancel != nil {
		s.pending.cancel()
	}
	s.pending = nil
}

// Wait drives the polling loop for callers without their own scheduler: it
// blocks on the worker's completion channel with a frame ticker, emitting a
// transcript snapshot after every frame and once more after resolution.
func (s *Session) Wait(ctx context.Context, emit func([]domain.Turn)) error {
	if s.pending == nil {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.pending.done:
			s.Advance()
			if emit != nil {
				emit(s.Transcript())
			}
			return nil
		case <-ticker.C:
			done := s.Advance()
			if emit != nil {
				emit(s.Transcript())
			}
			if done {
				return nil
			}
		}
	}
}

// Waiting reports whether a question is currently awaiting its answer.
func (s *Session) Waiting() bool { return s.pending != nil }

// Interval returns the configured animation frame interval.
func (s *Session) Interval() time.Duration { return s.interval }

// Transcript returns a copy of the conversation so far. The last turn's
// answer is the waiting frame while a question is pending.
func (s *Session) Transcript() []domain.Turn {
	return append([]domain.Turn(nil), s.turns...)
}
