// Package mock provides a deterministic synthesis engine for tests and
// dry runs: it renders silence sized by text length, with configurable
// delay and failure triggers.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/scriptcast/scriptcast/internal/audio"
	"github.com/scriptcast/scriptcast/internal/synth"
	"github.com/scriptcast/scriptcast/internal/voice"
)

// Engine is a fake synthesis engine. The zero value is not usable; use New.
type Engine struct {
	format audio.Format
	delay  time.Duration

	mu         sync.Mutex
	failSubstr []string // texts containing any of these fail
	slowSubstr []string // texts containing any of these sleep extra
	slowDelay  time.Duration
	failRate   float64 // probability a call fails, 0 disables
	callCount  int
	closed     bool
}

// New creates a mock engine emitting the given format with a fixed
// per-call delay.
func New(format audio.Format, delay time.Duration) *Engine {
	return &Engine{format: format, delay: delay}
}

// SetFailureRate makes each synthesis call fail with the given
// probability. 0 disables random failures, 1 fails every call.
func (e *Engine) SetFailureRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failRate = rate
}

// FailOn makes any text containing substr fail synthesis.
func (e *Engine) FailOn(substr string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failSubstr = append(e.failSubstr, substr)
}

// SlowOn makes any text containing substr take extra time, for
// exercising timeouts.
func (e *Engine) SlowOn(substr string, extra time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slowSubstr = append(e.slowSubstr, substr)
	e.slowDelay = extra
}

// CallCount returns how many synthesis calls the engine has served.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

// Synthesize produces silence lasting 50ms per rune, honoring ctx.
func (e *Engine) Synthesize(ctx context.Context, text string, _ voice.Profile) (audio.Fragment, error) {
	e.mu.Lock()
	e.callCount++
	delay := e.delay
	for _, s := range e.slowSubstr {
		if strings.Contains(text, s) {
			delay += e.slowDelay
		}
	}
	var failErr error
	for _, s := range e.failSubstr {
		if strings.Contains(text, s) {
			failErr = fmt.Errorf("%w: mock failure triggered by %q", synth.ErrSynthesisFailed, s)
		}
	}
	if failErr == nil && e.failRate > 0 && rand.Float64() < e.failRate { //nolint:gosec
		failErr = fmt.Errorf("%w: mock failure at rate %.2f", synth.ErrSynthesisFailed, e.failRate)
	}
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return audio.Fragment{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return audio.Fragment{}, err
	}
	if failErr != nil {
		return audio.Fragment{}, failErr
	}

	duration := time.Duration(len([]rune(text))) * 50 * time.Millisecond
	if duration == 0 {
		duration = 50 * time.Millisecond
	}
	return audio.Silence(duration, e.format), nil
}

// Info implements synth.Engine.
func (e *Engine) Info() synth.Info {
	return synth.Info{Name: "mock", Format: e.format}
}

// Close implements synth.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
