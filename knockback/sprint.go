package knockback

import (
	"math"
	"sync"
	"time"
)

// SprintBufferCapacity bounds how many per-tick sprint samples are retained
// per attacker. Sprint windows clamp to this capacity.
const SprintBufferCapacity = 40

// SprintWindowTracker remembers recent per-tick sprint flags for each
// attacker and answers "sprinted within the last N ticks". Recording happens
// on the tick goroutine while reads arrive from whichever goroutine processes
// the hit, so each buffer carries its own lock.
type SprintWindowTracker struct {
	mu      sync.Mutex
	buffers map[string]*sprintBuffer
}

type sprintBuffer struct {
	mu    sync.Mutex
	flags [SprintBufferCapacity]bool
	head  int
	count int
}

// NewSprintWindowTracker returns an empty tracker. Buffers are created lazily
// on first observation.
func NewSprintWindowTracker() *SprintWindowTracker {
	return &SprintWindowTracker{buffers: make(map[string]*sprintBuffer)}
}

// Record appends the sprint flag sampled for the current tick.
func (t *SprintWindowTracker) Record(attackerID string, sprinting bool) {
	if t == nil || attackerID == "" {
		return
	}
	buf := t.buffer(attackerID, true)

	buf.mu.Lock()
	buf.flags[buf.head] = sprinting
	buf.head = (buf.head + 1) % SprintBufferCapacity
	if buf.count < SprintBufferCapacity {
		buf.count++
	}
	buf.mu.Unlock()
}

// SprintedWithin reports whether the attacker sprinted in any of the most
// recent window ticks. Unknown attackers never sprinted.
func (t *SprintWindowTracker) SprintedWithin(attackerID string, window int) bool {
	if t == nil {
		return false
	}
	buf := t.buffer(attackerID, false)
	if buf == nil {
		return false
	}
	window = ClampWindow(window)

	buf.mu.Lock()
	defer buf.mu.Unlock()
	if window > buf.count {
		window = buf.count
	}
	for i := 1; i <= window; i++ {
		idx := (buf.head - i + SprintBufferCapacity) % SprintBufferCapacity
		if buf.flags[idx] {
			return true
		}
	}
	return false
}

// Forget drops the buffer for a disconnected attacker.
func (t *SprintWindowTracker) Forget(attackerID string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.buffers, attackerID)
	t.mu.Unlock()
}

// Tracked returns how many attackers currently hold a buffer.
func (t *SprintWindowTracker) Tracked() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buffers)
}

func (t *SprintWindowTracker) buffer(attackerID string, create bool) *sprintBuffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := t.buffers[attackerID]
	if buf == nil && create {
		buf = &sprintBuffer{}
		t.buffers[attackerID] = buf
	}
	return buf
}

// ClampWindow bounds a sprint window to [1, SprintBufferCapacity].
func ClampWindow(window int) int {
	if window < 1 {
		return 1
	}
	if window > SprintBufferCapacity {
		return SprintBufferCapacity
	}
	return window
}

// LatencyWindow converts an observed round-trip time into a sprint window in
// ticks, compensating for sprint-state packets that arrive late relative to
// the attack packet. Doubling the window grants extra slack for jittery
// connections. The result is always clamped to [1, SprintBufferCapacity].
func LatencyWindow(rtt, tickDuration time.Duration, double bool) int {
	if tickDuration <= 0 {
		return 1
	}
	ticks := int(math.Ceil(float64(rtt) / float64(tickDuration)))
	if double {
		ticks *= 2
	}
	return ClampWindow(ticks)
}

// Window selects the effective sprint window: the profile's fixed tick count
// when positive, otherwise a window derived from the attacker's latency.
func Window(fixedTicks int, rtt, tickDuration time.Duration, double bool) int {
	if fixedTicks > 0 {
		return ClampWindow(fixedTicks)
	}
	return LatencyWindow(rtt, tickDuration, double)
}
