// Package playback keeps N independently-clocked audio elements audibly in
// phase. It elects one element as the leader clock, starts all elements
// optimistically without waiting for per-element confirmation, and corrects
// small timing drift with tiered playback-rate nudging governed by a
// hysteresis band, falling back to a hard position snap for large drift.
package playback

import "errors"

// ErrAborted marks a playback start that was rejected because a deliberate
// stop or pause raced with it. Callers treat it as normal control flow, not
// a failure.
var ErrAborted = errors.New("playback: start aborted")

// Element is one independently-clocked playable stem. Positions and
// durations are in seconds; rates are multipliers with 1.0 nominal.
//
// SetPosition and SetRate may complete asynchronously in the underlying
// platform; implementations return immediately and the synchronizer never
// waits for confirmation.
type Element interface {
	Name() string
	Duration() float64

	Position() float64
	SetPosition(seconds float64)

	Rate() float64
	SetRate(rate float64)

	// Play begins or resumes playback. An ErrAborted return means a
	// stop/pause raced with the start and is swallowed by the caller.
	Play() error
	Pause()
}
