// Package rain converts the console's cumulative rain counter into per-period amounts.
package rain

import "time"

// DefaultWindow is the collection period used when none is configured
const DefaultWindow = 15 * time.Minute

// Accumulator turns a monotonically growing rain total into the amount that fell
// during the last complete collection window. The result only changes once per
// window, which filters out counter jitter, and a counter reset never produces a
// negative amount.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	window      time.Duration
	initialized bool
	baseline    float64
	delta       float64
	windowStart time.Time
}

// New returns an Accumulator with the given collection window
func New(window time.Duration) *Accumulator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Accumulator{window: window}
}

// Window returns the collection window length
func (a *Accumulator) Window() time.Duration {
	return a.window
}

// Convert feeds the current counter total observed at now and returns the amount
// collected in the most recently completed window.
func (a *Accumulator) Convert(total float64, now time.Time) float64 {
	if !a.initialized {
		a.initialized = true
		a.baseline = total
		a.delta = 0
		a.windowStart = now
		return a.delta
	}

	if now.Sub(a.windowStart) >= a.window {
		a.delta = max(0, total-a.baseline)
		// advance by whole windows so the boundaries do not drift with arrival jitter
		a.windowStart = a.windowStart.Add(a.window)
		a.baseline = total
	}

	return a.delta
}

// WindowStart returns the start of the current collection window
func (a *Accumulator) WindowStart() time.Time {
	return a.windowStart
}
