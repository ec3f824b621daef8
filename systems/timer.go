package systems

import "time"

// RepeatingTimer fires every Period of accumulated tick time.
// Overshoot carries into the next period.
type RepeatingTimer struct {
	Period time.Duration

	elapsed       time.Duration
	timesFinished int
}

// NewRepeatingTimer returns a timer that first fires after one full period.
func NewRepeatingTimer(period time.Duration) RepeatingTimer {
	return RepeatingTimer{Period: period}
}

// Tick advances the timer by dt and reports whether at least one period completed.
func (t *RepeatingTimer) Tick(dt time.Duration) bool {
	t.timesFinished = 0
	if t.Period <= 0 {
		return false
	}
	t.elapsed += dt
	if t.elapsed >= t.Period {
		t.timesFinished = int(t.elapsed / t.Period)
		t.elapsed %= t.Period
	}
	return t.timesFinished > 0
}

// TimesFinished returns how many periods the last Tick completed.
func (t *RepeatingTimer) TimesFinished() int {
	return t.timesFinished
}
