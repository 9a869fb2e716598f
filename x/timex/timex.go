package timex

import "time"

// PeriodFromHz returns the tick period for a requested frequency.
// hz <= 0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(hz int) time.Duration {
	if hz <= 0 {
		hz = 1
	}
	return time.Second / time.Duration(hz)
}

// Rearm resets a timer for d, draining a pending fire first so the
// next receive on t.C observes exactly one expiry.
func Rearm(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
