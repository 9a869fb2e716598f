package input

import "time"

// Button debounces the encoder push switch. The switch idles high
// (pull-up) and reads low while pressed; only the high-to-low
// transition counts, releases are never reported.
type Button struct {
	debounce time.Duration

	lastLevel bool
	haveLevel bool
	lastPress time.Time
}

func NewButton(debounce time.Duration) *Button {
	return &Button{debounce: debounce}
}

// Sample feeds one observation of the raw switch level and reports
// whether it completes an accepted press.
func (b *Button) Sample(level bool, now time.Time) bool {
	if !b.haveLevel {
		b.lastLevel, b.haveLevel = level, true
		return false
	}
	pressed := b.lastLevel && !level
	b.lastLevel = level
	if !pressed {
		return false
	}
	if !b.lastPress.IsZero() && now.Sub(b.lastPress) < b.debounce {
		return false
	}
	b.lastPress = now
	return true
}
