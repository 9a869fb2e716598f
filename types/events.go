package types

import "time"

// ------------------------
// Bus event payloads
// ------------------------

// Topic layout:
//
//	input/events        RotationEvent | ButtonPressEvent (single topic, FIFO)
//	input/state         InputState (retained)
//	clock/state         ClockState (retained)
//	fetch/<screen>/result  FetchNotice
//	nav/state           NavState (retained)

// RotationEvent is one detent of the encoder. Delta is +1 or -1
// (always +1 for a directionless encoder unless inverted in config).
type RotationEvent struct {
	Delta int       `json:"delta"`
	At    time.Time `json:"at"`
}

// ButtonPressEvent is one debounced press of the encoder push button.
// Releases are not reported.
type ButtonPressEvent struct {
	At time.Time `json:"at"`
}

// InputState reports whether the control hardware is usable. Published
// retained at startup so late subscribers see it.
type InputState struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// ClockState reports wall-clock plausibility. Fetching is gated on
// Synced: a Pi without an RTC boots with a bogus clock.
type ClockState struct {
	Synced bool      `json:"synced"`
	At     time.Time `json:"at"`
}

// FetchNotice announces a completed fetch attempt for a screen.
type FetchNotice struct {
	ScreenID string    `json:"screen_id"`
	Err      string    `json:"err,omitempty"`
	At       time.Time `json:"at"`
}

// NavState mirrors the navigation snapshot for observers (debug CLI,
// logs). The render loop reads the snapshot directly, not this topic.
type NavState struct {
	ScreenID string `json:"screen_id"`
	Page     int    `json:"page"`
}
