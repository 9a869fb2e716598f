package input

import (
	"testing"
	"time"
)

func TestButton_PressOnFallingEdgeOnly(t *testing.T) {
	b := NewButton(120 * time.Millisecond)
	now := time.Unix(1000, 0)

	if b.Sample(true, now) {
		t.Fatal("initial sample must not report a press")
	}
	if !b.Sample(false, now.Add(time.Second)) {
		t.Fatal("high-to-low transition must report a press")
	}
	if b.Sample(false, now.Add(2*time.Second)) {
		t.Fatal("held low must not repeat the press")
	}
	if b.Sample(true, now.Add(3*time.Second)) {
		t.Fatal("release must not report a press")
	}
}

func TestButton_DebounceWindow(t *testing.T) {
	b := NewButton(120 * time.Millisecond)
	now := time.Unix(1000, 0)

	b.Sample(true, now)
	if !b.Sample(false, now.Add(10*time.Millisecond)) {
		t.Fatal("first press rejected")
	}
	// Bounce: release and press again within the window.
	b.Sample(true, now.Add(50*time.Millisecond))
	if b.Sample(false, now.Add(60*time.Millisecond)) {
		t.Fatal("bounce press within debounce window accepted")
	}
	// A press after the window is a new press.
	b.Sample(true, now.Add(200*time.Millisecond))
	if !b.Sample(false, now.Add(300*time.Millisecond)) {
		t.Fatal("press after debounce window rejected")
	}
}

func TestButton_StartsPressed(t *testing.T) {
	b := NewButton(120 * time.Millisecond)
	now := time.Unix(1000, 0)

	// Level is low from the first sample: no observed transition, so
	// no press until the button is released and pressed again.
	if b.Sample(false, now) {
		t.Fatal("press reported without observed transition")
	}
	b.Sample(true, now.Add(time.Second))
	if !b.Sample(false, now.Add(2*time.Second)) {
		t.Fatal("real press after release rejected")
	}
}
