package wsnet

import (
	"testing"
	"time"
)

func TestBackoff_DoublesUntilMax(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 800*time.Millisecond)

	got := []time.Duration{b.next(), b.next(), b.next(), b.next(), b.next()}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		800 * time.Millisecond,
	}

	for i, w := range want {
		if got[i] != w {
			t.Errorf("next() call %d = %v, want %v", i+1, got[i], w)
		}
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 800*time.Millisecond)
	b.next()
	b.next()
	b.reset()

	if got := b.next(); got != 100*time.Millisecond {
		t.Errorf("next() after reset = %v, want 100ms", got)
	}
}
