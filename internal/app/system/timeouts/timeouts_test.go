package timeouts

import (
	"testing"
	"time"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 1 * time.Second, Batch: 5 * time.Minute})

	if got := Short(); got != time.Second {
		t.Errorf("Short() = %v, want 1s", got)
	}
	if got := Batch(); got != 5*time.Minute {
		t.Errorf("Batch() = %v, want 5m", got)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", got, DefaultMedium)
	}

	Reset()
	if got := Short(); got != DefaultShort {
		t.Errorf("Short() after Reset = %v, want %v", got, DefaultShort)
	}
}
