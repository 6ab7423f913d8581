package logger

import (
	"strings"
	"sync"
	"testing"
)

func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		want    string
	}{
		{"empty", 10, 0, "[░░░░░░░░░░] 0%"},
		{"half", 10, 5, "[█████░░░░░] 50%"},
		{"complete", 4, 4, "[██████████] 100%"},
		{"overflow clamps", 4, 9, "[██████████] 100%"},
		{"zero total", 0, 3, "[░░░░░░░░░░] 0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, 10, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressBarPrefixAndWidth(t *testing.T) {
	pb := NewProgressBar(3, 0, false)
	pb.SetPrefix("features ")
	pb.Increment()

	got := pb.Render()
	if !strings.HasPrefix(got, "features [") {
		t.Errorf("prefix missing: %q", got)
	}
	if pb.Percentage() != 33 {
		t.Errorf("Percentage() = %d, want 33", pb.Percentage())
	}
	if pb.Current() != 1 || pb.Total() != 3 {
		t.Errorf("unexpected state %d/%d", pb.Current(), pb.Total())
	}
}

func TestProgressBarColor(t *testing.T) {
	pb := NewProgressBar(2, 10, true)
	pb.Update(1)
	if !strings.Contains(pb.Render(), "\x1b[36m") {
		t.Errorf("expected cyan while in progress: %q", pb.Render())
	}
	pb.Update(2)
	if !strings.Contains(pb.Render(), "\x1b[32m") {
		t.Errorf("expected green when complete: %q", pb.Render())
	}
}

func TestProgressBarConcurrentIncrement(t *testing.T) {
	pb := NewProgressBar(100, 10, false)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Increment()
		}()
	}
	wg.Wait()
	if pb.Current() != 100 {
		t.Errorf("Current() = %d, want 100", pb.Current())
	}
}
