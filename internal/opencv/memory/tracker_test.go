package memory

import (
	"testing"

	"nucleus-counter/internal/logger"
)

func TestTrackerBalance(t *testing.T) {
	tracker := NewTracker(logger.NewNop())

	tracker.TrackAllocation(1, 1024, "mask")
	tracker.TrackAllocation(2, 2048, "smoothed")

	stats := tracker.GetStats()
	if stats.Allocations != 2 || stats.LiveMats != 2 {
		t.Fatalf("expected 2 live allocations, got %+v", stats)
	}
	if stats.LiveBytes != 3072 {
		t.Errorf("expected 3072 live bytes, got %d", stats.LiveBytes)
	}

	tracker.TrackDeallocation(1, "mask")
	tracker.TrackDeallocation(2, "smoothed")

	stats = tracker.GetStats()
	if stats.LiveMats != 0 || stats.LiveBytes != 0 {
		t.Errorf("expected empty tracker after releases, got %+v", stats)
	}
	if stats.Deallocations != 2 {
		t.Errorf("expected 2 deallocations, got %d", stats.Deallocations)
	}
}

func TestTrackerIgnoresUntrackedRelease(t *testing.T) {
	tracker := NewTracker(logger.NewNop())

	tracker.TrackDeallocation(99, "ghost")

	stats := tracker.GetStats()
	if stats.Deallocations != 0 {
		t.Errorf("untracked release must not count, got %+v", stats)
	}
}
