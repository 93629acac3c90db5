// Package memory tracks native OpenCV allocations so leaks show up in
// the shutdown log instead of in resident memory.
package memory

import (
	"sync"

	"nucleus-counter/internal/logger"
)

type allocationRecord struct {
	bytes int64
	tag   string
}

// Tracker implements safe.MemoryTracker. It records live Mat
// allocations and aggregate counters.
type Tracker struct {
	mu          sync.Mutex
	allocations map[uint64]allocationRecord
	allocCount  int64
	freeCount   int64
	liveBytes   int64
	log         logger.Logger
}

type Stats struct {
	Allocations   int64
	Deallocations int64
	LiveMats      int64
	LiveBytes     int64
}

func NewTracker(log logger.Logger) *Tracker {
	return &Tracker{
		allocations: make(map[uint64]allocationRecord),
		log:         log,
	}
}

func (t *Tracker) TrackAllocation(id uint64, bytes int64, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.allocations[id] = allocationRecord{bytes: bytes, tag: tag}
	t.allocCount++
	t.liveBytes += bytes
}

func (t *Tracker) TrackDeallocation(id uint64, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, exists := t.allocations[id]
	if !exists {
		t.log.Warning("MemoryTracker", "releasing untracked Mat", map[string]interface{}{
			"id":  id,
			"tag": tag,
		})
		return
	}

	delete(t.allocations, id)
	t.freeCount++
	t.liveBytes -= record.bytes
}

func (t *Tracker) GetStats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Stats{
		Allocations:   t.allocCount,
		Deallocations: t.freeCount,
		LiveMats:      int64(len(t.allocations)),
		LiveBytes:     t.liveBytes,
	}
}

// LogSummary reports the final allocation balance. Live Mats at
// shutdown indicate a missing Close somewhere upstream.
func (t *Tracker) LogSummary() {
	stats := t.GetStats()

	fields := map[string]interface{}{
		"allocations":   stats.Allocations,
		"deallocations": stats.Deallocations,
		"live_mats":     stats.LiveMats,
		"live_bytes":    stats.LiveBytes,
	}

	if stats.LiveMats > 0 {
		t.log.Warning("MemoryTracker", "unreleased Mats at shutdown", fields)
		return
	}
	t.log.Info("MemoryTracker", "all Mats released", fields)
}
