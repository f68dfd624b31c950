// Package sink delivers classified records to the persistence boundary.
package sink

import (
	"context"
	"sync"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

// RecordSink receives the pipeline's output stream. Emit is called from a
// single goroutine per run; Close flushes and releases the destination.
type RecordSink interface {
	Emit(ctx context.Context, rec types.Record) error
	Close() error
}

// Memory buffers records in process. Test and dry-run destination.
type Memory struct {
	mu   sync.Mutex
	recs []types.Record
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Emit(_ context.Context, rec types.Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, rec)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Records returns a snapshot of everything emitted so far.
func (m *Memory) Records() []types.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Record, len(m.recs))
	copy(out, m.recs)
	return out
}

// ByCategory counts the emitted records per category tag.
func (m *Memory) ByCategory() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, r := range m.recs {
		out[r.Category()]++
	}
	return out
}
