package service

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/port"
)

// Mock RecordRepository. Insert is atomic under mu, like a unique index.
type mockRecordRepo struct {
	mu          sync.Mutex
	bySerial    map[string]domain.SerialRecord
	order       []string
	insertCalls int

	// failInsertAt makes the n-th Insert call (1-based) return insertErr
	failInsertAt int
	insertErr    error
	findErr      error
	readErr      error
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{bySerial: make(map[string]domain.SerialRecord)}
}

func (m *mockRecordRepo) seed(records ...domain.SerialRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.bySerial[r.SerialNumber] = r
		m.order = append(m.order, r.SerialNumber)
	}
}

func (m *mockRecordRepo) Insert(ctx context.Context, record domain.SerialRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCalls++
	if m.failInsertAt > 0 && m.insertCalls >= m.failInsertAt {
		return m.insertErr
	}
	if _, exists := m.bySerial[record.SerialNumber]; exists {
		return port.ErrConflict
	}
	m.bySerial[record.SerialNumber] = record
	m.order = append(m.order, record.SerialNumber)
	return nil
}

func (m *mockRecordRepo) FindBySerialNumber(ctx context.Context, serialNumber string) (*domain.SerialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	rec, ok := m.bySerial[serialNumber]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &rec, nil
}

func (m *mockRecordRepo) FindByBatchID(ctx context.Context, batchID string) ([]domain.SerialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []domain.SerialRecord
	for _, sn := range m.order {
		if rec := m.bySerial[sn]; rec.BatchID == batchID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockRecordRepo) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]domain.RecordStamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []domain.RecordStamp
	for _, rec := range m.bySerial {
		if !rec.CreatedAt.Before(start) && rec.CreatedAt.Before(end) {
			out = append(out, domain.RecordStamp{CreatedAt: rec.CreatedAt, ProductName: rec.ProductName})
		}
	}
	return out, nil
}

func (m *mockRecordRepo) ProductNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]string, 0, len(m.bySerial))
	for _, rec := range m.bySerial {
		out = append(out, rec.ProductName)
	}
	return out, nil
}

func (m *mockRecordRepo) BatchIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]string, 0, len(m.bySerial))
	for _, rec := range m.bySerial {
		out = append(out, rec.BatchID)
	}
	return out, nil
}

func (m *mockRecordRepo) serials() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// scriptedGenerator returns the queued values in order, then falls back.
type scriptedGenerator struct {
	mu       sync.Mutex
	queue    []string
	fallback func(domain.GenerationConfig) string
}

func (g *scriptedGenerator) Generate(cfg domain.GenerationConfig) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) > 0 {
		v := g.queue[0]
		g.queue = g.queue[1:]
		return v
	}
	return g.fallback(cfg)
}
