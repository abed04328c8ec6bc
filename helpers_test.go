package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory EventStore with staged writes
type memStore struct {
	committed []SheetRow
	working   []SheetRow
	cells     map[[2]int]int64
	staged    map[[2]int]int64

	commitErr error
	appendErr error
	commits   int
	rollbacks int
}

func newMemStore(rows ...SheetRow) *memStore {
	s := &memStore{
		committed: append([]SheetRow(nil), rows...),
		cells:     map[[2]int]int64{},
	}
	s.reset()
	return s
}

func (s *memStore) reset() {
	s.working = append([]SheetRow(nil), s.committed...)
	s.staged = map[[2]int]int64{}
	for k, v := range s.cells {
		s.staged[k] = v
	}
}

func (s *memStore) RowCount(context.Context) (int, error) { return len(s.working), nil }

func (s *memStore) ReadRow(_ context.Context, row int) (SheetRow, error) {
	if row < 1 || row > len(s.working) {
		return SheetRow{}, storeErr("read", fmt.Errorf("row %d out of range", row))
	}
	return s.working[row-1], nil
}

func (s *memStore) AppendEvent(_ context.Context, event OutageEvent) error {
	if s.appendErr != nil {
		return storeErr("append", s.appendErr)
	}
	s.working = append(s.working, SheetRow{
		Start:   formatEventTime(event.Start),
		Seconds: fmt.Sprintf("%d", event.DurationSeconds),
	})
	return nil
}

func (s *memStore) WriteCell(_ context.Context, row, col int, value int64) error {
	s.staged[[2]int{row, col}] = value
	return nil
}

func (s *memStore) Commit(context.Context) error {
	if s.commitErr != nil {
		return storeErr("commit", s.commitErr)
	}
	s.commits++
	s.committed = append([]SheetRow(nil), s.working...)
	s.cells = map[[2]int]int64{}
	for k, v := range s.staged {
		s.cells[k] = v
	}
	return nil
}

func (s *memStore) Rollback(context.Context) error {
	s.rollbacks++
	s.reset()
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) cell(row, col int) int64 { return s.cells[[2]int{row, col}] }

// scriptedProber returns results in order, then repeats the last one
type scriptedProber struct {
	mu      sync.Mutex
	results []bool
	calls   int
}

func (p *scriptedProber) Probe(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	p.calls++
	return p.results[idx]
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingNotifier struct {
	events []OutageEvent
	err    error
}

func (n *recordingNotifier) NotifyOutage(_ context.Context, event OutageEvent, _, _ StatisticsSummary) error {
	n.events = append(n.events, event)
	return n.err
}

func testConfig() Config {
	c := Config{
		PingHost:   "192.0.2.1",
		Timezone:   "UTC",
		EventStore: EventStoreConfig{Location: "unused"},
	}
	applyDefaults(&c)
	return c
}

func eventRow(start time.Time, seconds int64) SheetRow {
	return SheetRow{Start: formatEventTime(start), Seconds: fmt.Sprintf("%d", seconds)}
}
