// Package memory implements an in-memory sink for tests and dry runs.
package memory

import (
	"context"
	"sync"
)

// Sink records every table upload in memory.
type Sink struct {
	mu     sync.Mutex
	tables map[string][][]string
	order  []string
}

// New creates an in-memory sink.
func New() *Sink {
	return &Sink{tables: make(map[string][][]string)}
}

// Write stores the rows under the table name, replacing earlier writes.
func (s *Sink) Write(_ context.Context, table string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.tables[table]; !seen {
		s.order = append(s.order, table)
	}
	s.tables[table] = rows
	return nil
}

// Table returns the last rows written to a table.
func (s *Sink) Table(table string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[table]
}

// Tables returns the table names in first-write order.
func (s *Sink) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
