package output

import (
	"context"
	"sync"
)

// MemorySink 将输出保存在内存中，用于测试与试运行
type MemorySink struct {
	mu sync.Mutex

	People     []PersonRow
	Dwellings  []DwellingRow
	Activity   []Record
	Aggregated []AggregateRecord
	Closed     bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) WritePeople(_ context.Context, people []PersonRow, dwellings []DwellingRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.People = append(s.People, people...)
	s.Dwellings = append(s.Dwellings, dwellings...)
	return nil
}

func (s *MemorySink) WriteActivity(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Activity = append(s.Activity, records...)
	return nil
}

func (s *MemorySink) WriteAggregated(_ context.Context, records []AggregateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Aggregated = append(s.Aggregated, records...)
	return nil
}

func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
