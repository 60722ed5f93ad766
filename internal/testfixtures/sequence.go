package testfixtures

import (
	"context"
	"sync"
)

// Sequence is an in-memory identifier allocator. It satisfies both
// application.SequenceAllocator and persistence.SequenceRepository.
type Sequence struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

// NewSequence returns an allocator whose counters all start at zero.
func NewSequence() *Sequence {
	return &Sequence{values: make(map[string]int64)}
}

// Next increments and returns the named counter.
func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.values[name]++
	return s.values[name], nil
}

// Seed sets the counter to value unless it was already used.
func (s *Sequence) Seed(ctx context.Context, name string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.values[name]; !ok {
		s.values[name] = value
	}
	return nil
}

// Current returns the last value issued for name.
func (s *Sequence) Current(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[name]
}

// FailWith makes every subsequent call return err. A nil err restores normal operation.
func (s *Sequence) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
