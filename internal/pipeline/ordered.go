package pipeline

import "sync"

// orderedSink serialises a set of goroutines' results into strict
// ascending order, mirroring the "writer blocks on done of the
// next-in-sequence worker" ordering rule of spec §4.1/§5, without
// requiring every result to be buffered in memory at once: a result can
// arrive out of order and is held until every lower id has been emitted.
type orderedSink struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64][]byte
	emit    func(id uint64, data []byte) error
	err     error
}

func newOrderedSink(emit func(id uint64, data []byte) error) *orderedSink {
	return &orderedSink{pending: make(map[uint64][]byte), emit: emit}
}

// Submit hands a completed chunk's bytes to the sink. It returns
// immediately; the actual write happens inline on whichever goroutine
// happens to hold the next expected id, which keeps ordering correct
// without a dedicated writer goroutine competing for the same mutex.
func (s *orderedSink) Submit(id uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.pending[id] = data

	for {
		next, ok := s.pending[s.next]
		if !ok {
			break
		}
		delete(s.pending, s.next)
		if err := s.emit(s.next, next); err != nil {
			s.err = err
			return err
		}
		s.next++
	}
	return nil
}

func (s *orderedSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
