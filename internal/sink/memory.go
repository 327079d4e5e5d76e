package sink

import (
	"strings"
	"sync"
)

// A Write records one value written by the daemon, in order.
type Write struct {
	Path  string
	Value any
}

// MemorySink is an in-process sink. It backs tests and embeddings that
// don't want a broker; it also keeps an ordered log of every write so
// callers can assert on projection behaviour.
type MemorySink struct {
	mu      sync.Mutex
	ensured map[string]Shape
	values  map[string]any
	writes  []Write
	handler ExternalWriteHandler
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		ensured: map[string]Shape{},
		values:  map[string]any{},
	}
}

func (s *MemorySink) EnsurePath(path string, shape Shape) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ensured[path]; exists {
		return nil
	}
	s.ensured[path] = shape
	if shape.Default != nil {
		if _, hasValue := s.values[path]; !hasValue {
			s.values[path] = shape.Default
		}
	}
	return nil
}

func (s *MemorySink) WriteValue(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[path] = value
	s.writes = append(s.writes, Write{Path: path, Value: value})
	return nil
}

func (s *MemorySink) ReadValue(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[path]
	return v, ok
}

func (s *MemorySink) DeletePath(path string, recursive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, path)
	delete(s.ensured, path)
	if recursive {
		prefix := path + "."
		for p := range s.values {
			if strings.HasPrefix(p, prefix) {
				delete(s.values, p)
			}
		}
		for p := range s.ensured {
			if strings.HasPrefix(p, prefix) {
				delete(s.ensured, p)
			}
		}
	}
	return nil
}

func (s *MemorySink) SubscribeExternal(handler ExternalWriteHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// SimulateExternalWrite behaves like a user writing to the sink: the value
// is stored and the subscribed handler is invoked.
func (s *MemorySink) SimulateExternalWrite(path string, value any) {
	s.mu.Lock()
	s.values[path] = value
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(path, value)
	}
}

// PathExists reports whether the path has been ensured and not deleted.
func (s *MemorySink) PathExists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ensured[path]
	return ok
}

// Writes returns a copy of the ordered write log.
func (s *MemorySink) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *MemorySink) ClearWrites() {
	s.mu.Lock()
	s.writes = nil
	s.mu.Unlock()
}
