package chain

import (
	"fmt"
	"sync"
)

// StaticReader serves contract reads from a fixed table, keyed by CallKey.
// Unconfigured calls revert. Used by tests and offline replays; a live
// deployment plugs in an RPC-backed Reader from the host instead.
type StaticReader struct {
	mu    sync.RWMutex
	calls map[string]Result
}

func NewStaticReader() *StaticReader {
	return &StaticReader{calls: make(map[string]Result, 32)}
}

// Set installs the value returned for one (address, method, args) tuple.
func (s *StaticReader) Set(address, method string, value any, args ...any) *StaticReader {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[CallKey(address, method, args...)] = Result{Value: value}
	return s
}

// Revert makes one tuple revert explicitly (same as leaving it unset, but
// self-documenting in test setups).
func (s *StaticReader) Revert(address, method string, args ...any) *StaticReader {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[CallKey(address, method, args...)] = ErrReverted
	return s
}

func (s *StaticReader) TryCall(address, method string, args ...any) Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.calls[CallKey(address, method, args...)]; ok {
		return r
	}
	return ErrReverted
}

func toString(v any) string {
	return fmt.Sprintf("%v", v)
}
