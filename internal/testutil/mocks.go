package testutil

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/snonux/rode/internal/reverso"
)

// MockCollaborator answers helper requests from canned payloads per mode
type MockCollaborator struct {
	mu       sync.Mutex
	Payloads map[reverso.Mode]string
	Errors   map[reverso.Mode]error
	Words    map[string]map[reverso.Mode]string // per-word overrides
	Calls    []string
}

// NewMockCollaborator creates a collaborator that returns the given payloads
func NewMockCollaborator(direct, contextual string) *MockCollaborator {
	return &MockCollaborator{
		Payloads: map[reverso.Mode]string{
			reverso.ModeTranslation: direct,
			reverso.ModeContext:     contextual,
		},
		Errors: map[reverso.Mode]error{},
		Words:  map[string]map[reverso.Mode]string{},
	}
}

// Invoke records the call and returns the canned answer
func (m *MockCollaborator) Invoke(ctx context.Context, req reverso.Request) (reverso.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, fmt.Sprintf("%s %s (%s->%s)", req.Mode, req.Text, req.From, req.To))

	if err, ok := m.Errors[req.Mode]; ok && err != nil {
		return nil, err
	}

	if byMode, ok := m.Words[req.Text]; ok {
		if p, ok := byMode[req.Mode]; ok {
			return reverso.Payload(p), nil
		}
	}

	if p, ok := m.Payloads[req.Mode]; ok {
		return reverso.Payload(p), nil
	}

	return reverso.Failure("Unknown error"), nil
}

// CallCount returns the number of recorded invocations
func (m *MockCollaborator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}

// RecordedCalls returns a copy of the recorded invocations
func (m *MockCollaborator) RecordedCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.Calls...)
}
