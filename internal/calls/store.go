package calls

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("calls: not found")

// Store persists calls and messages. Every lookup is workspace-scoped.
type Store interface {
	// SaveCall inserts c or replaces the row with the same workspace and id.
	SaveCall(ctx context.Context, c Call) error
	GetCall(ctx context.Context, workspaceID, callID string) (Call, error)
	// UpdateCall runs fn on the current row, or on a zero Call when found is
	// false, and stores the result if fn reports a change. No other write
	// to the same call interleaves with it.
	UpdateCall(ctx context.Context, workspaceID, callID string, fn UpdateFunc) (Call, error)
	ListCalls(ctx context.Context, workspaceID string, limit int) ([]Call, error)

	SaveMessage(ctx context.Context, m Message) error
	GetMessage(ctx context.Context, workspaceID, messageID string) (Message, error)
}

// UpdateFunc mutates c in place and reports whether it should be stored.
type UpdateFunc func(c *Call, found bool) bool

type key struct{ workspace, id string }

// MemoryStore is a Store for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	calls    map[key]Call
	messages map[key]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: map[key]Call{}, messages: map[key]Message{}}
}

func (s *MemoryStore) SaveCall(_ context.Context, c Call) error {
	if c.WorkspaceID == "" || c.CallID == "" {
		return errors.New("calls: workspace_id and call_id required")
	}
	s.mu.Lock()
	s.calls[key{c.WorkspaceID, c.CallID}] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpdateCall(_ context.Context, workspaceID, callID string, fn UpdateFunc) (Call, error) {
	if workspaceID == "" || callID == "" {
		return Call{}, errors.New("calls: workspace_id and call_id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{workspaceID, callID}
	c, found := s.calls[k]
	if !found {
		c = Call{CallID: callID, WorkspaceID: workspaceID}
	}
	if fn(&c, found) {
		c.WorkspaceID, c.CallID = workspaceID, callID
		s.calls[k] = c
	}
	return c, nil
}

func (s *MemoryStore) GetCall(_ context.Context, workspaceID, callID string) (Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calls[key{workspaceID, callID}]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

// ListCalls returns the newest calls first.
func (s *MemoryStore) ListCalls(_ context.Context, workspaceID string, limit int) ([]Call, error) {
	s.mu.RLock()
	var out []Call
	for k, c := range s.calls {
		if k.workspace == workspaceID {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, m Message) error {
	if m.WorkspaceID == "" || m.MessageID == "" {
		return errors.New("calls: workspace_id and message_id required")
	}
	s.mu.Lock()
	s.messages[key{m.WorkspaceID, m.MessageID}] = m
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, workspaceID, messageID string) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[key{workspaceID, messageID}]
	if !ok {
		return Message{}, ErrNotFound
	}
	return m, nil
}
