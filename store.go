package relay

import "sync"

// DefaultMaxHistory bounds per-thread history when no option is given.
const DefaultMaxHistory = 10

// ConversationStore is the bounded per-thread message log consumed by
// the orchestrator.
//
// Implementations must make each operation safe for concurrent use.
// Operation sequences are not atomic: two concurrent turns on the same
// thread may interleave their appends and reads. The platform delivers
// one turn per thread at a time, so no per-thread serialization is
// layered on top.
type ConversationStore interface {
	// Append adds a message to the thread, creating the thread if
	// absent, and evicts the oldest entry once the configured maximum
	// is exceeded. Append always succeeds and returns the stored
	// message.
	Append(threadID, role, content string) Message
	// History returns the thread's messages oldest-first, or an empty
	// slice for an unknown thread. The returned slice is a copy.
	History(threadID string) []Message
	// Clear removes the thread entirely. Clearing an unknown thread is
	// a no-op.
	Clear(threadID string)
	// ThreadIDs returns the known thread identifiers in no particular
	// order.
	ThreadIDs() []string
	// Len returns the number of messages stored for the thread.
	Len(threadID string) int
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMaxHistory sets the per-thread message cap. Values below 1 are
// ignored.
func WithMaxHistory(n int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if n >= 1 {
			s.maxHistory = n
		}
	}
}

// MemoryStore is an in-process ConversationStore. History lives only
// for the lifetime of the process; there is no spill to disk.
type MemoryStore struct {
	mu         sync.RWMutex
	maxHistory int
	threads    map[string][]Message
}

var _ ConversationStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store bounded at DefaultMaxHistory
// messages per thread unless overridden with WithMaxHistory.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		maxHistory: DefaultMaxHistory,
		threads:    make(map[string][]Message),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *MemoryStore) Append(threadID, role, content string) Message {
	msg := Message{
		ID:        NewID(),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: NowUnix(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.threads[threadID], msg)
	for len(msgs) > s.maxHistory {
		msgs = msgs[1:]
	}
	s.threads[threadID] = msgs
	return msg
}

func (s *MemoryStore) History(threadID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.threads[threadID]
	cp := make([]Message, len(msgs))
	copy(cp, msgs)
	return cp
}

func (s *MemoryStore) Clear(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
}

func (s *MemoryStore) ThreadIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	return ids
}

func (s *MemoryStore) Len(threadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads[threadID])
}
