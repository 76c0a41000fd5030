package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/letieu/reddit-profiler/internal/reddit"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session), now: time.Now}
}

func (s *MemoryStore) Put(ctx context.Context, username string, comments []reddit.Comment) (*Session, error) {
	sess := &Session{
		Username:  username,
		FetchedAt: s.now().UTC(),
		Comments:  slices.Clone(comments),
	}

	s.mu.Lock()
	s.sessions[username] = sess
	s.mu.Unlock()

	return copySession(sess), nil
}

func (s *MemoryStore) Get(ctx context.Context, username string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[username]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(sess), nil
}

func (s *MemoryStore) SetAnalysis(ctx context.Context, username, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[username]
	if !ok {
		return ErrNotFound
	}
	sess.CachedAnalysis = &text
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[username]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, username)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func copySession(sess *Session) *Session {
	out := *sess
	out.Comments = slices.Clone(sess.Comments)
	if sess.CachedAnalysis != nil {
		text := *sess.CachedAnalysis
		out.CachedAnalysis = &text
	}
	return &out
}
