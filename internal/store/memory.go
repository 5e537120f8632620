package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
)

// MemorySessionStore keeps sessions and notices in process. It is used in
// development when REDIS_URL is unset.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]models.Session
	notices  map[uuid.UUID][]models.Notice
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[uuid.UUID]models.Session),
		notices:  make(map[uuid.UUID][]models.Notice),
	}
}

func (s *MemorySessionStore) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemorySessionStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if session.Expired(time.Now()) {
		delete(s.sessions, id)
		delete(s.notices, id)
		return nil, nil
	}
	return &session, nil
}

func (s *MemorySessionStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.notices, id)
	return nil
}

func (s *MemorySessionStore) PushNotice(_ context.Context, sessionID uuid.UUID, notice models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices[sessionID] = append(s.notices[sessionID], notice)
	return nil
}

func (s *MemorySessionStore) PopNotices(_ context.Context, sessionID uuid.UUID) ([]models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices[sessionID]
	delete(s.notices, sessionID)
	return notices, nil
}
