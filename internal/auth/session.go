package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session 已登录会话
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// SessionStore 内存会话表（进程重启后失效）
type SessionStore struct {
	mu    sync.Mutex
	items map[string]Session
}

// NewSessionStore 创建会话表
func NewSessionStore() *SessionStore {
	return &SessionStore{
		items: make(map[string]Session),
	}
}

// Create 为用户创建新会话
func (s *SessionStore) Create(username string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := Session{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	s.items[sess.ID] = sess
	return sess
}

// Get 查找会话
func (s *SessionStore) Get(id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[id]
	return v, ok
}

// Delete 注销会话
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Len 当前会话数
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
