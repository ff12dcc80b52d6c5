package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"volley-globe/internal/geo"
	"volley-globe/internal/globe"
	"volley-globe/internal/logger"
	"volley-globe/internal/metrics"
	"volley-globe/internal/registry"
	"volley-globe/internal/selection"
)

// Deps：所有会话共享的只读依赖
type Deps struct {
	Features []geo.Feature
	Options  globe.Options
	Registry *registry.Registry
	Rankings selection.Rankings
}

// Manager：会话注册表与过期回收
// 约束：空闲超过 ttl 的会话在下一轮回收时删除；线程安全读写
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewManager(deps Deps, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	iv := ttl / 4
	if iv < time.Second {
		iv = time.Second
	}
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		ttl:      ttl,
		interval: iv,
		now:      time.Now,
		log:      logger.Named("session"),
	}
}

// SetClock：测试用
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

func (m *Manager) TTL() time.Duration { return m.ttl }

// Create：新建会话并输出初始帧
func (m *Manager) Create() (*Session, globe.Frame) {
	s := newSession(uuid.NewString(), m.deps, m.now)
	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SessionsActive.Set(float64(n))
	f := s.ctl.Render()
	m.log.Info("session_created", "id", s.ID, "active", n)
	return s, f
}

// Get：取会话并刷新活跃时间
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		s.close()
		metrics.SessionsActive.Set(float64(n))
		m.log.Info("session_deleted", "id", id, "active", n)
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start：周期回收过期会话；在 ctx 取消时停止
func (m *Manager) Start(ctx context.Context) {
	t := time.NewTicker(m.interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Reap()
			}
		}
	}()
}

// Reap：删除空闲超过 ttl 的会话，返回删除数量
func (m *Manager) Reap() int {
	cutoff := m.now().Add(-m.ttl)
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()
	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		metrics.SessionsActive.Set(float64(n))
		m.log.Info("session_reaped", "expired", len(expired), "active", n)
	}
	return len(expired)
}
