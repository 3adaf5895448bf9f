package kvstore

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is a single-process Store. Expired keys are hidden on read and swept every minute.
type Memory struct {
	mu      sync.Mutex
	data    map[string]entry
	now     func() time.Time
	janitor *cron.Cron
}

func NewMemory() *Memory {
	m := &Memory{data: make(map[string]entry), now: time.Now}
	m.janitor = cron.New()
	_, _ = m.janitor.AddFunc("@every 1m", m.sweep)
	m.janitor.Start()
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return ErrNotFound
	}
	e.expiresAt = m.now().Add(ttl)
	m.data[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error {
	<-m.janitor.Stop().Done()
	return nil
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
		}
	}
}
