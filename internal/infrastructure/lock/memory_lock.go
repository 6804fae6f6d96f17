package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLock is a process-local UploadLock with expiring entries.
type MemoryLock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, ok := l.expires[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	l.expires[key] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.expires, key)
	return nil
}
