package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 内存答案存储
// 每个 key 只保存一个答案，读取后即删除
type MemoryStore struct {
	items map[string]*item
	ttl   time.Duration
	mu    sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

type item struct {
	value     string
	expiresAt time.Time
}

func (i *item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// NewMemoryStore 创建内存存储
// ttl <= 0 表示永不过期，此时不启动后台清理
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]*item),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	if ttl > 0 {
		go s.cleanupExpired(cleanupInterval(ttl))
	}

	return s
}

// Put 保存答案，覆盖已有值
func (s *MemoryStore) Put(ctx context.Context, key, answer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it := &item{value: answer}
	if s.ttl > 0 {
		it.expiresAt = time.Now().Add(s.ttl)
	}
	s.items[key] = it
	return nil
}

// TakeAndClear 读取并删除答案
func (s *MemoryStore) TakeAndClear(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, exists := s.items[key]
	if !exists {
		return "", false, nil
	}
	delete(s.items, key)

	if it.expired(time.Now()) {
		return "", false, nil
	}
	return it.value, true, nil
}

// Len 当前保存的答案数量（含未清理的过期项）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close 停止后台清理
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// cleanupExpired 定期清理过期答案
func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.purge(time.Now())
		}
	}
}

func (s *MemoryStore) purge(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, it := range s.items {
		if it.expired(now) {
			delete(s.items, key)
		}
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
