package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter считает неудачные попытки входа по ключу (логину) в окне времени.
type Limiter interface {
	// Allow возвращает false, если ключ заблокирован.
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// NoLimit не ограничивает попытки.
type NoLimit struct{}

func (NoLimit) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoLimit) Fail(context.Context, string) error          { return nil }
func (NoLimit) Reset(context.Context, string) error         { return nil }

// MemoryLimiter хранит счётчики в памяти процесса.
type MemoryLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string]*attempts
	lastSweep time.Time
}

type attempts struct {
	count   int
	expires time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*attempts),
	}
}

func (l *MemoryLimiter) current(key string) *attempts {
	e, ok := l.entries[key]
	if !ok {
		return nil
	}
	if !l.now().Before(e.expires) {
		delete(l.entries, key)
		return nil
	}
	return e
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.current(key)
	return e == nil || e.count < l.max, nil
}

func (l *MemoryLimiter) Fail(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep()
	e := l.current(key)
	if e == nil {
		// окно отсчитывается от первой неудачной попытки
		e = &attempts{expires: l.now().Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	return nil
}

// sweep раз в окно выбрасывает истёкшие записи, иначе перебор случайных
// логинов растит карту без предела. Вызывать под l.mu.
func (l *MemoryLimiter) sweep() {
	now := l.now()
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for k, e := range l.entries {
		if !now.Before(e.expires) {
			delete(l.entries, k)
		}
	}
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

// RedisLimiter держит общие счётчики для нескольких экземпляров портала.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

func loginKey(key string) string {
	return fmt.Sprintf("login:fail:%s", key)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, loginKey(key)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < l.max, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, key string) error {
	k := loginKey(key)
	// INCR и EXPIRE в одной транзакции: счётчик без TTL заблокировал бы логин навсегда.
	// NX не сдвигает окно на повторных попытках.
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	return err
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, loginKey(key)).Err()
}
