package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DrawLatch allows one in-flight draw per participant and draw type.
type DrawLatch interface {
	// Acquire returns models.ErrDrawInProgress when the latch is held.
	Acquire(ctx context.Context, participantID string, drawType models.DrawType) (release func(), err error)
}

func latchKey(participantID string, drawType models.DrawType) string {
	return fmt.Sprintf("%sdraw-lock:%s:%s", keyPrefix, drawType.Slug(), participantID)
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDrawLatch is shared by every API replica.
type RedisDrawLatch struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisDrawLatch creates a latch that self-expires after ttl.
func NewRedisDrawLatch(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisDrawLatch {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisDrawLatch{client: client, ttl: ttl, logger: logger}
}

// Acquire sets the latch key with NX
func (l *RedisDrawLatch) Acquire(ctx context.Context, participantID string, drawType models.DrawType) (func(), error) {
	key := latchKey(participantID, drawType)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrDrawInProgress
	}
	return func() {
		// The request context may already be cancelled by now.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release draw latch, it expires on its own", "error", err, "key", key, "ttl", l.ttl)
		}
	}, nil
}

// LocalDrawLatch is the single process latch used without Redis.
type LocalDrawLatch struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalDrawLatch creates an empty LocalDrawLatch
func NewLocalDrawLatch() *LocalDrawLatch {
	return &LocalDrawLatch{held: map[string]struct{}{}}
}

// Acquire marks the key as held
func (l *LocalDrawLatch) Acquire(_ context.Context, participantID string, drawType models.DrawType) (func(), error) {
	key := latchKey(participantID, drawType)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, models.ErrDrawInProgress
	}
	l.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
