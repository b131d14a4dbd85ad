package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockTimeout indica que otro proceso retuvo el lock más allá de la espera permitida
var ErrLockTimeout = errors.New("timed out waiting for lock")

const lockRetryInterval = 50 * time.Millisecond

// Redis representa la conexión a Redis
type Redis struct {
	*redis.Client
}

// ConnectRedis establece la conexión a Redis
func ConnectRedis(cfg *config.Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error pinging Redis: %w", err)
	}

	return &Redis{client}, nil
}

// HealthCheck verifica la salud de Redis
func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

// LogStats registra las estadísticas del pool de Redis
func (r *Redis) LogStats(logger *logrus.Logger) {
	stats := r.PoolStats()
	logger.WithFields(logrus.Fields{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}).Info("Redis pool statistics")
}

// releaseScript borra la clave solo si todavía pertenece al token que la tomó
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implementa un lock exclusivo por clave con SET NX y TTL
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	prefix string
	logger *logrus.Logger
}

// NewRedisLocker crea un locker sobre Redis
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		prefix: "sifen:lock:",
		logger: logger,
	}
}

// Lock espera hasta obtener la clave o agotar la espera configurada.
// El lock expira solo tras el TTL si el proceso que lo tiene muere.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := l.prefix + key

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("error acquiring lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	unlock := func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer releaseCancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.WithError(err).WithField("lock", key).Warn("Failed to release lock")
		}
	}
	return unlock, nil
}

// LocalLocker implementa el mismo contrato dentro de un único proceso, para ejecutar sin Redis.
// Cada clave vive en el mapa solo mientras alguien la tiene o la espera.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
	wait  time.Duration
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker crea un locker en memoria
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{slots: make(map[string]*localSlot), wait: wait}
}

func (l *LocalLocker) acquire(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) release(key string, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// Lock espera hasta obtener la clave o agotar la espera configurada
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	slot := l.acquire(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
	case <-timer.C:
		l.release(key, slot)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(key, slot)
		})
	}, nil
}
