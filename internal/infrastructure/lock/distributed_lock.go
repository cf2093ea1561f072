package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// Redis 互斥锁
// ============================================================================
//
// 创建顾客是"先按手机号查重，再插入"，两步之间没有数据库约束。
// 多个实例同时创建同一个手机号时，都可能通过查重。
// 以手机号为 key 加锁后，查重和插入在锁内串行执行。
//
//   加锁：SET key token NX PX ttl，ttl 防止持有者崩溃后死锁
//   解锁：脚本内比较 token 再 DEL，只释放自己持有的锁
//
// ============================================================================

var ErrNotAcquired = errors.New("获取分布式锁失败")

const phoneKeyPrefix = "tavern:lock:customer:phone:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Mutex 单 key 的 Redis 互斥锁，token 标识持有者
type Mutex struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

func NewMutex(client *redis.Client, key, token string, ttl time.Duration) *Mutex {
	return &Mutex{client: client, key: key, token: token, ttl: ttl}
}

// NewPhoneMutex 按手机号加锁，token 一般用请求编号
func NewPhoneMutex(client *redis.Client, phoneNumber, token string, ttl time.Duration) *Mutex {
	return NewMutex(client, phoneKeyPrefix+phoneNumber, token, ttl)
}

func (m *Mutex) Key() string {
	return m.key
}

// TryAcquire 非阻塞加锁
func (m *Mutex) TryAcquire(ctx context.Context) (bool, error) {
	return m.client.SetNX(ctx, m.key, m.token, m.ttl).Result()
}

// Acquire 每隔 backoff 重试一次，最多 attempts 次
func (m *Mutex) Acquire(ctx context.Context, backoff time.Duration, attempts int) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		ok, err := m.TryAcquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		timer.Reset(backoff)
	}
	return ErrNotAcquired
}

// Release 释放锁；锁已过期或被他人持有时返回 false
func (m *Mutex) Release(ctx context.Context) (bool, error) {
	n, err := releaseScript.Run(ctx, m.client, []string{m.key}, m.token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
