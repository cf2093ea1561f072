package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestPhoneMutexIsExclusive(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	first := NewPhoneMutex(client, "555-0100", "req-1", 10*time.Second)
	second := NewPhoneMutex(client, "555-0100", "req-2", 10*time.Second)

	ok, err := first.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first TryAcquire = %v, %v", ok, err)
	}
	ok, err = second.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("second TryAcquire: %v", err)
	}
	if ok {
		t.Fatal("second owner acquired a held lock")
	}

	other := NewPhoneMutex(client, "555-0199", "req-3", 10*time.Second)
	if ok, _ := other.TryAcquire(ctx); !ok {
		t.Fatal("different phone number should not contend")
	}
}

func TestReleaseByNonOwnerIsNoop(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	owner := NewPhoneMutex(client, "555-0100", "req-1", 10*time.Second)
	intruder := NewPhoneMutex(client, "555-0100", "req-2", 10*time.Second)

	if ok, _ := owner.TryAcquire(ctx); !ok {
		t.Fatal("owner failed to lock")
	}
	released, err := intruder.Release(ctx)
	if err != nil || released {
		t.Fatalf("intruder Release = %v, %v", released, err)
	}
	if got, _ := mr.Get(owner.Key()); got != "req-1" {
		t.Fatalf("lock value = %q, want req-1", got)
	}

	released, err = owner.Release(ctx)
	if err != nil || !released {
		t.Fatalf("owner Release = %v, %v", released, err)
	}
	if mr.Exists(owner.Key()) {
		t.Fatal("lock still present after owner release")
	}
}

func TestAcquireGivesUp(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	holder := NewPhoneMutex(client, "555-0100", "req-1", 10*time.Second)
	if ok, _ := holder.TryAcquire(ctx); !ok {
		t.Fatal("holder failed to lock")
	}

	waiter := NewPhoneMutex(client, "555-0100", "req-2", 10*time.Second)
	if err := waiter.Acquire(ctx, time.Millisecond, 3); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("Acquire err = %v, want ErrNotAcquired", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := waiter.Acquire(cancelled, time.Millisecond, 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("Acquire on cancelled ctx err = %v", err)
	}
}

func TestLockExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	holder := NewPhoneMutex(client, "555-0100", "req-1", time.Second)
	if ok, _ := holder.TryAcquire(ctx); !ok {
		t.Fatal("holder failed to lock")
	}
	mr.FastForward(2 * time.Second)

	waiter := NewPhoneMutex(client, "555-0100", "req-2", time.Second)
	if err := waiter.Acquire(ctx, time.Millisecond, 1); err != nil {
		t.Fatalf("lock should be free after expiry: %v", err)
	}
	if released, _ := holder.Release(ctx); released {
		t.Fatal("expired holder released the new owner's lock")
	}
}
