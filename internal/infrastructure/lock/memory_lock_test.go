package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/mohammadpnp/account-admin/internal/infrastructure/lock"
)

func TestMemoryLockExcludesSecondHolder(t *testing.T) {
	t.Parallel()

	l := lock.NewMemoryLock()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "account-import:abc", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got %v %v", ok, err)
	}
	ok, err = l.Acquire(ctx, "account-import:abc", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, got %v %v", ok, err)
	}
	ok, _ = l.Acquire(ctx, "account-import:other", time.Minute)
	if !ok {
		t.Fatal("expected unrelated key to be free")
	}

	if err := l.Release(ctx, "account-import:abc"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	ok, _ = l.Acquire(ctx, "account-import:abc", time.Minute)
	if !ok {
		t.Fatal("expected acquire after release to succeed")
	}
}

func TestMemoryLockExpires(t *testing.T) {
	t.Parallel()

	l := lock.NewMemoryLock()
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "k", time.Millisecond); !ok {
		t.Fatal("expected acquire to succeed")
	}
	time.Sleep(5 * time.Millisecond)
	if ok, _ := l.Acquire(ctx, "k", time.Minute); !ok {
		t.Fatal("expected expired lock to be reacquired")
	}
}

func TestMemoryLockCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := lock.NewMemoryLock().Acquire(ctx, "k", time.Minute); err == nil {
		t.Fatal("expected context error")
	}
}
