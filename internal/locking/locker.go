package locking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// DefaultWait bounds how long a contended key is waited on when nothing else is configured.
const DefaultWait = 10 * time.Second

// ErrLockTimeout is returned when a key stays contended past the wait limit.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker serializes work on a key across concurrent callers.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Key normalizes a lock key: scope plus the lower-cased, trimmed value.
func Key(scope, value string) string {
	return scope + ":" + strings.ToLower(strings.TrimSpace(value))
}

// LockAll acquires every distinct key in sorted order so that two callers
// sharing keys can never deadlock. On failure any acquired lock is released.
func LockAll(ctx context.Context, locker Locker, keys ...string) (Unlock, error) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	sort.Strings(unique)

	held := make([]Unlock, 0, len(unique))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, key := range unique {
		unlock, err := locker.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, unlock)
	}
	return release, nil
}
