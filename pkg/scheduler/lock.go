package scheduler

import (
	"context"
	"sync/atomic"
)

// LocalLocker is a process-local, non-blocking run lock.
type LocalLocker struct {
	held atomic.Bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryLock(ctx context.Context) (bool, func(), error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}
	if !l.held.CompareAndSwap(false, true) {
		return false, nil, nil
	}

	var once atomic.Bool
	return true, func() {
		if once.CompareAndSwap(false, true) {
			l.held.Store(false)
		}
	}, nil
}
