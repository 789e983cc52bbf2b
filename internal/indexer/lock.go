package indexer

import "sync/atomic"

// IndexLock is a non-blocking lock guarding content rebuilds
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *IndexLock) Release() {
	l.state.Store(0)
}

// Held reports whether a rebuild currently holds the lock
func (l *IndexLock) Held() bool {
	return l.state.Load() == 1
}
