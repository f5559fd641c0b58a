package terraform

import "sync/atomic"

// OpLock provides non-blocking lock semantics using atomic operations.
// It guards mutating terraform operations within one process: a second
// apply is rejected, not queued.
type OpLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *OpLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *OpLock) Release() {
	l.state.Store(0)
}
