package image

import "sync"

// scopeLocker 按作用域加锁，写操作互斥，列表读取共享
type scopeLocker struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	rw   sync.RWMutex
	refs int
}

func newScopeLocker() *scopeLocker {
	return &scopeLocker{locks: make(map[string]*scopeLock)}
}

func (l *scopeLocker) acquire(key string) *scopeLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl, ok := l.locks[key]
	if !ok {
		sl = &scopeLock{}
		l.locks[key] = sl
	}
	sl.refs++
	return sl
}

func (l *scopeLocker) release(key string, sl *scopeLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock 获取写锁，返回解锁函数
func (l *scopeLocker) Lock(key string) func() {
	sl := l.acquire(key)
	sl.rw.Lock()
	return func() {
		sl.rw.Unlock()
		l.release(key, sl)
	}
}

// RLock 获取读锁，返回解锁函数
func (l *scopeLocker) RLock(key string) func() {
	sl := l.acquire(key)
	sl.rw.RLock()
	return func() {
		sl.rw.RUnlock()
		l.release(key, sl)
	}
}

// size 当前持有的锁数量
func (l *scopeLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
