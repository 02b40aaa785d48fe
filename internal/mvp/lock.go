package mvp

import "sync"

// chatLocks hands out one RWMutex per chat so that mutating operations
// on the same chat serialize while different chats never contend.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.RWMutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*sync.RWMutex)}
}

func (c *chatLocks) get(chatID int64) *sync.RWMutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[chatID]
	if !ok {
		lock = new(sync.RWMutex)
		c.locks[chatID] = lock
	}
	return lock
}
