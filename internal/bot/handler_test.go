package bot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserLockIsStablePerUser(t *testing.T) {
	b := &Bot{locks: make(map[int64]*sync.Mutex)}

	assert.Same(t, b.userLock(1), b.userLock(1), "события пользователя сериализуются одним замком")
	assert.NotSame(t, b.userLock(1), b.userLock(2), "разные пользователи не блокируют друг друга")
}
