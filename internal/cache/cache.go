package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"DeskChat/internal/session"
)

// Entry is a cached completion.
type Entry struct {
	Response  string
	Timestamp time.Time
}

// Cache remembers completions keyed by model and message history, so
// resending an identical conversation state skips the network call.
type Cache struct {
	m sync.Map
}

func New() *Cache { return &Cache{} }

// Key derives the cache key from the model and the full history. Two
// histories differing in any role, content or order never collide.
func Key(model string, messages []session.Message) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (c *Cache) Get(key string) (string, bool) {
	if val, ok := c.m.Load(key); ok {
		return val.(Entry).Response, true
	}
	return "", false
}

func (c *Cache) Put(key, response string) {
	c.m.Store(key, Entry{Response: response, Timestamp: time.Now()})
}
