package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// MiddlewareManager is an ordered, append-only middleware chain mounted as a
// single gin handler.
type MiddlewareManager struct {
	mu   sync.RWMutex
	mids []gin.HandlerFunc
}

func NewManager() *MiddlewareManager {
	return &MiddlewareManager{}
}

func (m *MiddlewareManager) Add(hs ...gin.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hs {
		if h != nil {
			m.mids = append(m.mids, h)
		}
	}
}

// Use runs the chain in order and stops at the first handler that aborts.
func (m *MiddlewareManager) Use() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		chain := m.mids
		m.mu.RUnlock()

		for _, h := range chain {
			h(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}
