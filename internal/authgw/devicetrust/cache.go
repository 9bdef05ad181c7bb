package devicetrust

import (
	"sync"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
)

// Cache is the fast local copy of the device token. Load returns (nil, nil)
// when nothing is cached.
type Cache interface {
	Load() (*domain.DeviceToken, error)
	Save(tok domain.DeviceToken) error
	Clear() error
	// ClearIf clears only while the cache still holds tok, so a token saved
	// after tok was read survives.
	ClearIf(tok domain.DeviceToken) error
}

// MemoryCache keeps the token in process memory.
type MemoryCache struct {
	mu  sync.Mutex
	tok *domain.DeviceToken
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{} }

func (c *MemoryCache) Load() (*domain.DeviceToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok == nil {
		return nil, nil
	}
	tok := *c.tok
	return &tok, nil
}

func (c *MemoryCache) Save(tok domain.DeviceToken) error {
	c.mu.Lock()
	c.tok = &tok
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	c.tok = nil
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) ClearIf(tok domain.DeviceToken) error {
	c.mu.Lock()
	if c.tok != nil && c.tok.Same(tok) {
		c.tok = nil
	}
	c.mu.Unlock()
	return nil
}
