package tokenizer

import "sync/atomic"

// memoryCapabilities keeps the extensions flag in memory.
type memoryCapabilities struct {
	enabled atomic.Bool
}

func newMemoryCapabilities(enabled bool) *memoryCapabilities {
	c := &memoryCapabilities{}
	c.enabled.Store(enabled)
	return c
}

func (c *memoryCapabilities) ExtensionsEnabled() bool {
	return c.enabled.Load()
}

func (c *memoryCapabilities) EnableExtensions() error {
	c.enabled.Store(true)
	return nil
}
