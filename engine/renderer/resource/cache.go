package resource

// cacheEntry is one resident backend object and the number of bindings holding it.
type cacheEntry struct {
	handle Handle
	refs   int
}

// Cache maps shared texture data to resident backend objects. It is owned by one Context
// and only touched from the render thread.
type Cache struct {
	entries map[any]*cacheEntry
}

func newCache() *Cache {
	return &Cache{entries: map[any]*cacheEntry{}}
}

// Len returns the number of resident entries, including unreferenced ones awaiting a sweep.
func (c *Cache) Len() int {
	return len(c.entries)
}

// acquire returns the handle stored under key and takes a reference.
func (c *Cache) acquire(key any) (Handle, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e.refs++
	return e.handle, true
}

func (c *Cache) insert(key any, h Handle) {
	c.entries[key] = &cacheEntry{handle: h, refs: 1}
}

func (c *Cache) release(key any) {
	if e, ok := c.entries[key]; ok && e.refs > 0 {
		e.refs--
	}
}

// sweep removes every unreferenced entry and returns the removed handles.
func (c *Cache) sweep() []Handle {
	var out []Handle
	for k, e := range c.entries {
		if e.refs == 0 {
			out = append(out, e.handle)
			delete(c.entries, k)
		}
	}
	return out
}

func (c *Cache) drain() []Handle {
	out := make([]Handle, 0, len(c.entries))
	for k, e := range c.entries {
		out = append(out, e.handle)
		delete(c.entries, k)
	}
	return out
}
