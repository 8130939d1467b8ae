package resource

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Handle is an opaque backend object: a GL texture or buffer name, or a WebGPU texture
// view or buffer.
type Handle any

// Uploader creates and destroys backend objects. It is implemented by each renderer
// backend and called from the render thread only.
type Uploader interface {
	// UploadTexture creates a backend texture holding d.
	UploadTexture(d *Data, usage Usage) (Handle, error)
	// ReleaseTexture destroys a texture created by UploadTexture.
	ReleaseTexture(h Handle)
	// UploadBuffer creates a storage buffer holding data.
	UploadBuffer(data []byte) (Handle, error)
	// UpdateBuffer replaces the contents of a buffer created by UploadBuffer. It may
	// return a new handle when the buffer had to grow.
	UpdateBuffer(h Handle, data []byte) (Handle, error)
	// ReleaseBuffer destroys a buffer created by UploadBuffer.
	ReleaseBuffer(h Handle)
}

// Executor runs decode jobs off the render thread.
type Executor interface {
	Submit(id int, fn func())
}

// poolExecutor runs jobs on an automation worker pool.
type poolExecutor struct {
	pool worker.DynamicWorkerPool
}

func newPoolExecutor(workers, queue int) *poolExecutor {
	return &poolExecutor{pool: worker.NewDynamicWorkerPool(workers, queue, 1*time.Second)}
}

func (e *poolExecutor) Submit(id int, fn func()) {
	e.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			fn()
			return nil, nil
		},
	})
}

// completion is a finished async decode waiting to be installed.
type completion struct {
	texture *Texture
	data    *Data
	err     error
}

// residency is the per-context state of one texture.
type residency struct {
	key    any
	handle Handle
	err    error
}

// buffer is the per-context state of one storage buffer.
type buffer struct {
	handle  Handle
	version uint64
	err     error
}

// residencyContext is the unexported implementation of Context.
type residencyContext struct {
	uploader Uploader
	executor Executor
	logger   *slog.Logger
	workers  int
	queue    int

	cache    *Cache
	textures map[*Texture]*residency
	buffers  map[*StorageBuffer]*buffer
	nextTask int

	mu      sync.Mutex
	pending []completion
}

// Context owns the backend residency of textures and storage buffers for one renderer.
// Everything except the completion queue is confined to the render thread.
type Context interface {
	// RequestTexture makes t resident, starting its load if needed.
	//
	// Parameters:
	//   - t: the texture
	//
	// Returns:
	//   - Handle: the backend texture, valid only when ready is true
	//   - bool: ready, false while loading and forever after a failure
	RequestTexture(t *Texture) (Handle, bool)

	// State returns the residency state of t in this context.
	//
	// Parameters:
	//   - t: the texture
	//
	// Returns:
	//   - State: NotLoaded before any request, Loading while decoding, then Loaded or Failed
	State(t *Texture) State

	// ReleaseTexture drops this context's reference to t. The backend object is destroyed
	// by the next Poll once no texture references it.
	//
	// Parameters:
	//   - t: the texture
	ReleaseTexture(t *Texture)

	// RequestStorageBuffer makes b resident and current, uploading when its version changed.
	//
	// Parameters:
	//   - b: the storage buffer
	//
	// Returns:
	//   - Handle: the backend buffer
	//   - bool: false when the upload failed
	RequestStorageBuffer(b *StorageBuffer) (Handle, bool)

	// ReleaseStorageBuffer destroys this context's copy of b.
	//
	// Parameters:
	//   - b: the storage buffer
	ReleaseStorageBuffer(b *StorageBuffer)

	// Poll installs finished async decodes and sweeps unreferenced cache entries. It must
	// be called on the render thread, typically once per frame.
	//
	// Returns:
	//   - int: the number of completions installed
	Poll() int

	// Cache returns the residency cache.
	//
	// Returns:
	//   - *Cache: the cache owned by this context
	Cache() *Cache

	// Close releases every backend object owned by the context.
	Close()
}

var _ Context = &residencyContext{}

// NewContext creates a residency context over uploader.
//
// Parameters:
//   - uploader: the backend used to create and destroy objects
//   - options: a variadic list of ContextOption functions
//
// Returns:
//   - Context: the new context
func NewContext(uploader Uploader, options ...ContextOption) Context {
	if uploader == nil {
		panic("resource: context requires an uploader")
	}
	c := &residencyContext{
		uploader: uploader,
		logger:   slog.Default(),
		workers:  4,
		queue:    256,
		cache:    newCache(),
		textures: map[*Texture]*residency{},
		buffers:  map[*StorageBuffer]*buffer{},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.executor == nil {
		c.executor = newPoolExecutor(c.workers, c.queue)
	}
	return c
}

func (c *residencyContext) RequestTexture(t *Texture) (Handle, bool) {
	if r, ok := c.textures[t]; ok {
		return r.handle, r.err == nil
	}

	switch t.state {
	case NotLoaded:
		c.load(t)
		if t.state != Loaded {
			return nil, false
		}
	case Loading:
		return nil, false
	case Failed:
		return nil, false
	}

	r := &residency{key: t.key()}
	c.textures[t] = r
	if h, ok := c.cache.acquire(r.key); ok {
		r.handle = h
		return h, true
	}
	h, err := c.uploader.UploadTexture(t.data, t.usage)
	if err != nil {
		r.err = fmt.Errorf("resource: upload texture %q: %w", t.label, err)
		c.logger.Error("texture upload failed", "texture", t.label, "error", err)
		return nil, false
	}
	r.handle = h
	c.cache.insert(r.key, h)
	c.logger.Debug("texture resident", "texture", t.label, "width", t.data.Width, "height", t.data.Height)
	return h, true
}

// load starts decoding t according to its strategy.
func (c *residencyContext) load(t *Texture) {
	switch t.strategy {
	case Sync, Prebuffered:
		t.decode()
		if t.state == Failed {
			c.logger.Error("texture decode failed", "texture", t.label, "error", t.err)
		}
	default:
		t.state = Loading
		id := c.nextTask
		c.nextTask++
		loader := t.loader
		c.executor.Submit(id, func() {
			d, err := loader.Load()
			c.mu.Lock()
			c.pending = append(c.pending, completion{texture: t, data: d, err: err})
			c.mu.Unlock()
		})
		c.logger.Debug("texture load queued", "texture", t.label, "task", id)
	}
}

func (c *residencyContext) State(t *Texture) State {
	if r, ok := c.textures[t]; ok {
		if r.err != nil {
			return Failed
		}
		return Loaded
	}
	if t.state == Loaded {
		// Decoded but not yet uploaded here.
		return NotLoaded
	}
	return t.state
}

func (c *residencyContext) ReleaseTexture(t *Texture) {
	r, ok := c.textures[t]
	if !ok {
		return
	}
	delete(c.textures, t)
	if r.err == nil {
		c.cache.release(r.key)
	}
}

func (c *residencyContext) RequestStorageBuffer(b *StorageBuffer) (Handle, bool) {
	s, ok := c.buffers[b]
	if !ok {
		h, err := c.uploader.UploadBuffer(b.data)
		if err != nil {
			c.buffers[b] = &buffer{err: err}
			c.logger.Error("storage buffer upload failed", "buffer", b.label, "error", err)
			return nil, false
		}
		c.buffers[b] = &buffer{handle: h, version: b.version}
		return h, true
	}
	if s.err != nil {
		return nil, false
	}
	if s.version != b.version {
		h, err := c.uploader.UpdateBuffer(s.handle, b.data)
		if err != nil {
			s.err = err
			c.logger.Error("storage buffer update failed", "buffer", b.label, "error", err)
			return nil, false
		}
		s.handle, s.version = h, b.version
	}
	return s.handle, true
}

func (c *residencyContext) ReleaseStorageBuffer(b *StorageBuffer) {
	s, ok := c.buffers[b]
	if !ok {
		return
	}
	delete(c.buffers, b)
	if s.err == nil {
		c.uploader.ReleaseBuffer(s.handle)
	}
}

func (c *residencyContext) Poll() int {
	c.mu.Lock()
	done := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, d := range done {
		d.texture.install(d.data, d.err)
		if d.texture.state == Failed {
			c.logger.Error("texture decode failed", "texture", d.texture.label, "error", d.texture.err)
		} else {
			c.logger.Debug("texture decoded", "texture", d.texture.label)
		}
	}
	for _, h := range c.cache.sweep() {
		c.uploader.ReleaseTexture(h)
	}
	return len(done)
}

func (c *residencyContext) Cache() *Cache {
	return c.cache
}

func (c *residencyContext) Close() {
	for _, h := range c.cache.drain() {
		c.uploader.ReleaseTexture(h)
	}
	for b, s := range c.buffers {
		if s.err == nil {
			c.uploader.ReleaseBuffer(s.handle)
		}
		delete(c.buffers, b)
	}
	c.textures = map[*Texture]*residency{}
}
