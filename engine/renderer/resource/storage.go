package resource

// StorageBuffer is a byte buffer bound as a shader storage array. Each write bumps the
// version so every context holding it re-uploads once.
type StorageBuffer struct {
	label   string
	data    []byte
	version uint64
}

// NewStorageBuffer creates a storage buffer holding a copy of data.
func NewStorageBuffer(label string, data []byte) *StorageBuffer {
	return &StorageBuffer{label: label, data: append([]byte(nil), data...), version: 1}
}

// Label returns the debug label.
func (b *StorageBuffer) Label() string { return b.label }

// Bytes returns the current contents. The slice must not be modified.
func (b *StorageBuffer) Bytes() []byte { return b.data }

// Version returns the content version, incremented by every Write.
func (b *StorageBuffer) Version() uint64 { return b.version }

// Write replaces the contents.
//
// Parameters:
//   - data: the new contents, copied
func (b *StorageBuffer) Write(data []byte) {
	b.data = append(b.data[:0], data...)
	b.version++
}

// WriteAt overwrites part of the contents, growing the buffer when needed.
//
// Parameters:
//   - offset: the byte offset
//   - data: the bytes to copy
func (b *StorageBuffer) WriteAt(offset int, data []byte) {
	if end := offset + len(data); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	copy(b.data[offset:], data)
	b.version++
}
