package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	// Revision is the provider revision the data belongs to.
	Revision uint64
	Data     []byte
}

// Apply runs write for the data, records the revision in uploaded and clears the provider's
// dirty flag for the binding.
//
// Parameters:
//   - uploaded: the backend copy's uploaded revisions, keyed by binding
//   - write: the backend upload
func (w BufferWrite) Apply(uploaded map[int]uint64, write func(offset uint64, data []byte)) {
	write(w.Offset, w.Data)
	uploaded[w.Binding] = w.Revision
	w.Provider.ClearDirty(w.Binding)
}
