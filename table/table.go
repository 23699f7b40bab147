package table

import (
	"math"
	"sync"

	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/errors"
	"github.com/wippyai/host-offload/table/internal/f32"
)

// Table is the host-side resource table. It owns every allocated buffer
// and its optional matrix shape, and issues monotonically increasing
// opaque handles. Table implements hostoffload.Boundary.
//
// The zero value is not usable; construct with New.
type Table struct {
	buffers   map[hostoffload.Handle][]byte
	shapes    map[hostoffload.Handle]hostoffload.Shape
	next      hostoffload.Handle
	inUse     uint64
	maxBytes  uint64
	mu        sync.Mutex
	observers []Observer
	obsMu     sync.RWMutex
}

// Option configures a Table at construction time.
type Option func(*Table)

// WithMaxBytes caps the total live buffer bytes the table will hold.
// Allocations that would exceed the cap fail with a resource_exhausted
// error. Zero (the default) means no cap.
func WithMaxBytes(n uint64) Option {
	return func(t *Table) {
		t.maxBytes = n
	}
}

// New creates an empty table. Handles start at 1.
func New(opts ...Option) *Table {
	t := &Table{
		buffers: make(map[hostoffload.Handle][]byte),
		shapes:  make(map[hostoffload.Handle]hostoffload.Shape),
		next:    1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe adds an observer for buffer lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// newHandle reserves the next handle. Must be called with t.mu held.
// The counter wrapping to zero would allow handle aliasing, which breaks
// the isolation contract, so exhaustion is fatal.
func (t *Table) newHandle() hostoffload.Handle {
	h := t.next
	t.next++
	if t.next == 0 {
		panic("table: handle counter exhausted")
	}
	return h
}

// Allocate reserves a fresh handle backed by size zero-initialized bytes.
func (t *Table) Allocate(size uint64) (hostoffload.Handle, error) {
	h, err := t.allocate(size, nil)
	if err != nil {
		return 0, err
	}
	t.notify(Event{Type: EventAllocated, Handle: h, Size: size})
	return h, nil
}

// AllocateMatrix reserves a fresh handle backed by rows*cols zeroed
// float32 elements and registers the shape in the same critical section.
// This is the race-free way to get shape metadata to the host before
// Multiply consumes it.
func (t *Table) AllocateMatrix(rows, cols uint32) (hostoffload.Handle, error) {
	if rows == 0 || cols == 0 {
		return 0, errors.InvalidArgument(errors.PhaseTable, "matrix dimensions must be non-zero")
	}
	shape := hostoffload.Shape{Rows: rows, Cols: cols}
	h, err := t.allocate(shape.ByteLen(), &shape)
	if err != nil {
		return 0, err
	}
	t.notify(Event{Type: EventAllocated, Handle: h, Size: shape.ByteLen(), Shape: shape, HasShape: true})
	return h, nil
}

func (t *Table) allocate(size uint64, shape *hostoffload.Shape) (hostoffload.Handle, error) {
	if size == 0 {
		return 0, errors.InvalidArgument(errors.PhaseTable, "cannot allocate zero-size buffer")
	}
	if size > math.MaxInt {
		return 0, errors.InvalidArgument(errors.PhaseTable, "allocation size exceeds addressable memory")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxBytes > 0 && size > t.maxBytes-t.inUse {
		return 0, errors.Exhausted(errors.PhaseTable, size, t.inUse, t.maxBytes)
	}

	h := t.newHandle()
	t.buffers[h] = make([]byte, size)
	t.inUse += size
	if shape != nil {
		t.shapes[h] = *shape
	}
	return h, nil
}

// Free releases the buffer and any registered shape for h atomically.
// Freeing a handle that is not live fails with invalid_handle; the second
// Free of the same handle therefore fails rather than being ignored.
func (t *Table) Free(h hostoffload.Handle) error {
	t.mu.Lock()
	buf, ok := t.buffers[h]
	if !ok {
		t.mu.Unlock()
		return errors.InvalidHandle(errors.PhaseTable, uint64(h))
	}
	shape, hadShape := t.shapes[h]
	delete(t.buffers, h)
	delete(t.shapes, h)
	t.inUse -= uint64(len(buf))
	t.mu.Unlock()

	t.notify(Event{Type: EventFreed, Handle: h, Size: uint64(len(buf)), Shape: shape, HasShape: hadShape})
	return nil
}

// Write copies data into h's buffer starting at offset. Either all of
// data is copied or, on a bounds failure, none of it.
func (t *Table) Write(data []byte, h hostoffload.Handle, offset uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	buf, ok := t.buffers[h]
	if !ok {
		return errors.InvalidHandle(errors.PhaseTable, uint64(h))
	}
	if offset > uint64(len(buf)) || uint64(len(data)) > uint64(len(buf))-offset {
		return errors.OutOfBounds(errors.PhaseTable, uint64(h), offset, uint64(len(data)), uint64(len(buf)))
	}
	copy(buf[offset:], data)
	return nil
}

// Read returns a copy of length bytes of h's buffer starting at offset.
// The returned slice is a snapshot: later writes to the buffer do not
// change it.
func (t *Table) Read(h hostoffload.Handle, offset, length uint64) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	buf, ok := t.buffers[h]
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseTable, uint64(h))
	}
	if offset > uint64(len(buf)) || length > uint64(len(buf))-offset {
		return nil, errors.OutOfBounds(errors.PhaseTable, uint64(h), offset, length, uint64(len(buf)))
	}
	out := make([]byte, length)
	copy(out, buf[offset:offset+length])
	return out, nil
}

// RegisterShape attaches (rows, cols) to h, replacing any prior shape.
// The shape is not validated against the buffer's byte length here:
// registration may legitimately happen before the writes that fill the
// buffer, so validation is deferred to Multiply.
func (t *Table) RegisterShape(h hostoffload.Handle, rows, cols uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.buffers[h]; !ok {
		return errors.InvalidHandle(errors.PhaseTable, uint64(h))
	}
	t.shapes[h] = hostoffload.Shape{Rows: rows, Cols: cols}
	return nil
}

// Shape returns the registered shape for h. A live handle with no shape
// and a dead handle both fail with invalid_handle: callers cannot
// distinguish the two without extra state, and need not.
func (t *Table) Shape(h hostoffload.Handle) (hostoffload.Shape, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	shape, ok := t.shapes[h]
	if !ok {
		return hostoffload.Shape{}, errors.InvalidHandle(errors.PhaseTable, uint64(h))
	}
	return shape, nil
}

// Len returns the number of live buffers.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buffers)
}

// Bytes returns the total byte length of all live buffers.
func (t *Table) Bytes() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inUse
}

// Each calls fn for every live buffer in unspecified order until fn
// returns false. hasShape reports whether shape is registered for h.
// fn runs outside the table lock against a snapshot, so it may call back
// into the table.
func (t *Table) Each(fn func(h hostoffload.Handle, size uint64, shape hostoffload.Shape, hasShape bool) bool) {
	t.mu.Lock()
	entries := make([]Event, 0, len(t.buffers))
	for h, buf := range t.buffers {
		shape, ok := t.shapes[h]
		entries = append(entries, Event{Handle: h, Size: uint64(len(buf)), Shape: shape, HasShape: ok})
	}
	t.mu.Unlock()

	for _, e := range entries {
		if !fn(e.Handle, e.Size, e.Shape, e.HasShape) {
			return
		}
	}
}

// Reset frees every live buffer, notifying observers for each. The handle
// counter is not reset: handles stay unique for the table's lifetime.
func (t *Table) Reset() {
	t.mu.Lock()
	freed := make([]Event, 0, len(t.buffers))
	for h, buf := range t.buffers {
		shape, ok := t.shapes[h]
		freed = append(freed, Event{Type: EventFreed, Handle: h, Size: uint64(len(buf)), Shape: shape, HasShape: ok})
	}
	t.buffers = make(map[hostoffload.Handle][]byte)
	t.shapes = make(map[hostoffload.Handle]hostoffload.Shape)
	t.inUse = 0
	t.mu.Unlock()

	for _, e := range freed {
		t.notify(e)
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnTableEvent(e)
	}
}

// Compile-time check that Table satisfies the boundary contract.
var _ hostoffload.Boundary = (*Table)(nil)

// decodeOperand interprets buf as the matrix described by shape, mapping
// codec failures and element-count disagreement to shape_mismatch.
// Must be called with t.mu held (reads the buffer in place).
func decodeOperand(h hostoffload.Handle, shape hostoffload.Shape, buf []byte) ([]float32, error) {
	data, err := f32.Decode(buf)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTable, errors.KindShapeMismatch, err, "decode matrix buffer")
	}
	if uint64(len(data)) != shape.Elems() {
		return nil, errors.ShapeMismatch(errors.PhaseTable, uint64(h), shape.Rows, shape.Cols, uint64(len(buf)))
	}
	return data, nil
}
