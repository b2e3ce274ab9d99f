package storage

import (
	"sort"
	"sync"
)

// Overlay buffers writes on top of a parent database. Reads fall through to
// the parent for keys the overlay has not touched. Nothing reaches the parent
// until Commit is called.
type Overlay struct {
	parent Database

	mu      sync.RWMutex
	pending map[string][]byte
	deleted map[string]struct{}
}

// NewOverlay wraps the parent database.
func NewOverlay(parent Database) *Overlay {
	return &Overlay{
		parent:  parent,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

func (o *Overlay) Put(key []byte, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	delete(o.deleted, k)
	o.pending[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mu.RLock()
	k := string(key)
	if _, gone := o.deleted[k]; gone {
		o.mu.RUnlock()
		return nil, ErrNotFound
	}
	if value, ok := o.pending[k]; ok {
		o.mu.RUnlock()
		return append([]byte(nil), value...), nil
	}
	o.mu.RUnlock()
	return o.parent.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	o.mu.RLock()
	k := string(key)
	if _, gone := o.deleted[k]; gone {
		o.mu.RUnlock()
		return false, nil
	}
	if _, ok := o.pending[k]; ok {
		o.mu.RUnlock()
		return true, nil
	}
	o.mu.RUnlock()
	return o.parent.Has(key)
}

func (o *Overlay) Delete(key []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	delete(o.pending, k)
	o.deleted[k] = struct{}{}
	return nil
}

// Pending returns the number of buffered mutations.
func (o *Overlay) Pending() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.pending) + len(o.deleted)
}

// Commit flushes the buffered mutations to the parent and clears the overlay.
// Backends implementing Batcher receive the mutations as a single batch.
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	ops := make([]Op, 0, len(o.pending)+len(o.deleted))
	for k, v := range o.pending {
		ops = append(ops, Op{Key: []byte(k), Value: v})
	}
	for k := range o.deleted {
		ops = append(ops, Op{Key: []byte(k)})
	}
	sort.Slice(ops, func(i, j int) bool { return string(ops[i].Key) < string(ops[j].Key) })
	if batcher, ok := o.parent.(Batcher); ok {
		if err := batcher.WriteBatch(ops); err != nil {
			return err
		}
	} else {
		for _, op := range ops {
			var err error
			if op.Value == nil {
				err = o.parent.Delete(op.Key)
			} else {
				err = o.parent.Put(op.Key, op.Value)
			}
			if err != nil {
				return err
			}
		}
	}
	o.reset()
	return nil
}

// Discard drops every buffered mutation.
func (o *Overlay) Discard() {
	o.mu.Lock()
	o.reset()
	o.mu.Unlock()
}

func (o *Overlay) reset() {
	o.pending = make(map[string][]byte)
	o.deleted = make(map[string]struct{})
}

// Close is a no-op; the parent owns the underlying resources.
func (o *Overlay) Close() {}
