package handle

import (
	"sync/atomic"
	"unsafe"
)

// Notifier delivers deletion notifications for native objects whose
// ecosystem reports destruction by an external owner. Subscribe returns a
// cancel function; after the callback fires, cancellation is a no-op.
type Notifier interface {
	Subscribe(raw unsafe.Pointer, onDelete func()) (cancel func())
}

// Weak is a view over an object that may be destroyed behind the bindings'
// back. It reports itself absent once the deletion notification arrives,
// instead of dangling.
//
// Notifications may arrive from native callback threads, so liveness is
// tracked atomically even though the engine itself is single-threaded.
type Weak struct {
	raw    unsafe.Pointer
	meta   *Meta
	dead   atomic.Bool
	cancel func()
}

// NewWeak subscribes a weak view of the object behind p. A nil view is
// created already-dead.
func NewWeak(p Ptr, n Notifier) *Weak {
	w := &Weak{raw: p.Raw(), meta: p.Meta()}
	if w.raw == nil {
		w.dead.Store(true)
		return w
	}
	w.cancel = n.Subscribe(w.raw, func() { w.dead.Store(true) })
	return w
}

// Get returns a live view of the object. ok is false once the underlying
// object has been destroyed.
func (w *Weak) Get() (Ptr, bool) {
	if w.dead.Load() {
		return Ptr{}, false
	}
	return Ptr{raw: w.raw, meta: w.meta}, true
}

// Alive reports whether the underlying object still exists.
func (w *Weak) Alive() bool { return !w.dead.Load() }

// Close unsubscribes from deletion notifications. The view reports absent
// afterwards.
func (w *Weak) Close() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.dead.Store(true)
}
