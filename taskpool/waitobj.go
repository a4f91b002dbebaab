package taskpool

import "sync"

// WaitObject is a one-shot completion notification.
//
// One party calls Notify once the awaited event has happened; any number of
// parties may call Wait, before or after the notification. Notify is
// idempotent. A WaitObject cannot be reused; create a new one per event.
type WaitObject struct {
	done chan struct{}
	once sync.Once
}

// NewWaitObject creates an unsignaled WaitObject.
func NewWaitObject() *WaitObject {
	return &WaitObject{done: make(chan struct{})}
}

// Notify signals the object. Safe to call multiple times.
func (w *WaitObject) Notify() {
	w.once.Do(func() { close(w.done) })
}

// Wait blocks until Notify has been called.
func (w *WaitObject) Wait() {
	<-w.done
}

// Done returns a channel closed once Notify has been called, for use in
// select statements.
func (w *WaitObject) Done() <-chan struct{} {
	return w.done
}
