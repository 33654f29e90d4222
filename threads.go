package actor

import "sync"

// threadRegistry is a rendezvous table pairing an outbound send on a thread
// with the single inbound reply it expects. Rust's split oneshot::Sender /
// oneshot::Receiver become one cap-1 channel here, stored as directional
// views in two maps behind a single mutex.
type threadRegistry struct {
	mu        sync.Mutex
	senders   map[ThreadID]chan<- ThreadRequest
	receivers map[ThreadID]<-chan ThreadRequest
}

func newThreadRegistry() *threadRegistry {
	return &threadRegistry{
		senders:   make(map[ThreadID]chan<- ThreadRequest),
		receivers: make(map[ThreadID]<-chan ThreadRequest),
	}
}

// create opens a rendezvous slot for thread, to be filled once by the
// dispatcher's routeToThread and consumed once by AwaitMessage. Calling
// create again for the same thread before it's consumed overwrites the
// slot — last writer wins; a protocol that sends twice on the same thread
// before awaiting either reply loses the first registration.
func (t *threadRegistry) create(thread ThreadID) {
	ch := make(chan ThreadRequest, 1)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.senders[thread] = ch
	t.receivers[thread] = ch
}

// takeSender removes and returns the send side of thread's rendezvous slot,
// for the dispatcher to hand off an inbound reply. The slot is consumed
// exactly once; a second inbound message on the same thread with nobody
// re-registering a slot finds no sender.
func (t *threadRegistry) takeSender(thread ThreadID) (chan<- ThreadRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.senders[thread]
	if ok {
		delete(t.senders, thread)
	}
	return ch, ok
}

// takeReceiver removes and returns the receive side of thread's rendezvous
// slot, for AwaitMessage to block on.
func (t *threadRegistry) takeReceiver(thread ThreadID) (<-chan ThreadRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.receivers[thread]
	if ok {
		delete(t.receivers, thread)
	}
	return ch, ok
}

// shutdown drains every outstanding rendezvous slot, so AwaitMessage callers
// blocked on a channel that will never be filled unblock with ErrShutdown
// instead of hanging forever.
func (t *threadRegistry) shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.senders {
		close(ch)
		delete(t.senders, id)
	}
	for id := range t.receivers {
		delete(t.receivers, id)
	}
}
