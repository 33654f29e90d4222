package actor

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// Actor is the message-dispatch engine: a type-erased handler registry, a
// per-thread rendezvous table, and a listener goroutine arbitrating between
// them, sitting on top of a NetCommander transport. The zero value is not
// usable; construct with NewActor.
type Actor struct {
	commander NetCommander
	registry  *handlerRegistry
	threads   *threadRegistry

	stopOnce     sync.Once
	stop         chan struct{}
	listenerDone chan struct{}
}

// NewActor constructs an Actor over commander and immediately starts its
// listener goroutine, rather than waiting for the first StartListening call.
func NewActor(commander NetCommander) *Actor {
	a := &Actor{
		commander:    commander,
		registry:     newHandlerRegistry(),
		threads:      newThreadRegistry(),
		stop:         make(chan struct{}),
		listenerDone: make(chan struct{}),
	}
	go a.spawnListener(a.stop)
	return a
}

// AddState registers state as the shared object for a group of handlers and
// returns a builder to bind them with AddHandler, AddSendHook, or
// AddReceiveHook.
func (a *Actor) AddState(state any) HandlerBuilder {
	return HandlerBuilder{actor: a, objectID: a.registry.addState(state)}
}

// StartListening begins accepting inbound connections on addr.
func (a *Actor) StartListening(ctx context.Context, addr multiaddr.Multiaddr) error {
	return a.commander.StartListening(ctx, addr)
}

// Addresses returns the addresses the actor is currently listening on.
func (a *Actor) Addresses() []multiaddr.Multiaddr {
	return a.commander.Addresses()
}

// PeerID returns the actor's own peer identity.
func (a *Actor) PeerID() peer.ID {
	return a.commander.PeerID()
}

// AddAddress records addr as reachable for p.
func (a *Actor) AddAddress(p peer.ID, addr multiaddr.Multiaddr) {
	a.commander.AddAddress(p, addr)
}

// StopHandlingRequests stops the listener goroutine and unblocks any pending
// AwaitMessage calls with ErrShutdown. It is safe to call more than once.
// Requests already being invoked are allowed to finish; only the accept
// loop and idle waiters stop.
func (a *Actor) StopHandlingRequests() error {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
	<-a.listenerDone
	a.threads.shutdown()
	return nil
}

// Join blocks until the listener goroutine exits, i.e. until some caller
// invokes StopHandlingRequests or the commander's inbound channel closes.
func (a *Actor) Join() {
	<-a.listenerDone
}

// SendMessage opens thread as a new rendezvous (overwriting any prior slot
// registered on the same thread) and sends msg to p under the endpoint named
// by msg.RequestName(). It blocks for the peer's ack, returning any error
// the peer reported — not the eventual reply body, which arrives separately
// through AwaitMessage.
func SendMessage[R ActorRequest](ctx context.Context, a *Actor, p peer.ID, thread ThreadID, msg R, opts ...SendOption) error {
	return SendNamedMessage(ctx, a, p, msg.RequestName(), thread, msg, opts...)
}

// SendNamedMessage is SendMessage with an explicit endpoint name, for
// callers whose request type does not implement ActorRequest.
func SendNamedMessage[R any](ctx context.Context, a *Actor, p peer.ID, name string, thread ThreadID, msg R, opts ...SendOption) error {
	o := sendDefaults()
	for _, opt := range opts {
		opt(&o)
	}

	a.threads.create(thread)

	ep, err := NewEndpoint(name)
	if err != nil {
		return err
	}

	hookEp, err := NewHookEndpoint(name)
	if err != nil {
		return err
	}
	rewritten, err := callHook(a, hookEp, p, msg)
	if err != nil {
		return err
	}

	envelope := NewPlaintextMessage(thread, name, rewritten)
	envelope.ParentThread = o.parentThread
	body, err := json.Marshal(envelope)
	if err != nil {
		return &SerializationFailureError{Location: "actor.SendNamedMessage", Message: err.Error()}
	}

	data, err := json.Marshal(RequestEnvelope{Endpoint: ep, Data: body})
	if err != nil {
		return &SerializationFailureError{Location: "actor.SendNamedMessage", Message: err.Error()}
	}

	respData, err := a.commander.SendRequest(ctx, p, data)
	if err != nil {
		return &CouldNotRespondError{Endpoint: ep, Cause: err}
	}

	var ack Ack
	if err := json.Unmarshal(respData, &ack); err != nil {
		return &DeserializationFailureError{Location: "actor.SendNamedMessage", Message: err.Error()}
	}
	return ack.AsError()
}

// AwaitMessage blocks until thread's rendezvous slot receives an inbound
// reply (created by an earlier SendMessage/SendNamedMessage on the same
// thread), deserializes its body as T, and runs it through any receive hook
// bound to the endpoint it arrived on. It returns ErrShutdown if
// StopHandlingRequests is called while waiting, or *ThreadNotFoundError if
// no slot was ever created for thread.
func AwaitMessage[T any](ctx context.Context, a *Actor, thread ThreadID) (T, error) {
	var zero T

	receiver, ok := a.threads.takeReceiver(thread)
	if !ok {
		return zero, &ThreadNotFoundError{Thread: thread}
	}

	var req ThreadRequest
	select {
	case r, ok := <-receiver:
		if !ok {
			return zero, ErrShutdown
		}
		req = r
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	var envelope PlaintextMessage[T]
	if err := json.Unmarshal(req.Input, &envelope); err != nil {
		return zero, &DeserializationFailureError{Location: "actor.AwaitMessage", Message: err.Error()}
	}

	hookEp := req.Endpoint.WithIsHook(true)
	result, err := callHook(a, hookEp, req.Peer, envelope.Body)
	if err != nil {
		return zero, err
	}
	return result, nil
}
