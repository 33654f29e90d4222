package actor

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

// HookFunc is the shape of a send or receive hook: it observes (and may
// rewrite) a message of type I before it leaves the actor or before it
// reaches AwaitMessage. Returning ErrTerminate (or an error wrapping it,
// typically after the hook has sent its own problem report to the peer)
// stops the protocol run being intercepted.
type HookFunc[OBJ any, I any] func(object OBJ, a *Actor, ctx RequestContext[I]) (I, error)

// AddSendHook registers fn to run on every outbound message of type I sent
// via SendMessage/SendNamedMessage, under b's state object.
func AddSendHook[OBJ any, I any](b HandlerBuilder, endpoint string, fn HookFunc[OBJ, I]) (HandlerBuilder, error) {
	return addHook(b, endpoint, fn)
}

// AddReceiveHook registers fn to run on every message about to be returned
// from AwaitMessage, under b's state object.
func AddReceiveHook[OBJ any, I any](b HandlerBuilder, endpoint string, fn HookFunc[OBJ, I]) (HandlerBuilder, error) {
	return addHook(b, endpoint, fn)
}

func addHook[OBJ any, I any](b HandlerBuilder, endpoint string, fn HookFunc[OBJ, I]) (HandlerBuilder, error) {
	ep, err := NewHookEndpoint(endpoint)
	if err != nil {
		return b, err
	}
	wrapped := func(object OBJ, a *Actor, ctx RequestContext[I]) (I, error) {
		return fn(object, a, ctx)
	}
	b.actor.registry.bind(ep, b.objectID, typedHandler[OBJ, I, I]{fn: wrapped})
	return b, nil
}

// callHook invokes the hook bound to endpoint (if any) with input, returning
// the hook's (possibly rewritten) value. If no hook is bound, input passes
// through unchanged. A hook signaling ErrTerminate surfaces as
// *TerminatedError naming the intercepting endpoint.
func callHook[I any](a *Actor, endpoint Endpoint, p peer.ID, input I) (I, error) {
	if !a.registry.hasHandler(endpoint) {
		return input, nil
	}

	handler, object, err := a.registry.lookup(endpoint)
	if err != nil {
		return input, err
	}

	ctx := RequestContext[any]{Input: input, Peer: p, Endpoint: endpoint}
	result, err := handler.invoke(a, object, ctx)
	if err != nil {
		if errors.Is(err, ErrTerminate) {
			var zero I
			return zero, &TerminatedError{Endpoint: endpoint}
		}
		var zero I
		return zero, err
	}

	typed, ok := result.(I)
	if !ok {
		var zero I
		return zero, &HookInvocationError{Message: fmt.Sprintf("hook did not return the expected type %T", zero)}
	}
	return typed, nil
}
