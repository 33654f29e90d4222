package actor

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// StateCloner lets a state object opt into a custom clone instead of Go's
// native value-copy semantics, e.g. when it holds a slice or map that
// mutating handlers must not share across invocations.
type StateCloner interface {
	CloneState() any
}

// requestHandler is the single point of type erasure in the registry: every
// concern specific to OBJ/REQ/RES lives behind these three methods, and only
// invoke asserts the state object and input to their concrete types.
// Confining the dynamic typing here keeps the rest of the dispatch path free
// of OBJ/REQ/RES.
type requestHandler interface {
	deserializeRequest(data []byte) (any, error)
	cloneState(object any) any
	invoke(a *Actor, object any, ctx RequestContext[any]) (any, error)
}

// typedHandler adapts a statically-typed handler function to requestHandler.
// OBJ is the shared state type, REQ the deserialized request body, RES its
// response (discarded on the handler path, returned as-is on the hook path).
type typedHandler[OBJ any, REQ any, RES any] struct {
	fn func(object OBJ, a *Actor, ctx RequestContext[REQ]) (RES, error)
}

func (h typedHandler[OBJ, REQ, RES]) deserializeRequest(data []byte) (any, error) {
	var req REQ
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return req, nil
}

func (h typedHandler[OBJ, REQ, RES]) cloneState(object any) any {
	return cloneOrIdentity[OBJ](object)
}

func (h typedHandler[OBJ, REQ, RES]) invoke(a *Actor, object any, ctx RequestContext[any]) (any, error) {
	obj, ok := object.(OBJ)
	if !ok {
		return nil, &HandlerInvocationError{Message: fmt.Sprintf("state object is not of type %T", obj)}
	}
	req, ok := ctx.Input.(REQ)
	if !ok {
		return nil, &HandlerInvocationError{Message: fmt.Sprintf("request input is not of type %T", req)}
	}
	typedCtx := RequestContext[REQ]{Input: req, Peer: ctx.Peer, Endpoint: ctx.Endpoint}
	return h.fn(obj, a, typedCtx)
}

// cloneOrIdentity returns a clone of object via StateCloner if OBJ implements
// it, otherwise returns object unchanged — relying on Go's value-copy
// semantics for plain structs passed by value.
func cloneOrIdentity[OBJ any](object any) any {
	if cloner, ok := object.(StateCloner); ok {
		return cloner.CloneState()
	}
	return object
}

type handlerEntry struct {
	objectID uuid.UUID
	handler  requestHandler
}

// handlerRegistry pairs endpoints with handlers and the shared state objects
// they close over, using two maps since a handler's state is shared across
// many endpoints.
type handlerRegistry struct {
	mu       sync.RWMutex
	handlers map[Endpoint]handlerEntry
	objects  map[uuid.UUID]any
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{
		handlers: make(map[Endpoint]handlerEntry),
		objects:  make(map[uuid.UUID]any),
	}
}

// addState registers a new shared state object and returns its id, for use
// by HandlerBuilder when binding handlers to it.
func (r *handlerRegistry) addState(state any) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.objects[id] = state
	r.mu.Unlock()
	return id
}

// bind registers h under endpoint, sharing the state object identified by
// objectID.
func (r *handlerRegistry) bind(endpoint Endpoint, objectID uuid.UUID, h requestHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[endpoint] = handlerEntry{objectID: objectID, handler: h}
}

// hasHandler reports whether endpoint has a registered handler, used by the
// dispatcher to decide between the handler path and the thread path.
func (r *handlerRegistry) hasHandler(endpoint Endpoint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[endpoint]
	return ok
}

// lookup resolves endpoint to its handler and a clone of its state object.
func (r *handlerRegistry) lookup(endpoint Endpoint) (requestHandler, any, error) {
	r.mu.RLock()
	entry, ok := r.handlers[endpoint]
	if !ok {
		r.mu.RUnlock()
		return nil, nil, &UnknownRequestError{Endpoint: endpoint}
	}
	object, objOK := r.objects[entry.objectID]
	r.mu.RUnlock()

	if !objOK {
		return nil, nil, &HandlerInvocationError{Message: fmt.Sprintf("no state set for %s", endpoint)}
	}
	return entry.handler, entry.handler.cloneState(object), nil
}

// lookupWithCatchAll resolves endpoint, falling back to its catch-all
// derivative on a miss. On a double miss it surfaces the ORIGINAL endpoint's
// NotFound error, not the catch-all's, so a peer sees "echo/cd not found"
// rather than "echo/* not found".
func (r *handlerRegistry) lookupWithCatchAll(endpoint Endpoint) (requestHandler, any, error) {
	handler, object, err := r.lookup(endpoint)
	if err == nil {
		return handler, object, nil
	}

	handler, object, catchAllErr := r.lookup(endpoint.ToCatchAll())
	if catchAllErr == nil {
		return handler, object, nil
	}
	return nil, nil, err
}

// HandlerBuilder accumulates handlers bound to a single state object, built
// by AddState and consumed by the package-level AddHandler function (Go has
// no generic methods, so registration itself is a free function).
type HandlerBuilder struct {
	actor    *Actor
	objectID uuid.UUID
}

// AddHandler registers a handler for endpoint on b's state object. OBJ must
// match the type state was created with in AddState.
func AddHandler[OBJ any, REQ any, RES any](b HandlerBuilder, endpoint string, fn func(object OBJ, a *Actor, ctx RequestContext[REQ]) (RES, error)) (HandlerBuilder, error) {
	ep, err := NewEndpoint(endpoint)
	if err != nil {
		return b, err
	}
	b.actor.registry.bind(ep, b.objectID, typedHandler[OBJ, REQ, RES]{fn: fn})
	return b, nil
}
