package actor

import (
	"encoding/json"
	"log"
)

// spawnListener runs for the actor's lifetime, reading every InboundRequest
// off the commander and arbitrating between the handler path and the thread
// path: a request whose endpoint (or its catch-all derivative) has a
// registered handler always takes the handler path, even if its thread also
// has an outstanding AwaitMessage.
func (a *Actor) spawnListener(stop <-chan struct{}) {
	defer close(a.listenerDone)

	inbound := a.commander.Inbound()
	for {
		select {
		case <-stop:
			return
		case req, ok := <-inbound:
			if !ok {
				return
			}
			if a.registry.hasHandler(req.Endpoint) || a.registry.hasHandler(req.Endpoint.ToCatchAll()) {
				go a.invoke(req)
			} else {
				go a.routeToThread(req)
			}
		}
	}
}

// routeToThread handles an inbound request with no registered handler: it
// must belong to a thread some earlier SendMessage/SendNamedMessage opened,
// so it's handed to that thread's rendezvous slot. The ack is always sent
// regardless of whether a waiting thread was found, since an unmatched
// thread reply is not the sending peer's fault.
func (a *Actor) routeToThread(req InboundRequest) {
	var envelope PlaintextMessage[json.RawMessage]
	if err := json.Unmarshal(req.Input, &envelope); err != nil {
		a.respond(req.ResponseChannel, errAck(newDeserializationFailureRemoteError("dispatcher.routeToThread", err.Error())))
		return
	}

	thread := envelope.EffectiveThreadID()
	sender, ok := a.threads.takeSender(thread)
	if ok {
		sender <- ThreadRequest{Peer: req.Peer, Endpoint: req.Endpoint, Input: req.Input}
	} else {
		log.Printf("actor: no handler or thread found for endpoint %s, thread %s", req.Endpoint, thread)
	}

	a.respond(req.ResponseChannel, okAck())
}
