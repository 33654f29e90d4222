package actor

import (
	"encoding/json"
	"log"
)

// invoke runs the handler path for req: resolve a handler (falling back to
// its catch-all derivative), acknowledge receipt, then deserialize and call
// it. The ack is sent as soon as a handler is known to exist — deserializing
// the body and invoking the handler happen afterwards, so any error past
// that point can only be logged, never returned to the sender.
func (a *Actor) invoke(req InboundRequest) {
	var envelope PlaintextMessage[json.RawMessage]
	if err := json.Unmarshal(req.Input, &envelope); err != nil {
		a.respond(req.ResponseChannel, errAck(newDeserializationFailureRemoteError("invoker.invoke", err.Error())))
		return
	}

	handler, object, err := a.registry.lookupWithCatchAll(req.Endpoint)
	if err != nil {
		a.respond(req.ResponseChannel, errAck(toRemoteError(err)))
		return
	}

	a.respond(req.ResponseChannel, okAck())

	input, err := handler.deserializeRequest(envelope.Body)
	if err != nil {
		log.Printf("actor: could not deserialize %s request: %v", req.Endpoint, err)
		return
	}

	ctx := RequestContext[any]{Input: input, Peer: req.Peer, Endpoint: req.Endpoint}
	if _, err := handler.invoke(a, object, ctx); err != nil {
		log.Printf("actor: handler for %s returned an error: %v", req.Endpoint, err)
	}
}

// respond sends ack along ch and logs a failure to do so — a failed ack
// here has no caller left to propagate to.
func (a *Actor) respond(ch ResponseChannel, ack Ack) {
	data, err := json.Marshal(ack)
	if err != nil {
		log.Printf("actor: could not marshal ack: %v", err)
		return
	}
	if err := a.commander.SendResponse(data, ch); err != nil {
		log.Printf("actor: could not send ack: %v", err)
	}
}
