package actor

import (
	"encoding/json"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
)

func newTestInvokerActor() (*Actor, *fakeCommander) {
	self := peer.ID("self")
	fc := newFakeCommander(self)
	a := &Actor{commander: fc, registry: newHandlerRegistry(), threads: newThreadRegistry()}
	return a, fc
}

func buildInboundRequest(t *testing.T, ep Endpoint, body any, respCh chan []byte) InboundRequest {
	t.Helper()
	env := NewPlaintextMessage(NewThreadID(), ep.Name(), body)
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal(env) error: %v", err)
	}
	return InboundRequest{
		Peer:            "peer",
		Endpoint:        ep,
		Input:           data,
		ResponseChannel: &fakeResponseChannel{ch: respCh},
	}
}

func TestInvoke_UnknownEndpoint_AcksError(t *testing.T) {
	a, _ := newTestInvokerActor()
	ep, _ := NewEndpoint("echo/request")
	respCh := make(chan []byte, 1)
	req := buildInboundRequest(t, ep, echoBody{Content: "hi"}, respCh)

	a.invoke(req)

	var ack Ack
	if err := json.Unmarshal(<-respCh, &ack); err != nil {
		t.Fatalf("Unmarshal(ack) error: %v", err)
	}
	if ack.AsError() == nil {
		t.Fatal("ack should report an error for an unregistered endpoint")
	}
}

func TestInvoke_CatchAll_PreservesOriginalEndpointOnDoubleMiss(t *testing.T) {
	a, _ := newTestInvokerActor()
	ep, _ := NewEndpoint("echo/request")
	respCh := make(chan []byte, 1)
	req := buildInboundRequest(t, ep, echoBody{Content: "hi"}, respCh)

	a.invoke(req)

	var ack Ack
	json.Unmarshal(<-respCh, &ack)
	err := ack.AsError()
	var unknown *UnknownRequestError
	if err == nil {
		t.Fatal("expected an error")
	}
	if uErr, ok := err.(*UnknownRequestError); ok {
		unknown = uErr
	}
	if unknown == nil || unknown.Endpoint.Name() != "echo/request" {
		t.Errorf("error endpoint = %v, want the original endpoint echo/request, not its catch-all form", unknown)
	}
}

func TestInvoke_CatchAll_Fallback(t *testing.T) {
	a, _ := newTestInvokerActor()
	catchAll, _ := NewEndpoint("echo/*")
	objectID := a.registry.addState(counterState{})
	b := HandlerBuilder{actor: a, objectID: objectID}
	invoked := make(chan struct{}, 1)
	AddHandler(b, "echo/*", func(_ counterState, _ *Actor, ctx RequestContext[incRequest]) (struct{}, error) {
		invoked <- struct{}{}
		return struct{}{}, nil
	})
	_ = catchAll

	ep, _ := NewEndpoint("echo/request")
	respCh := make(chan []byte, 1)
	req := buildInboundRequest(t, ep, incRequest{By: 1}, respCh)

	a.invoke(req)

	var ack Ack
	json.Unmarshal(<-respCh, &ack)
	if err := ack.AsError(); err != nil {
		t.Fatalf("ack should be ok via the catch-all handler, got: %v", err)
	}

	select {
	case <-invoked:
	default:
		t.Fatal("catch-all handler was not invoked")
	}
}

func TestInvoke_MalformedEnvelope_DeserializationFailureAck(t *testing.T) {
	a, _ := newTestInvokerActor()
	ep, _ := NewEndpoint("echo/request")
	respCh := make(chan []byte, 1)
	req := InboundRequest{
		Peer:            "peer",
		Endpoint:        ep,
		Input:           []byte(`not json`),
		ResponseChannel: &fakeResponseChannel{ch: respCh},
	}

	a.invoke(req)

	var ack Ack
	json.Unmarshal(<-respCh, &ack)
	var deser *DeserializationFailureError
	err := ack.AsError()
	if de, ok := err.(*DeserializationFailureError); ok {
		deser = de
	}
	if deser == nil {
		t.Fatalf("ack error = %v, want *DeserializationFailureError", err)
	}
}
