package actor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// fakeResponseChannel delivers a single ack back to whichever SendRequest
// call is waiting on it.
type fakeResponseChannel struct {
	ch chan []byte
}

func (f *fakeResponseChannel) Respond(data []byte) error {
	f.ch <- data
	return nil
}

// fakeCommander is an in-process NetCommander that loops SendRequest calls
// straight back into its own Inbound channel, enough to exercise the full
// dispatch path (listener, invoker, thread registry, hooks) without a real
// socket.
type fakeCommander struct {
	self    peer.ID
	inbound chan InboundRequest
}

func newFakeCommander(self peer.ID) *fakeCommander {
	return &fakeCommander{self: self, inbound: make(chan InboundRequest, 8)}
}

func (f *fakeCommander) StartListening(ctx context.Context, addr multiaddr.Multiaddr) error { return nil }
func (f *fakeCommander) Addresses() []multiaddr.Multiaddr                                   { return nil }
func (f *fakeCommander) PeerID() peer.ID                                                     { return f.self }
func (f *fakeCommander) AddAddress(p peer.ID, addr multiaddr.Multiaddr)                      {}

func (f *fakeCommander) SendRequest(ctx context.Context, p peer.ID, data []byte) ([]byte, error) {
	var env RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	respCh := make(chan []byte, 1)
	select {
	case f.inbound <- InboundRequest{
		Peer:            p,
		Endpoint:        env.Endpoint,
		Input:           env.Data,
		ResponseChannel: &fakeResponseChannel{ch: respCh},
	}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeCommander) SendResponse(data []byte, ch ResponseChannel) error {
	return ch.Respond(data)
}

func (f *fakeCommander) Inbound() <-chan InboundRequest { return f.inbound }

type echoReply struct {
	Content string `json:"content"`
}

func TestActor_HandlerPath_AckAndInvoke(t *testing.T) {
	self := peer.ID("self")
	fc := newFakeCommander(self)
	a := NewActor(fc)
	t.Cleanup(func() { a.StopHandlingRequests() })

	invoked := make(chan echoBody, 1)
	b := a.AddState(struct{}{})
	_, err := AddHandler(b, "echo/request", func(_ struct{}, a *Actor, ctx RequestContext[echoBody]) (struct{}, error) {
		invoked <- ctx.Input
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("AddHandler() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	thread := NewThreadID()
	if err := SendNamedMessage(ctx, a, self, "echo/request", thread, echoBody{Content: "hi"}); err != nil {
		t.Fatalf("SendNamedMessage() error: %v", err)
	}

	select {
	case got := <-invoked:
		if got.Content != "hi" {
			t.Errorf("Content = %q, want %q", got.Content, "hi")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestActor_HandlerPath_UnknownEndpoint(t *testing.T) {
	self := peer.ID("self")
	fc := newFakeCommander(self)
	a := NewActor(fc)
	t.Cleanup(func() { a.StopHandlingRequests() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	thread := NewThreadID()
	err := SendNamedMessage(ctx, a, self, "nope/request", thread, echoBody{Content: "hi"})

	// An endpoint with no handler takes the thread path, which always acks ok.
	if err != nil {
		t.Fatalf("error = %v, want nil (ok ack from the thread path)", err)
	}
}

func TestActor_ThreadPath_AwaitMessage(t *testing.T) {
	self := peer.ID("self")
	fc := newFakeCommander(self)
	a := NewActor(fc)
	t.Cleanup(func() { a.StopHandlingRequests() })

	thread := NewThreadID()
	a.threads.create(thread)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type result struct {
		body echoReply
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		body, err := AwaitMessage[echoReply](ctx, a, thread)
		resultCh <- result{body: body, err: err}
	}()

	envelope := NewPlaintextMessage(thread, "reply/unregistered", echoReply{Content: "pong"})
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("Marshal(envelope) error: %v", err)
	}
	ep, _ := NewEndpoint("reply/unregistered")
	data, err := json.Marshal(RequestEnvelope{Endpoint: ep, Data: payload})
	if err != nil {
		t.Fatalf("Marshal(RequestEnvelope) error: %v", err)
	}

	if _, err := fc.SendRequest(ctx, self, data); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}

	select {
	case r := <-resultCh:
		if r.err != nil {
			t.Fatalf("AwaitMessage() error: %v", r.err)
		}
		if r.body.Content != "pong" {
			t.Errorf("Content = %q, want %q", r.body.Content, "pong")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitMessage did not return")
	}
}

func TestActor_AwaitMessage_ThreadNotFound(t *testing.T) {
	self := peer.ID("self")
	fc := newFakeCommander(self)
	a := NewActor(fc)
	t.Cleanup(func() { a.StopHandlingRequests() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := AwaitMessage[echoReply](ctx, a, NewThreadID())
	var want *ThreadNotFoundError
	if !errors.As(err, &want) {
		t.Fatalf("error = %v, want *ThreadNotFoundError", err)
	}
}

func TestActor_StopHandlingRequests_UnblocksAwaitMessage(t *testing.T) {
	self := peer.ID("self")
	fc := newFakeCommander(self)
	a := NewActor(fc)

	thread := NewThreadID()
	a.threads.create(thread)

	errCh := make(chan error, 1)
	go func() {
		_, err := AwaitMessage[echoReply](context.Background(), a, thread)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	if err := a.StopHandlingRequests(); err != nil {
		t.Fatalf("StopHandlingRequests() error: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrShutdown) {
			t.Errorf("AwaitMessage() error = %v, want ErrShutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitMessage did not unblock after StopHandlingRequests")
	}
}
