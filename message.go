package actor

import (
	"encoding/json"

	"github.com/libp2p/go-libp2p/core/peer"
)

// PlaintextMessage is a DIDComm-shaped envelope carrying a typed body.
// Its effective thread id is ThreadID if set, else ID (EffectiveThreadID).
type PlaintextMessage[T any] struct {
	Typ          string    `json:"typ,omitempty"`
	ID           ThreadID  `json:"id"`
	ThreadID     *ThreadID `json:"thid,omitempty"`
	ParentThread *ThreadID `json:"pthid,omitempty"`
	Type         string    `json:"type"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	CreatedTime  int64     `json:"created_time,omitempty"`
	ExpiresTime  int64     `json:"expires_time,omitempty"`
	Body         T         `json:"body"`
}

// NewPlaintextMessage builds a message whose id is the given thread id and
// whose thid is unset — i.e. it starts a new thread rather than replying on
// an existing one. Callers replying on an existing thread should set
// ThreadID explicitly.
func NewPlaintextMessage[T any](id ThreadID, typ string, body T) PlaintextMessage[T] {
	return PlaintextMessage[T]{ID: id, Type: typ, Body: body}
}

// EffectiveThreadID returns Thid if set, else ID — the thread a message
// belongs to regardless of whether it's the thread's first message.
func (m PlaintextMessage[T]) EffectiveThreadID() ThreadID {
	if m.ThreadID != nil {
		return *m.ThreadID
	}
	return m.ID
}

// RequestEnvelope is the outer wire frame. Data always holds a serialized
// PlaintextMessage[_].
type RequestEnvelope struct {
	Endpoint Endpoint        `json:"endpoint"`
	Data     json.RawMessage `json:"data"`
}

// ResponseChannel is the write-once reply path for a single InboundRequest,
// carrying the protocol-level ACK back to the sending peer. Implementations
// are supplied by a NetCommander and must tolerate exactly one Respond call.
type ResponseChannel interface {
	Respond(data []byte) error
}

// InboundRequest is what a NetCommander delivers to the Actor for each
// inbound frame.
type InboundRequest struct {
	Peer            peer.ID
	Endpoint        Endpoint
	Input           []byte
	ResponseChannel ResponseChannel
}

// ThreadRequest is what the dispatcher hands to a thread-rendezvous waiter.
type ThreadRequest struct {
	Peer     peer.ID
	Endpoint Endpoint
	Input    []byte
}

// RequestContext is the handler-input shape: the deserialized body plus the
// peer and endpoint the request arrived on (or, for a hook, the peer and
// endpoint it's intercepting).
type RequestContext[T any] struct {
	Input    T
	Peer     peer.ID
	Endpoint Endpoint
}

// NewRequestContext constructs a RequestContext.
func NewRequestContext[T any](input T, p peer.ID, ep Endpoint) RequestContext[T] {
	return RequestContext[T]{Input: input, Peer: p, Endpoint: ep}
}

// ActorRequest is implemented by outbound message bodies that know their own
// wire type name, so SendMessage can derive the endpoint/message type
// without the caller repeating it.
type ActorRequest interface {
	RequestName() string
}
