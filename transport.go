package actor

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// NetCommander is the peer-to-peer transport collaborator the dispatch core
// depends on. It owns dialing, listening, and request/response framing;
// the core only ever sees InboundRequest values and raw request/response
// byte slices. Concrete implementations live outside this package — see
// actor/wsnet for one over WebSocket.
type NetCommander interface {
	// StartListening begins accepting inbound connections on addr.
	StartListening(ctx context.Context, addr multiaddr.Multiaddr) error

	// Addresses returns the addresses currently being listened on.
	Addresses() []multiaddr.Multiaddr

	// PeerID returns this commander's own peer identity.
	PeerID() peer.ID

	// AddAddress records addr as reachable for p, so a later SendRequest to
	// p can dial it without a separate discovery step.
	AddAddress(p peer.ID, addr multiaddr.Multiaddr)

	// SendRequest delivers data to p and blocks for its raw response bytes
	// (the serialized Ack). It returns an error if the peer is unreachable
	// or the round trip times out; SendNamedMessage wraps that error in a
	// *CouldNotRespondError.
	SendRequest(ctx context.Context, p peer.ID, data []byte) ([]byte, error)

	// SendResponse delivers data back along ch, the response path for a
	// single previously-received InboundRequest.
	SendResponse(data []byte, ch ResponseChannel) error

	// Inbound returns the channel of requests arriving from remote peers.
	// The dispatcher reads from it for the lifetime of the actor.
	Inbound() <-chan InboundRequest
}
