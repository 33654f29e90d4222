package wsnet

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/didcomm-actor/actor"
	"github.com/gorilla/websocket"
	"github.com/libp2p/go-libp2p/core/peer"
)

// frameKind discriminates the two directions a frame can travel. A single
// websocket connection carries both outbound requests this process makes to
// the remote peer and inbound requests the remote peer makes to us,
// multiplexed by ref.
type frameKind string

const (
	frameRequest  frameKind = "request"
	frameResponse frameKind = "response"
)

// frame is the wsnet wire envelope around an actor.RequestEnvelope /
// raw ack payload.
type frame struct {
	Ref      uint64          `json:"ref"`
	Kind     frameKind       `json:"kind"`
	Endpoint string          `json:"endpoint,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// peerConn is a single websocket connection to one remote peer, in either
// dial or accept direction: a ref counter and mutex-guarded writes plus a
// background readLoop demultiplexing frames by ref.
type peerConn struct {
	remote peer.ID
	conn   *websocket.Conn

	mu         sync.Mutex
	refCounter uint64
	pending    map[uint64]chan []byte

	inbound chan<- actor.InboundRequest
	done    chan struct{}
}

func newPeerConn(remote peer.ID, conn *websocket.Conn, inbound chan<- actor.InboundRequest) *peerConn {
	pc := &peerConn{
		remote:  remote,
		conn:    conn,
		pending: make(map[uint64]chan []byte),
		inbound: inbound,
		done:    make(chan struct{}),
	}
	go pc.readLoop()
	return pc
}

func (pc *peerConn) nextRef() uint64 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.refCounter++
	return pc.refCounter
}

func (pc *peerConn) writeFrame(f frame) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return pc.conn.WriteMessage(websocket.TextMessage, data)
}

// sendRequest writes envelopeData as a request frame and returns a channel
// that receives the data of its correlated response frame; it does not wait
// for that response itself.
func (pc *peerConn) sendRequest(envelopeData []byte) (<-chan []byte, error) {
	ref := pc.nextRef()
	replyCh := make(chan []byte, 1)

	pc.mu.Lock()
	pc.pending[ref] = replyCh
	pc.mu.Unlock()

	var env actor.RequestEnvelope
	if err := json.Unmarshal(envelopeData, &env); err != nil {
		return nil, fmt.Errorf("wsnet: decode outbound envelope: %w", err)
	}

	if err := pc.writeFrame(frame{Ref: ref, Kind: frameRequest, Endpoint: env.Endpoint.Name(), Data: env.Data}); err != nil {
		pc.mu.Lock()
		delete(pc.pending, ref)
		pc.mu.Unlock()
		return nil, err
	}
	return replyCh, nil
}

// responseChannel implements actor.ResponseChannel for a single inbound
// request on this connection, replying by ref.
type responseChannel struct {
	pc  *peerConn
	ref uint64
}

func (r *responseChannel) Respond(data []byte) error {
	return r.pc.writeFrame(frame{Ref: r.ref, Kind: frameResponse, Data: data})
}

func (pc *peerConn) readLoop() {
	defer close(pc.done)
	for {
		_, data, err := pc.conn.ReadMessage()
		if err != nil {
			pc.failPending()
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}

		switch f.Kind {
		case frameResponse:
			pc.mu.Lock()
			ch, ok := pc.pending[f.Ref]
			if ok {
				delete(pc.pending, f.Ref)
			}
			pc.mu.Unlock()
			if ok {
				ch <- f.Data
			}
		case frameRequest:
			ep, err := actor.NewEndpoint(f.Endpoint)
			if err != nil {
				continue
			}
			pc.inbound <- actor.InboundRequest{
				Peer:            pc.remote,
				Endpoint:        ep,
				Input:           f.Data,
				ResponseChannel: &responseChannel{pc: pc, ref: f.Ref},
			}
		}
	}
}

func (pc *peerConn) failPending() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for ref, ch := range pc.pending {
		close(ch)
		delete(pc.pending, ref)
	}
}

func (pc *peerConn) close() error {
	return pc.conn.Close()
}
