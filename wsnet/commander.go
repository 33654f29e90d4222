package wsnet

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/didcomm-actor/actor"
	"github.com/gorilla/websocket"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// Commander is a NetCommander implementation over plain WebSocket framing,
// keyed by libp2p peer identities. It is the one concrete transport this
// repository ships behind the NetCommander interface — none of its wire
// quirks are visible to the dispatch core, which only ever sees
// actor.NetCommander.
type Commander struct {
	self peer.ID

	mu        sync.Mutex
	conns     map[peer.ID]*peerConn
	addresses map[peer.ID]multiaddr.Multiaddr
	listening []multiaddr.Multiaddr

	inbound chan actor.InboundRequest

	upgrader websocket.Upgrader
	server   *http.Server

	dialTimeout time.Duration
	dialBackoff func() *backoff
}

// New constructs a Commander identified as self. dialTimeout bounds how long
// outbound dials (including retries) are attempted before giving up.
func New(self peer.ID, dialTimeout time.Duration) *Commander {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &Commander{
		self:        self,
		conns:       make(map[peer.ID]*peerConn),
		addresses:   make(map[peer.ID]multiaddr.Multiaddr),
		inbound:     make(chan actor.InboundRequest, 64),
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		dialTimeout: dialTimeout,
		dialBackoff: func() *backoff { return newBackoff(200*time.Millisecond, 5*time.Second) },
	}
}

func (c *Commander) Inbound() <-chan actor.InboundRequest { return c.inbound }

func (c *Commander) PeerID() peer.ID { return c.self }

func (c *Commander) Addresses() []multiaddr.Multiaddr {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]multiaddr.Multiaddr, len(c.listening))
	copy(out, c.listening)
	return out
}

func (c *Commander) AddAddress(p peer.ID, addr multiaddr.Multiaddr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addresses[p] = addr
}

// StartListening starts an HTTP server accepting WebSocket upgrades on addr.
// Remote peers identify themselves via the "peer" query parameter on the
// upgrade request.
func (c *Commander) StartListening(ctx context.Context, addr multiaddr.Multiaddr) error {
	host, port, err := hostPort(addr)
	if err != nil {
		return fmt.Errorf("wsnet: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/actor", c.handleUpgrade)

	listener, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("wsnet: listen on %s: %w", addr, err)
	}

	boundPort := listener.Addr().(*net.TCPAddr).Port
	bound, err := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", host, boundPort))
	if err != nil {
		listener.Close()
		return fmt.Errorf("wsnet: %w", err)
	}

	c.server = &http.Server{Handler: mux}
	go c.server.Serve(listener)

	c.mu.Lock()
	c.listening = append(c.listening, bound)
	c.mu.Unlock()

	return nil
}

func (c *Commander) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	remote := peer.ID(r.URL.Query().Get("peer"))
	if remote == "" {
		http.Error(w, "missing peer query parameter", http.StatusBadRequest)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	pc := newPeerConn(remote, conn, c.inbound)
	c.mu.Lock()
	c.conns[remote] = pc
	c.mu.Unlock()
}

// SendRequest delivers data to p, dialing a fresh connection under
// exponential backoff if none is open yet.
func (c *Commander) SendRequest(ctx context.Context, p peer.ID, data []byte) ([]byte, error) {
	pc, err := c.connFor(ctx, p)
	if err != nil {
		return nil, err
	}

	replyCh, err := pc.sendRequest(data)
	if err != nil {
		return nil, err
	}

	select {
	case resp, ok := <-replyCh:
		if !ok {
			return nil, fmt.Errorf("wsnet: connection to %s closed before a response arrived", p)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Commander) SendResponse(data []byte, ch actor.ResponseChannel) error {
	return ch.Respond(data)
}

func (c *Commander) connFor(ctx context.Context, p peer.ID) (*peerConn, error) {
	c.mu.Lock()
	if pc, ok := c.conns[p]; ok {
		c.mu.Unlock()
		return pc, nil
	}
	addr, ok := c.addresses[p]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wsnet: no known address for peer %s", p)
	}

	return c.dial(ctx, p, addr)
}

func (c *Commander) dial(ctx context.Context, p peer.ID, addr multiaddr.Multiaddr) (*peerConn, error) {
	host, port, err := hostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("wsnet: %w", err)
	}

	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, port), Path: "/actor"}
	q := u.Query()
	q.Set("peer", c.self.String())
	u.RawQuery = q.Encode()

	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	bo := c.dialBackoff()
	var lastErr error
	for {
		select {
		case <-dialCtx.Done():
			return nil, fmt.Errorf("wsnet: dial %s: %w (last error: %v)", p, dialCtx.Err(), lastErr)
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
		if err == nil {
			pc := newPeerConn(p, conn, c.inbound)
			c.mu.Lock()
			c.conns[p] = pc
			c.mu.Unlock()
			return pc, nil
		}
		lastErr = err

		select {
		case <-time.After(bo.next()):
		case <-dialCtx.Done():
			return nil, fmt.Errorf("wsnet: dial %s: %w (last error: %v)", p, dialCtx.Err(), lastErr)
		}
	}
}

// hostPort extracts a "host", "port" pair from a /ip4|ip6|dns4|dns6/.../tcp/...
// multiaddr, the subset of multiaddr this transport understands.
func hostPort(addr multiaddr.Multiaddr) (string, string, error) {
	var host, port string
	multiaddr.ForEach(addr, func(c multiaddr.Component) bool {
		switch c.Protocol().Code {
		case multiaddr.P_IP4, multiaddr.P_IP6, multiaddr.P_DNS4, multiaddr.P_DNS6, multiaddr.P_DNS:
			host = c.Value()
		case multiaddr.P_TCP:
			port = c.Value()
		}
		return true
	})
	if host == "" || port == "" {
		return "", "", fmt.Errorf("unsupported multiaddr %s: need an ip/dns component and a tcp component", addr)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", "", fmt.Errorf("invalid tcp port in %s: %w", addr, err)
	}
	return host, port, nil
}
