// echo-actor runs a DIDComm actor that handles "echo/request" messages: each
// one is acknowledged and logged. The handler's echoResponse is discarded by
// the actor's handler path, so no reply message is sent back.
//
// Configuration via environment variables:
//
//	ACTOR_LISTEN_ADDRESS — multiaddr to listen on, e.g. /ip4/0.0.0.0/tcp/4001
//	ACTOR_PEER_SEED       — (optional) string identifying this actor's peer.ID
//
// Usage:
//
//	ACTOR_LISTEN_ADDRESS=/ip4/0.0.0.0/tcp/4001 go run ./cmd/echo-actor
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/didcomm-actor/actor"
	"github.com/didcomm-actor/actor/wsnet"
	"github.com/libp2p/go-libp2p/core/peer"
)

type echoRequest struct {
	Message string `json:"message"`
}

func (echoRequest) RequestName() string { return "echo/request" }

type echoResponse struct {
	Echo string `json:"echo"`
}

type echoState struct{}

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	listenAddress := os.Getenv("ACTOR_LISTEN_ADDRESS")
	if listenAddress == "" {
		listenAddress = "/ip4/0.0.0.0/tcp/4001"
	}
	cfg, listenAddr, err := actor.ResolveConfig(actor.Config{ListenAddress: listenAddress})
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	self := peer.ID(cfg.PeerSeed)
	if self == "" {
		self = peer.ID("echo-actor")
	}

	commander := wsnet.New(self, cfg.DialTimeout)
	a := actor.NewActor(commander)
	defer a.StopHandlingRequests()

	builder := a.AddState(echoState{})
	if _, err := actor.AddHandler(builder, "echo/request", handleEcho); err != nil {
		log.Fatalf("AddHandler: %v", err)
	}

	if err := a.StartListening(ctx, listenAddr); err != nil {
		log.Fatalf("StartListening: %v", err)
	}
	log.Printf("echo-actor listening on %v (peer=%s)", a.Addresses(), a.PeerID())

	<-ctx.Done()
	log.Println("shutting down")
}

func handleEcho(_ echoState, _ *actor.Actor, ctx actor.RequestContext[echoRequest]) (echoResponse, error) {
	log.Printf("echo request from %s: %q", ctx.Peer, ctx.Input.Message)
	return echoResponse{Echo: ctx.Input.Message}, nil
}
