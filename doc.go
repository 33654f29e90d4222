// Package actor implements the dispatch core of a peer-to-peer DIDComm
// actor runtime: a type-erased handler registry keyed by Endpoint, a
// per-thread rendezvous table pairing outbound sends with their inbound
// replies, a listener arbitrating between the two, and a hook pipeline
// intercepting every send and receive.
//
// Transport is a narrow collaborator, NetCommander, supplied at
// construction; this package ships one concrete implementation over
// WebSocket in the wsnet subpackage.
//
// Basic usage:
//
//	commander := wsnet.New(self, 10*time.Second)
//	a := actor.NewActor(commander)
//
//	state := a.AddState(echoState{})
//	state, _ = actor.AddHandler(state, "echo/request",
//	    func(s echoState, a *actor.Actor, ctx actor.RequestContext[EchoRequest]) (EchoResponse, error) {
//	        return EchoResponse{Echo: ctx.Input.Message}, nil
//	    },
//	)
//
//	thread := actor.NewThreadID()
//	if err := actor.SendMessage(ctx, a, peerID, thread, EchoRequest{Message: "hi"}); err != nil {
//	    log.Fatal(err)
//	}
package actor
