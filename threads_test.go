package actor

import "testing"

func TestThreadRegistry_CreateAndRendezvous(t *testing.T) {
	tr := newThreadRegistry()
	thread := NewThreadID()
	tr.create(thread)

	sender, ok := tr.takeSender(thread)
	if !ok {
		t.Fatal("takeSender() should find the registered slot")
	}

	ep, _ := NewEndpoint("echo/response")
	sender <- ThreadRequest{Endpoint: ep, Input: []byte(`{"content":"hi"}`)}

	receiver, ok := tr.takeReceiver(thread)
	if !ok {
		t.Fatal("takeReceiver() should find the registered slot")
	}

	req := <-receiver
	if req.Endpoint != ep {
		t.Errorf("Endpoint = %v, want %v", req.Endpoint, ep)
	}
}

func TestThreadRegistry_ExactlyOnceConsumption(t *testing.T) {
	tr := newThreadRegistry()
	thread := NewThreadID()
	tr.create(thread)

	if _, ok := tr.takeSender(thread); !ok {
		t.Fatal("first takeSender() should succeed")
	}
	if _, ok := tr.takeSender(thread); ok {
		t.Error("second takeSender() on the same thread should fail: slot already consumed")
	}
}

func TestThreadRegistry_LastWriterWins(t *testing.T) {
	tr := newThreadRegistry()
	thread := NewThreadID()
	tr.create(thread)
	tr.create(thread)

	if _, ok := tr.takeSender(thread); !ok {
		t.Fatal("takeSender() should find the second registration's slot")
	}
}

func TestThreadRegistry_MissingThread(t *testing.T) {
	tr := newThreadRegistry()
	if _, ok := tr.takeReceiver(NewThreadID()); ok {
		t.Error("takeReceiver() on an unregistered thread should fail")
	}
}

func TestThreadRegistry_Shutdown_ClosesSenders(t *testing.T) {
	tr := newThreadRegistry()
	thread := NewThreadID()
	tr.create(thread)

	receiver, _ := tr.takeReceiver(thread)
	tr.shutdown()

	if _, ok := <-receiver; ok {
		t.Error("receiver should observe a closed channel after shutdown")
	}
}
