package actor

import "testing"

func TestWithParentThread(t *testing.T) {
	thread := NewThreadID()
	o := sendDefaults()
	WithParentThread(thread)(&o)

	if o.parentThread == nil || *o.parentThread != thread {
		t.Errorf("parentThread = %v, want %v", o.parentThread, thread)
	}
}

func TestSendDefaults(t *testing.T) {
	o := sendDefaults()
	if o.parentThread != nil {
		t.Error("default parentThread should be nil")
	}
}
