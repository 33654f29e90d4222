package actor

// SendOption configures a single SendMessage/SendNamedMessage call.
type SendOption func(*sendOptions)

type sendOptions struct {
	parentThread *ThreadID
}

func sendDefaults() sendOptions {
	return sendOptions{}
}

// WithParentThread sets the parent thread id (pthid) on the outbound
// message, for nested thread correlation within a larger protocol.
func WithParentThread(pthid ThreadID) SendOption {
	return func(o *sendOptions) {
		o.parentThread = &pthid
	}
}
