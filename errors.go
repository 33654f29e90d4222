package actor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for actor lifecycle conditions.
var (
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
	ErrShutdown         = errors.New("the actor was shut down")
	ErrAlreadyListening = errors.New("actor is already listening")

	// ErrTerminate is returned by a hook function to signal that the
	// protocol run it intercepted should stop. It is never itself returned
	// to a caller; callHook translates it into a *TerminatedError.
	ErrTerminate = errors.New("protocol terminated by hook")
)

// CouldNotRespondError reports that a request to a peer failed before its ack
// came back: the peer was unreachable, the round trip timed out or was
// cancelled, or the transport failed outright.
type CouldNotRespondError struct {
	Endpoint Endpoint
	Cause    error
}

func (e *CouldNotRespondError) Error() string {
	return fmt.Sprintf("could not respond to a %s request: %v", e.Endpoint, e.Cause)
}

func (e *CouldNotRespondError) Unwrap() error { return e.Cause }

// UnknownRequestError reports that no handler is registered for an inbound
// endpoint, including its catch-all derivative.
type UnknownRequestError struct {
	Endpoint Endpoint
}

func (e *UnknownRequestError) Error() string {
	return fmt.Sprintf("unknown request `%s`", e.Endpoint)
}

// HandlerInvocationError reports a failure to invoke a registered handler: a
// missing state object, or a state object or input of the wrong type. Panics
// inside a handler are not recovered.
type HandlerInvocationError struct {
	Message string
}

func (e *HandlerInvocationError) Error() string {
	return fmt.Sprintf("handler invocation error: %s", e.Message)
}

// HookInvocationError reports that a registered hook returned a value of a
// type other than the one it intercepted. Panics inside a hook are not
// recovered.
type HookInvocationError struct {
	Message string
}

func (e *HookInvocationError) Error() string {
	return fmt.Sprintf("hook invocation error: %s", e.Message)
}

// SerializationFailureError reports a failure to marshal an outbound payload.
type SerializationFailureError struct {
	Location string
	Message  string
}

func (e *SerializationFailureError) Error() string {
	return fmt.Sprintf("serialization failed in %s due to: %s", e.Location, e.Message)
}

// DeserializationFailureError reports a failure to unmarshal an inbound
// payload into a handler's expected request type.
type DeserializationFailureError struct {
	Location string
	Message  string
}

func (e *DeserializationFailureError) Error() string {
	return fmt.Sprintf("deserialization failed in %s due to: %s", e.Location, e.Message)
}

// ThreadNotFoundError reports that AwaitMessage found no rendezvous slot for
// a thread id: none was created, or the slot was already awaited once.
type ThreadNotFoundError struct {
	Thread ThreadID
}

func (e *ThreadNotFoundError) Error() string {
	return fmt.Sprintf("thread with id `%s` not found", e.Thread)
}

// TerminatedError reports that a hook stopped the protocol run it was
// intercepting. Endpoint identifies which send or receive hook terminated it.
type TerminatedError struct {
	Endpoint Endpoint
}

func (e *TerminatedError) Error() string {
	return fmt.Sprintf("protocol terminated by hook on %s", e.Endpoint)
}

func (e *TerminatedError) Unwrap() error { return ErrTerminate }

// remoteErrorKind discriminates the RemoteError variants that can cross the
// wire as the content of a failed Ack.
type remoteErrorKind string

const (
	remoteUnknownRequest         remoteErrorKind = "UnknownRequest"
	remoteHandlerInvocationError remoteErrorKind = "HandlerInvocationError"
	remoteHookInvocationError    remoteErrorKind = "HookInvocationError"
	remoteSerializationFailure   remoteErrorKind = "SerializationFailure"
	remoteDeserializationFailure remoteErrorKind = "DeserializationFailure"
)

// RemoteError is the subset of actor errors that can be reported back to a
// sending peer inside an Ack. Its JSON form uses the same external-tagging
// convention as the rest of the wire protocol: a variant carrying one string
// encodes as {"UnknownRequest": "echo/request"}, a struct variant as an
// object nested under its name.
type RemoteError struct {
	kind     remoteErrorKind
	request  string // UnknownRequest
	message  string // HandlerInvocationError, HookInvocationError
	location string // (De)SerializationFailure
	detail   string // (De)SerializationFailure
}

func newUnknownRequestRemoteError(req string) RemoteError {
	return RemoteError{kind: remoteUnknownRequest, request: req}
}

func newHandlerInvocationRemoteError(msg string) RemoteError {
	return RemoteError{kind: remoteHandlerInvocationError, message: msg}
}

func newHookInvocationRemoteError(msg string) RemoteError {
	return RemoteError{kind: remoteHookInvocationError, message: msg}
}

func newSerializationFailureRemoteError(location, message string) RemoteError {
	return RemoteError{kind: remoteSerializationFailure, location: location, detail: message}
}

func newDeserializationFailureRemoteError(location, message string) RemoteError {
	return RemoteError{kind: remoteDeserializationFailure, location: location, detail: message}
}

// toRemoteError converts a local error into its wire form, for the one ack
// in the exchange that can carry error detail back to the sending peer.
// Errors with no wire representation (e.g. a raw transport failure) fall
// back to HandlerInvocationError so a caller still gets a non-empty Err.
func toRemoteError(err error) RemoteError {
	var unknown *UnknownRequestError
	if errors.As(err, &unknown) {
		return newUnknownRequestRemoteError(unknown.Endpoint.Name())
	}
	var handlerErr *HandlerInvocationError
	if errors.As(err, &handlerErr) {
		return newHandlerInvocationRemoteError(handlerErr.Message)
	}
	var hookErr *HookInvocationError
	if errors.As(err, &hookErr) {
		return newHookInvocationRemoteError(hookErr.Message)
	}
	var serErr *SerializationFailureError
	if errors.As(err, &serErr) {
		return newSerializationFailureRemoteError(serErr.Location, serErr.Message)
	}
	var deserErr *DeserializationFailureError
	if errors.As(err, &deserErr) {
		return newDeserializationFailureRemoteError(deserErr.Location, deserErr.Message)
	}
	return newHandlerInvocationRemoteError(err.Error())
}

func (e RemoteError) Error() string {
	return e.toLocal().Error()
}

// toLocal converts a wire-received RemoteError into the equivalent local
// error type, so callers can use errors.As uniformly regardless of whether
// an error originated locally or was reported by a peer.
func (e RemoteError) toLocal() error {
	switch e.kind {
	case remoteUnknownRequest:
		ep, _ := NewEndpoint(e.request)
		return &UnknownRequestError{Endpoint: ep}
	case remoteHandlerInvocationError:
		return &HandlerInvocationError{Message: e.message}
	case remoteHookInvocationError:
		return &HookInvocationError{Message: e.message}
	case remoteSerializationFailure:
		return &SerializationFailureError{Location: e.location, Message: e.detail}
	case remoteDeserializationFailure:
		return &DeserializationFailureError{Location: e.location, Message: e.detail}
	default:
		return fmt.Errorf("unknown remote error kind %q", e.kind)
	}
}

type structVariant struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (e RemoteError) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case remoteUnknownRequest:
		return json.Marshal(map[string]string{string(remoteUnknownRequest): e.request})
	case remoteHandlerInvocationError:
		return json.Marshal(map[string]string{string(remoteHandlerInvocationError): e.message})
	case remoteHookInvocationError:
		return json.Marshal(map[string]string{string(remoteHookInvocationError): e.message})
	case remoteSerializationFailure:
		return json.Marshal(map[string]structVariant{
			string(remoteSerializationFailure): {Location: e.location, Message: e.detail},
		})
	case remoteDeserializationFailure:
		return json.Marshal(map[string]structVariant{
			string(remoteDeserializationFailure): {Location: e.location, Message: e.detail},
		})
	default:
		return nil, fmt.Errorf("marshal RemoteError: unknown kind %q", e.kind)
	}
}

func (e *RemoteError) UnmarshalJSON(data []byte) error {
	var asString map[string]string
	if err := json.Unmarshal(data, &asString); err == nil {
		if req, ok := asString[string(remoteUnknownRequest)]; ok {
			*e = newUnknownRequestRemoteError(req)
			return nil
		}
		if msg, ok := asString[string(remoteHandlerInvocationError)]; ok {
			*e = newHandlerInvocationRemoteError(msg)
			return nil
		}
		if msg, ok := asString[string(remoteHookInvocationError)]; ok {
			*e = newHookInvocationRemoteError(msg)
			return nil
		}
	}

	var asStruct map[string]structVariant
	if err := json.Unmarshal(data, &asStruct); err == nil {
		if v, ok := asStruct[string(remoteSerializationFailure)]; ok {
			*e = newSerializationFailureRemoteError(v.Location, v.Message)
			return nil
		}
		if v, ok := asStruct[string(remoteDeserializationFailure)]; ok {
			*e = newDeserializationFailureRemoteError(v.Location, v.Message)
			return nil
		}
	}

	return fmt.Errorf("unmarshal RemoteError: unrecognized variant in %s", data)
}

// Ack is the protocol-level acknowledgment sent in reply to every inbound
// request, encoded with externally-tagged {"Ok":null} / {"Err":{...}} shape
// to stay wire-compatible with Rust-side implementations of the same
// protocol.
type Ack struct {
	err *RemoteError
}

func okAck() Ack { return Ack{} }

func errAck(e RemoteError) Ack { return Ack{err: &e} }

// AsError returns the local error represented by a failed Ack, or nil if the
// Ack reports success.
func (a Ack) AsError() error {
	if a.err == nil {
		return nil
	}
	return a.err.toLocal()
}

func (a Ack) MarshalJSON() ([]byte, error) {
	if a.err == nil {
		return json.Marshal(map[string]any{"Ok": nil})
	}
	return json.Marshal(map[string]any{"Err": a.err})
}

func (a *Ack) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if errData, ok := raw["Err"]; ok {
		var remote RemoteError
		if err := json.Unmarshal(errData, &remote); err != nil {
			return err
		}
		*a = errAck(remote)
		return nil
	}
	*a = okAck()
	return nil
}
