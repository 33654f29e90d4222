package actor

import (
	"encoding/json"
	"regexp"
	"strings"
)

// segmentPattern matches a single endpoint path segment: [A-Za-z0-9_-]+.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Endpoint is a validated, logical address of a handler: "name" or
// "name/verb", optionally flagged as a hook. Hook endpoints are never
// constructed from wire input — the wire never carries the hook flag — so
// the dispatcher can never accidentally route an inbound frame to one.
type Endpoint struct {
	name   string
	isHook bool
}

// NewEndpoint validates and constructs an Endpoint for name.
// name must be one or more "/"-separated segments of [A-Za-z0-9_-]+; the
// last segment may instead be "*", naming a catch-all handler.
func NewEndpoint(name string) (Endpoint, error) {
	if err := validateEndpointName(name); err != nil {
		return Endpoint{}, err
	}
	return Endpoint{name: name}, nil
}

// NewHookEndpoint is NewEndpoint with the hook flag set.
func NewHookEndpoint(name string) (Endpoint, error) {
	ep, err := NewEndpoint(name)
	if err != nil {
		return Endpoint{}, err
	}
	return ep.WithIsHook(true), nil
}

func validateEndpointName(name string) error {
	if name == "" {
		return ErrInvalidEndpoint
	}
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		if i == len(segments)-1 && seg == "*" {
			continue
		}
		if !segmentPattern.MatchString(seg) {
			return ErrInvalidEndpoint
		}
	}
	return nil
}

// WithIsHook returns a copy of e with the hook flag set to hook.
func (e Endpoint) WithIsHook(hook bool) Endpoint {
	e.isHook = hook
	return e
}

// IsHook reports whether e is a hook endpoint.
func (e Endpoint) IsHook() bool {
	return e.isHook
}

// ToCatchAll returns the catch-all derivative of e: its trailing segment
// replaced with "*". Used only as a dispatcher lookup fallback, never
// registered or sent directly.
func (e Endpoint) ToCatchAll() Endpoint {
	idx := strings.LastIndex(e.name, "/")
	if idx == -1 {
		return Endpoint{name: "*", isHook: e.isHook}
	}
	return Endpoint{name: e.name[:idx] + "/*", isHook: e.isHook}
}

// Name returns the endpoint's string form, without the hook flag.
func (e Endpoint) Name() string {
	return e.name
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return e.name
}

// MarshalJSON encodes the endpoint as its bare name. The hook flag is never
// part of the wire syntax — hook form is a flag, not a wire-syntax change;
// hooks are never sent over the wire.
func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.name)
}

// UnmarshalJSON decodes an endpoint from its bare name. isHook is always
// false for a wire-decoded endpoint.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	ep, err := NewEndpoint(name)
	if err != nil {
		return err
	}
	*e = ep
	return nil
}
