package actor

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ThreadID is an opaque identifier binding a logical conversation across
// multiple messages. Equality and map-key hashing are by value.
type ThreadID struct {
	inner string
}

// NewThreadID returns a fresh, globally-unique ThreadID.
func NewThreadID() ThreadID {
	return ThreadID{inner: uuid.New().String()}
}

// ThreadIDFromString wraps an existing string as a ThreadID, e.g. when a
// caller wants a human-readable or deterministic thread identifier in tests.
func ThreadIDFromString(s string) ThreadID {
	return ThreadID{inner: s}
}

// String implements fmt.Stringer.
func (t ThreadID) String() string {
	return t.inner
}

// MarshalJSON encodes the thread id as a bare string.
func (t ThreadID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.inner)
}

// UnmarshalJSON decodes a thread id from a bare string.
func (t *ThreadID) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.inner)
}
