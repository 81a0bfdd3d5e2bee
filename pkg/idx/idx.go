// Package idx generates sortable identifiers for request tracing and
// handshake attempts. User identifiers are not ULIDs; see the service package.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26-character ULID string.
type ID string

// ErrInvalid reports a malformed or wrongly prefixed id.
var ErrInvalid = errors.New("idx: invalid id")

// Monotonic entropy keeps ids minted within one millisecond ordered. It is
// not safe for concurrent use on its own.
var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an ID stamped with the current time.
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns an ID stamped with t, so ids follow an injected clock.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Prefixed returns "<prefix>_<ulid>" stamped with t, e.g.
// "hs_01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV".
func Prefixed(prefix string, t time.Time) string {
	return prefix + "_" + NewAt(t).String()
}

// ParsePrefixed validates s as an id written by Prefixed with prefix.
func ParsePrefixed(s, prefix string) (ID, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), prefix+"_")
	if !ok {
		return "", ErrInvalid
	}
	if _, err := ulid.ParseStrict(rest); err != nil {
		return "", ErrInvalid
	}
	return ID(rest), nil
}

func (id ID) String() string { return string(id) }

// Time is the millisecond timestamp embedded in id, or the zero time for a
// malformed id.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
