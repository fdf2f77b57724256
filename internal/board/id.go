package board

import (
	"strings"

	"github.com/google/uuid"
)

// ProvisionalPrefix marks ids generated locally for tasks the remote has not
// confirmed yet. Server ids never carry it.
const ProvisionalPrefix = "tmp-"

// IsProvisional reports whether the id was generated locally.
func (id ID) IsProvisional() bool {
	return strings.HasPrefix(string(id), ProvisionalPrefix)
}

// IDSource hands out provisional ids.
type IDSource interface {
	NewID() ID
}

// IDFunc adapts a plain function to IDSource.
type IDFunc func() ID

// NewID implements IDSource.
func (f IDFunc) NewID() ID { return f() }

// ProvisionalIDs generates time-ordered ids from UUIDv7, which stay
// monotonic within the process even when two tasks land in the same millisecond.
type ProvisionalIDs struct{}

// NewID implements IDSource.
func (ProvisionalIDs) NewID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		u = uuid.New()
	}
	return ID(ProvisionalPrefix + u.String())
}
