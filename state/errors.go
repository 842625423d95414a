package state

import "github.com/pkg/errors"

var (
	// ErrInvalidBitIndex is returned when a site index is outside of the chain, or when a flip names the same site twice.
	ErrInvalidBitIndex = errors.New("invalid bit index")
	// ErrOverFlow is returned when an integer does not fit in the chain, or an index exceeds a declared length.
	ErrOverFlow = errors.New("state representation overflows")
	// ErrInvalidConfiguration is returned when a basis build produces no states.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidArgument is returned when a basis cannot be extended from its predecessor.
	ErrInvalidArgument = errors.New("invalid argument")
)

// MaxLength is the longest chain whose states fit in a uint64 with room for 1<<length.
const MaxLength = 63
