package trace

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfBounds = errors.New("arena index out of bounds")
	ErrInvalidChild     = errors.New("invalid child node")
	ErrInvalidArena     = errors.New("invalid arena")
)

// IndexError reports a lookup of a node index outside the arena.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: index %d, len %d", ErrIndexOutOfBounds, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfBounds
}
