package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when content passed to an entry is nil
	// or does not fit the entry's variant.
	ErrInvalidArgument = errors.New("journal: invalid argument")

	// ErrInvalidOperation is returned when an operation's preconditions do
	// not hold, such as going back with an empty back stack.
	ErrInvalidOperation = errors.New("journal: invalid operation")

	// ErrNoBackEntry is returned by GoBack when there is nothing to go back to.
	ErrNoBackEntry = fmt.Errorf("%w: no entry in back stack", ErrInvalidOperation)

	// ErrNoForwardEntry is returned by GoForward when there is nothing to go
	// forward to.
	ErrNoForwardEntry = fmt.Errorf("%w: no entry in forward stack", ErrInvalidOperation)

	// ErrContentIDImmutable is returned when a non-zero content id would be
	// overwritten with a different value.
	ErrContentIDImmutable = errors.New("journal: content id already set")

	// ErrNotSerializable is returned when a journal holding live content is
	// encoded without pruning it first.
	ErrNotSerializable = errors.New("journal: entry holds live content")

	// ErrCorruptRecord is returned when a travel-log record cannot be decoded.
	ErrCorruptRecord = errors.New("journal: corrupt travel log record")
)
