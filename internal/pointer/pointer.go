package pointer

import "sync"

// Locator reads the absolute position of the local pointer. Implementations
// must not block.
type Locator interface {
	Location() (x, y int)
}

// Mover applies a relative motion to the local pointer.
type Mover interface {
	MoveRelative(dx, dy int) error
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func() (x, y int)

func (f LocatorFunc) Location() (x, y int) {
	return f()
}

// MoverFunc adapts a function to the Mover interface.
type MoverFunc func(dx, dy int) error

func (f MoverFunc) MoveRelative(dx, dy int) error {
	return f(dx, dy)
}

// SerialMover guards a Mover so that several playback goroutines can share a
// single OS pointer without interleaving inside one call.
type SerialMover struct {
	mu    sync.Mutex
	mover Mover
}

func NewSerialMover(mover Mover) *SerialMover {
	return &SerialMover{mover: mover}
}

func (m *SerialMover) MoveRelative(dx, dy int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mover.MoveRelative(dx, dy)
}
