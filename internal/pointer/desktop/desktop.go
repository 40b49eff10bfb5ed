// Package desktop binds the pointer interfaces to the local OS through robotgo.
// It needs cgo and, on Linux, an X11 session.
package desktop

import (
	"github.com/go-vgo/robotgo"
)

// Pointer reads and drives the OS pointer. Relative moves are issued as-is;
// the OS clips them at the screen edge.
type Pointer struct{}

func New() *Pointer {
	return &Pointer{}
}

func (p *Pointer) Location() (x, y int) {
	return robotgo.Location()
}

func (p *Pointer) MoveRelative(dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}
