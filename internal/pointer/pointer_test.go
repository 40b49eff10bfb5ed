package pointer

import (
	"sync"
	"testing"
)

func TestSerialMover(t *testing.T) {
	var sumX, sumY int
	inside := 0
	mover := NewSerialMover(MoverFunc(func(dx, dy int) error {
		// the mutex makes this unsynchronised access safe
		inside++
		if inside != 1 {
			t.Errorf("concurrent MoveRelative calls: %d", inside)
		}
		sumX += dx
		sumY += dy
		inside--
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mover.MoveRelative(1, -2)
		}()
	}
	wg.Wait()

	if sumX != 50 || sumY != -100 {
		t.Fatalf("sum = (%d, %d), want (50, -100)", sumX, sumY)
	}
}

func TestLocatorFunc(t *testing.T) {
	loc := LocatorFunc(func() (int, int) { return 3, 4 })
	if x, y := loc.Location(); x != 3 || y != 4 {
		t.Fatalf("Location() = (%d, %d), want (3, 4)", x, y)
	}
}
