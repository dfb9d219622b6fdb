package session

import "time"

// DefaultTickInterval is the cadence at which [Controller.Run] evaluates the
// segmentation and timer engines. 200ms keeps worst-case detection latency
// well under the smallest meaningful silence threshold.
const DefaultTickInterval = 200 * time.Millisecond

// Clock abstracts wall-clock time so the tick-driven engines can be tested
// deterministically. Production code uses [SystemClock]; tests substitute a
// fake that advances on demand.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
