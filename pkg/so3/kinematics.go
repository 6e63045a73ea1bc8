package so3

import (
	"time"

	"github.com/golang/geo/r3"
)

// minDt is the smallest inter-sample interval, in seconds, for which a
// finite-difference derivative is computed. Anything smaller is treated as
// a duplicate or out-of-order stamp.
const minDt = 1e-6

// AngularTracker estimates angular acceleration from timestamped angular
// velocity samples by finite differencing. The zero value is ready to use.
type AngularTracker struct {
	set       bool
	last      r3.Vector
	lastStamp time.Time
	accel     r3.Vector
}

// Update ingests one angular velocity sample and returns the current
// acceleration estimate. The first sample only seeds the tracker, so the
// estimate stays zero until two samples are available. Samples closer
// together than minDt leave both the estimate and the stored last sample
// untouched, guarding the division against a degenerate dt.
func (t *AngularTracker) Update(w r3.Vector, stamp time.Time) r3.Vector {
	if !t.set {
		t.set = true
		t.last = w
		t.lastStamp = stamp
		t.accel = r3.Vector{}
		return t.accel
	}

	dt := stamp.Sub(t.lastStamp).Seconds()
	if dt > minDt {
		t.accel = w.Sub(t.last).Mul(1 / dt)
		t.last = w
		t.lastStamp = stamp
	}

	return t.accel
}

// Accel returns the latest angular acceleration estimate.
func (t *AngularTracker) Accel() r3.Vector {
	return t.accel
}
