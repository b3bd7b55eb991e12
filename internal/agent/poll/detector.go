package poll

import (
	"github.com/quickserve/dispatch/internal/domain/model"
)

// NewOrders is emitted when the active backlog grew between two consecutive
// snapshots. Sample is the first active order not present in the previous
// snapshot, when one can be derived by id.
type NewOrders struct {
	Delta  int
	Sample *model.DeliveryOrder
}

// Diff compares two consecutive snapshots by active count. It is a pure
// function: one event iff the count rose, nothing otherwise. Count-based
// detection under-reports when a completion and an arrival land in the same
// tick; that trade-off is intentional (see DESIGN.md).
func Diff(prev, cur model.OrderSnapshot) (NewOrders, bool) {
	if cur.ActiveCount <= prev.ActiveCount {
		return NewOrders{}, false
	}
	return NewOrders{
		Delta:  cur.ActiveCount - prev.ActiveCount,
		Sample: sampleNew(prev, cur),
	}, true
}

func sampleNew(prev, cur model.OrderSnapshot) *model.DeliveryOrder {
	seen := make(map[string]struct{}, len(prev.Orders))
	for _, o := range prev.Orders {
		seen[o.ID] = struct{}{}
	}
	for i := range cur.Orders {
		o := cur.Orders[i]
		if !o.IsActive() {
			continue
		}
		if _, ok := seen[o.ID]; !ok {
			copied := o
			return &copied
		}
	}
	return nil
}

// Detector feeds consecutive snapshots through Diff. The first snapshot after
// construction or Reset only establishes the baseline and never emits, so a
// login with a full backlog does not trigger an alarm storm.
type Detector struct {
	prev     model.OrderSnapshot
	baseline bool
}

// NewDetector creates a detector with no baseline.
func NewDetector() *Detector {
	return &Detector{}
}

// Observe records a snapshot and reports whether new orders arrived since the
// previous one.
func (d *Detector) Observe(snapshot model.OrderSnapshot) (NewOrders, bool) {
	if !d.baseline {
		d.prev = snapshot
		d.baseline = true
		return NewOrders{}, false
	}
	event, ok := Diff(d.prev, snapshot)
	d.prev = snapshot
	return event, ok
}

// Reset drops the baseline. The next Observe establishes a fresh one without
// emitting, as after a reconnection.
func (d *Detector) Reset() {
	d.prev = model.OrderSnapshot{}
	d.baseline = false
}
