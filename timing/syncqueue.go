package timing

import "sort"

// A syncPoint is one pending (time, tag) registration owned by a device.
// seq is the registration order; it breaks ties between equal times so that
// dispatch order is reproducible run to run.
type syncPoint struct {
	time  VirtualTime
	owner Schedulable
	tag   int
	seq   uint64
}

// syncQueue keeps the pending sync points of one scheduler sorted by
// (time, seq). The set is small for a real machine (a handful of devices),
// so an ordered slice beats a heap and keeps removal by owner trivial.
type syncQueue struct {
	points []syncPoint
}

// Len returns the number of pending sync points.
func (q *syncQueue) Len() int {
	return len(q.points)
}

// Front returns the sync point that fires first.
func (q *syncQueue) Front() syncPoint {
	return q.points[0]
}

// PopFront removes and returns the sync point that fires first.
func (q *syncQueue) PopFront() syncPoint {
	p := q.points[0]
	q.points = q.points[1:]

	return p
}

// Insert places p in (time, seq) order. Points registered earlier at the
// same time stay in front.
func (q *syncQueue) Insert(p syncPoint) {
	i := sort.Search(len(q.points), func(i int) bool {
		if q.points[i].time != p.time {
			return q.points[i].time > p.time
		}

		return q.points[i].seq > p.seq
	})

	q.points = append(q.points, syncPoint{})
	copy(q.points[i+1:], q.points[i:])
	q.points[i] = p
}

// Remove drops the sync point for (owner, tag). It reports whether a match
// existed.
func (q *syncQueue) Remove(owner Schedulable, tag int) bool {
	for i, p := range q.points {
		if p.owner == owner && p.tag == tag {
			q.points = append(q.points[:i], q.points[i+1:]...)

			return true
		}
	}

	return false
}

// RemoveAll drops every sync point owned by owner.
func (q *syncQueue) RemoveAll(owner Schedulable) {
	kept := q.points[:0]

	for _, p := range q.points {
		if p.owner != owner {
			kept = append(kept, p)
		}
	}

	q.points = kept
}

// Contains reports whether a sync point for (owner, tag) is pending.
func (q *syncQueue) Contains(owner Schedulable, tag int) bool {
	for _, p := range q.points {
		if p.owner == owner && p.tag == tag {
			return true
		}
	}

	return false
}

// Owners returns the distinct owners that still hold sync points, in queue
// order.
func (q *syncQueue) Owners() []Schedulable {
	var owners []Schedulable

	for _, p := range q.points {
		seen := false

		for _, o := range owners {
			if o == p.owner {
				seen = true
				break
			}
		}

		if !seen {
			owners = append(owners, p.owner)
		}
	}

	return owners
}
