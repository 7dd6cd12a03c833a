package hittest

// Candidate is one droppable region: a column's background zone when ItemID
// is empty, otherwise a single card within that column.
type Candidate struct {
	ColumnKey string
	ItemID    string
	Bounds    Rect
}

// Target is the resolved drop destination. An empty ItemID means "append to
// the end of the column"; otherwise the drop inserts before that item.
type Target struct {
	ColumnKey string
	ItemID    string
}

// IsItem reports whether the target names a specific card.
func (t Target) IsItem() bool {
	return t.ItemID != ""
}

// Resolve picks the single drop target for one drag frame.
//
// Containment runs first: the pointer must sit inside a column zone, and
// within a matched column an item wins over the column background whenever
// its rect overlaps the dragged rect at all. Ties between overlapping items
// go to the earliest candidate, which keeps results stable frame to frame
// regardless of geometry. When the pointer is inside no zone (fast drags
// overshoot sub-cell gaps between zones), the nearest center over every
// candidate decides, so a drag only reports no target when there is nothing
// to drop on at all.
func Resolve(pointer Point, dragged Rect, columns, items []Candidate) (Target, bool) {
	for _, zone := range columns {
		if !zone.Bounds.Contains(pointer) {
			continue
		}
		for _, item := range items {
			if item.ColumnKey != zone.ColumnKey {
				continue
			}
			if item.Bounds.Overlaps(dragged) {
				return Target{ColumnKey: item.ColumnKey, ItemID: item.ItemID}, true
			}
		}
		return Target{ColumnKey: zone.ColumnKey}, true
	}
	return closestCenter(dragged, columns, items)
}

// closestCenter returns whichever candidate, column or item, sits nearest
// the dragged rect.
func closestCenter(dragged Rect, columns, items []Candidate) (Target, bool) {
	var (
		best     Candidate
		bestDist float64
		found    bool
	)
	consider := func(c Candidate) {
		dist := c.Bounds.CenterDistance(dragged)
		if !found || dist < bestDist {
			best = c
			bestDist = dist
			found = true
		}
	}
	for _, zone := range columns {
		consider(zone)
	}
	for _, item := range items {
		consider(item)
	}
	if !found {
		return Target{}, false
	}
	return Target{ColumnKey: best.ColumnKey, ItemID: best.ItemID}, true
}
