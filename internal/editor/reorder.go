package editor

// moveByID removes the entry identified by draggedID from list and reinserts
// it at the position hoverID occupied before the removal, shifting the
// entries in between by one. Unknown ids and draggedID == hoverID leave the
// list untouched. The id multiset is always preserved.
func moveByID[T any](list []T, id func(T) int64, draggedID, hoverID int64) []T {
	if draggedID == hoverID {
		return list
	}
	from, to := -1, -1
	for i, v := range list {
		switch id(v) {
		case draggedID:
			from = i
		case hoverID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return list
	}

	out := make([]T, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	dragged := list[from]
	out = append(out, dragged) // grow by one before shifting
	copy(out[to+1:], out[to:])
	out[to] = dragged
	return out
}
