package execdb

import "sort"

// sortedIDs snapshots a set as a sorted slice so enumeration order is
// deterministic. A nil set yields an empty slice.
func sortedIDs[T ~string](set map[T]struct{}) []T {
	out := make([]T, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// intersectIDs returns the sorted intersection of two sets.
func intersectIDs[T ~string](a, b map[T]struct{}) []T {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make([]T, 0, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
