package catalog

// DedupeIDs returns ids with duplicates removed, keeping first occurrences in
// order. A nil or empty input returns nil.
func DedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// DiffIDs compares a current id set with a desired one and returns the ids to
// add and the ids to remove. Both results follow the order of their source.
func DiffIDs(current, desired []int64) (added, removed []int64) {
	have := make(map[int64]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
		if _, ok := have[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if _, ok := want[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
