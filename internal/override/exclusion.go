package override

import "sort"

// ExclusionSet tracks the mappings hidden for one assignment. It is
// independent of the patch store: excluding a mapping keeps its overrides.
type ExclusionSet struct {
	ids map[string]struct{}
}

func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{ids: make(map[string]struct{})}
}

func (e *ExclusionSet) Add(mappingID string) {
	e.ids[mappingID] = struct{}{}
}

func (e *ExclusionSet) Remove(mappingID string) {
	delete(e.ids, mappingID)
}

// Toggle flips the exclusion of mappingID and reports whether it is now excluded.
func (e *ExclusionSet) Toggle(mappingID string) bool {
	if e.Contains(mappingID) {
		e.Remove(mappingID)
		return false
	}
	e.Add(mappingID)
	return true
}

func (e *ExclusionSet) Contains(mappingID string) bool {
	_, ok := e.ids[mappingID]
	return ok
}

func (e *ExclusionSet) Len() int {
	return len(e.ids)
}

// IDs returns the excluded mapping ids in sorted order.
func (e *ExclusionSet) IDs() []string {
	ids := make([]string, 0, len(e.ids))
	for id := range e.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *ExclusionSet) Clear() {
	e.ids = make(map[string]struct{})
}
