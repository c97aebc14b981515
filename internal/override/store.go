package override

import (
	"sort"
)

// Patch is a sparse set of field values for one mapping. A field is
// overridden iff its key is present; there is no "explicitly unset" state.
type Patch map[Field]any

func (p Patch) clone() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		if l, ok := v.([]string); ok {
			cp := make([]string, len(l))
			copy(cp, l)
			v = cp
		}
		out[k] = v
	}
	return out
}

// Store holds the per-assignment patches keyed by mapping id. Empty patches
// are never kept: the last field removed drops the whole entry.
type Store struct {
	patches map[string]Patch
}

func NewStore() *Store {
	return &Store{patches: make(map[string]Patch)}
}

// Update writes value into the patch of mappingID. A nil value deletes the
// field instead of storing it.
func (s *Store) Update(mappingID string, field Field, value any) error {
	if mappingID == "" {
		return ErrEmptyID
	}
	v, ok, err := normalize(field, value)
	if err != nil {
		return err
	}

	patch, exists := s.patches[mappingID]
	if !ok {
		if !exists {
			return nil
		}
		delete(patch, field)
		if len(patch) == 0 {
			delete(s.patches, mappingID)
		}
		return nil
	}

	if !exists {
		patch = make(Patch)
		s.patches[mappingID] = patch
	}
	patch[field] = v
	return nil
}

// Reset drops every override of mappingID.
func (s *Store) Reset(mappingID string) {
	delete(s.patches, mappingID)
}

// Has reports whether mappingID carries at least one overridden field.
func (s *Store) Has(mappingID string) bool {
	return len(s.patches[mappingID]) > 0
}

// Get returns a single overridden value.
func (s *Store) Get(mappingID string, field Field) (any, bool) {
	v, ok := s.patches[mappingID][field]
	return v, ok
}

// Patch returns a copy of the patch for mappingID.
func (s *Store) Patch(mappingID string) (Patch, bool) {
	p, ok := s.patches[mappingID]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// AppendCustomImage adds an object key to the customImages override of mappingID.
func (s *Store) AppendCustomImage(mappingID, key string) error {
	var images []string
	if v, ok := s.Get(mappingID, FieldCustomImages); ok {
		images, _ = v.([]string)
	}
	for _, existing := range images {
		if existing == key {
			return nil
		}
	}
	return s.Update(mappingID, FieldCustomImages, append(images, key))
}

// Len returns the number of mappings with overrides.
func (s *Store) Len() int {
	return len(s.patches)
}

// IDs returns the overridden mapping ids in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.patches))
	for id := range s.patches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear drops all patches.
func (s *Store) Clear() {
	s.patches = make(map[string]Patch)
}
