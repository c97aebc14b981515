package override

import (
	"encoding/json"
)

// Payload is the persisted form of an assignment's customization: mapping id
// to the overridden fields, with hidden=true for excluded mappings.
type Payload map[string]map[Field]any

// BuildPayload merges patches and exclusions into the persistence payload.
// Exclusion is a union: an excluded mapping keeps its other overrides. It
// returns nil when there is nothing to persist.
func BuildPayload(store *Store, excluded *ExclusionSet) Payload {
	storeEmpty := store == nil || store.Len() == 0
	excludedEmpty := excluded == nil || excluded.Len() == 0
	if storeEmpty && excludedEmpty {
		return nil
	}

	payload := make(Payload)
	if !storeEmpty {
		for id, patch := range store.patches {
			entry := make(map[Field]any, len(patch)+1)
			for k, v := range patch.clone() {
				entry[k] = v
			}
			payload[id] = entry
		}
	}
	if !excludedEmpty {
		for id := range excluded.ids {
			entry, ok := payload[id]
			if !ok {
				entry = make(map[Field]any, 1)
				payload[id] = entry
			}
			entry[FieldHidden] = true
		}
	}
	return payload
}

// Marshal renders the payload as JSON; a nil payload renders as "".
func (p Payload) Marshal() (string, error) {
	if p == nil {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Hydrate rebuilds a patch store and exclusion set from a persisted payload.
// A malformed payload yields empty state; individual values of the wrong type
// or unknown fields are dropped.
func Hydrate(raw string) (*Store, *ExclusionSet) {
	store := NewStore()
	excluded := NewExclusionSet()
	if raw == "" {
		return store, excluded
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return store, excluded
	}

	for id, rawEntry := range entries {
		if id == "" {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(rawEntry, &fields); err != nil {
			continue
		}
		for name, value := range fields {
			field := Field(name)
			if field == FieldHidden {
				if hidden, ok := value.(bool); ok && hidden {
					excluded.Add(id)
				}
				continue
			}
			if !field.Valid() {
				continue
			}
			// Wrong-typed values are skipped, not fatal.
			_ = store.Update(id, field, value)
		}
	}
	return store, excluded
}
