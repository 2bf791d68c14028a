package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is a reference to another catalog entity. Upstream payloads carry
// references either as a bare id string or as the embedded document; both
// decode to the same Ref so consumers only ever compare ids.
type Ref struct {
	ID string
}

// NewRef returns a Ref pointing at id.
func NewRef(id string) Ref { return Ref{ID: id} }

// IsZero reports whether the reference points at nothing.
func (r Ref) IsZero() bool { return r.ID == "" }

func (r Ref) String() string { return r.ID }

// MarshalJSON always emits the bare id.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts "id", {"_id": "id", ...}, {"id": "id", ...} or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		r.ID = ""
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.ID)
	case '{':
		var embedded struct {
			MongoID string `json:"_id"`
			ID      string `json:"id"`
		}
		if err := json.Unmarshal(data, &embedded); err != nil {
			return fmt.Errorf("decode embedded ref: %w", err)
		}
		r.ID = embedded.MongoID
		if r.ID == "" {
			r.ID = embedded.ID
		}
		return nil
	default:
		return fmt.Errorf("ref must be a string or an object, got %s", string(data))
	}
}

// RefSet is an unordered membership list of references.
type RefSet []Ref

// RefsFromIDs builds a RefSet from plain ids, skipping empty ones.
func RefsFromIDs(ids []string) RefSet {
	set := make(RefSet, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			set = append(set, NewRef(id))
		}
	}
	return set
}

// Contains reports whether id is referenced. An empty id never matches.
func (s RefSet) Contains(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range s {
		if r.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the referenced ids in list order.
func (s RefSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, r := range s {
		ids = append(ids, r.ID)
	}
	return ids
}
