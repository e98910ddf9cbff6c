package model

import "encoding/json"

// SeenSet is the ordered, append-only set of listing ids that were already
// announced. It is owned by the poll loop and is not safe for concurrent use.
type SeenSet struct {
	ids   []string
	index map[string]struct{}
}

func NewSeenSet(ids []string) *SeenSet {
	s := &SeenSet{
		ids:   make([]string, 0, len(ids)),
		index: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *SeenSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add appends id and reports whether it was new.
func (s *SeenSet) Add(id string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

func (s *SeenSet) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in insertion order.
func (s *SeenSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *SeenSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *SeenSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = *NewSeenSet(ids)
	return nil
}
