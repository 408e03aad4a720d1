// Package genres groups saved tracks by the genre tags of their primary artist.
package genres

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Map groups values (track IDs or names) under genre names.
// Genres keep the order they were first seen; values keep the order they were added
// and are not deduplicated. The zero value is not usable; create one with NewMap.
type Map struct {
	order  []string
	values map[string][]string
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string][]string)}
}

// Add appends value to genre's entry, creating the entry if needed.
func (m *Map) Add(genre, value string) {
	if _, ok := m.values[genre]; !ok {
		m.order = append(m.order, genre)
	}
	m.values[genre] = append(m.values[genre], value)
}

// Genres returns the genre names in first-seen order.
func (m *Map) Genres() []string {
	return slices.Clone(m.order)
}

// Values returns the values recorded for genre, or nil if the genre is absent.
func (m *Map) Values(genre string) []string {
	return slices.Clone(m.values[genre])
}

// Len returns the number of genres.
func (m *Map) Len() int {
	return len(m.order)
}

// MarshalJSON encodes the map as a JSON object whose keys appear in first-seen order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, genre := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(genre)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[genre])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
