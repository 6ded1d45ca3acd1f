package types

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// DefaultKeyPath is the JSON path of a record's identifying key.
const DefaultKeyPath = "id"

// Record is one element of a fetched JSON array, held verbatim.
// The core never validates its shape.
type Record struct {
	Raw json.RawMessage
}

// NewRecord copies raw into a Record.
func NewRecord(raw []byte) Record {
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return Record{Raw: buf}
}

// Get reads the value at path. Missing fields yield a zero Result.
func (r Record) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Raw, path)
}

// Key returns the record's identifying key at DefaultKeyPath as a string.
func (r Record) Key() string {
	return r.KeyAt(DefaultKeyPath)
}

// KeyAt returns the value at path rendered as a string, for use as a row key.
func (r Record) KeyAt(path string) string {
	return r.Get(path).String()
}

// MarshalJSON writes the record back out exactly as it was received.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// UnmarshalJSON keeps a copy of data verbatim.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = NewRecord(data)
	return nil
}

// Collection is an ordered sequence of records in server response order.
type Collection []Record

// Clone returns an independent copy of c. The result is never nil.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Keys returns the key of every record, in order.
func (c Collection) Keys(path string) []string {
	keys := make([]string, len(c))
	for i, r := range c {
		keys[i] = r.KeyAt(path)
	}
	return keys
}
