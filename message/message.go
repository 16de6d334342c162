// Package message provides a JSON-serializable projection of a WARC
// header, used by cmd/warcat's decode subcommand to emit NDJSON.
package message

import (
	"encoding/json"

	"github.com/chfoo/warcat-go/fields"
	"github.com/chfoo/warcat-go/warc"
)

// FieldPair is one name/value pair in wire order.
type FieldPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RecordHeader is the JSON projection of a warc.Header: the version line
// and every field, preserving insertion order and repeated names (unlike
// a plain map[string]string, which would collapse them).
type RecordHeader struct {
	Version string      `json:"version"`
	Fields  []FieldPair `json:"fields"`
}

// FromHeader converts a warc.Header into its JSON projection.
func FromHeader(h *warc.Header) RecordHeader {
	pairs := h.Fields.Iter()
	out := RecordHeader{Version: h.Version, Fields: make([]FieldPair, len(pairs))}
	for i, p := range pairs {
		out.Fields[i] = FieldPair{Name: p.Name, Value: p.Value}
	}
	return out
}

// ToHeader reconstructs a warc.Header from its JSON projection.
func (r RecordHeader) ToHeader() *warc.Header {
	h := &warc.Header{Version: r.Version, Fields: fields.NewMap()}
	for _, p := range r.Fields {
		h.Fields.Append(p.Name, p.Value)
	}
	return h
}

// MarshalNDJSON writes rh as a single line of JSON terminated by "\n",
// the unit record of cmd/warcat decode's NDJSON output stream.
func MarshalNDJSON(rh RecordHeader) ([]byte, error) {
	line, err := json.Marshal(rh)
	if err != nil {
		return nil, err
	}
	return append(line, '\n'), nil
}
