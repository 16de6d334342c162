package fields

import (
	"mime"
	"strings"
)

// MediaType is a parsed "type/subtype; parameter=value" media type.
type MediaType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// ParseMediaType parses s using the standard library's RFC 2045 parser and
// splits the resulting "type/subtype" into its two halves. No example in
// the retrieval pack hand-rolls this grammar, so it is not ported from
// chfoo/warcat-rs's media-type parser; see DESIGN.md.
func ParseMediaType(s string) (MediaType, error) {
	full, params, err := mime.ParseMediaType(s)
	if err != nil {
		return MediaType{}, err
	}
	typ, subtype, _ := strings.Cut(full, "/")
	return MediaType{Type: typ, Subtype: subtype, Params: params}, nil
}

func (m MediaType) String() string {
	return m.Type + "/" + m.Subtype
}
