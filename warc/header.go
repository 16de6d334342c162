// Package warc implements the ISO 28500 WARC record codec: the header
// grammar, a typestate pull decoder and writer, and a sans-I/O push decoder
// state machine, all built on package compress for segment-aware framing.
package warc

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chfoo/warcat-go/fields"
	"github.com/chfoo/warcat-go/logging"
	"github.com/chfoo/warcat-go/werr"
)

// maxHeaderLength bounds header scanning to guard against pathological
// inputs, per spec.md §4.4/§5.
const maxHeaderLength = 32768

// Header is a WARC record header: a version line and an ordered,
// case-insensitive multimap of fields. Grounded on chfoo/warcat-rs's
// WarcHeader.
type Header struct {
	Version string
	Fields  *fields.Map
}

// NewHeader constructs a fresh Header for a new record: it stamps
// WARC-Record-ID (a UUIDv7 URN, matching header.rs's
// uuid::Uuid::now_v7()), WARC-Date (RFC 3339, via the standard library
// time package), WARC-Type, and Content-Length. This is supplemental to
// the distilled spec, which only described parsing/serializing existing
// records; any complete writer-side API needs a way to mint new ones.
func NewHeader(contentLength uint64, warcType string) *Header {
	h := &Header{Version: "WARC/1.1", Fields: fields.NewMap()}
	h.Fields.Insert("WARC-Record-ID", "<urn:uuid:"+uuid.Must(uuid.NewV7()).String()+">")
	h.Fields.Insert("WARC-Date", time.Now().UTC().Format(time.RFC3339))
	h.Fields.Insert("WARC-Type", warcType)
	h.Fields.Insert("Content-Length", strconv.FormatUint(contentLength, 10))
	return h
}

// Empty constructs a Header with the default version and no fields.
func Empty() *Header {
	return &Header{Version: "WARC/1.1", Fields: fields.NewMap()}
}

// ContentLength parses the Content-Length field strictly: ASCII digits
// only, no leading sign, no whitespace, no underscores.
func (h *Header) ContentLength() (uint64, error) {
	value, ok := h.Fields.Get("Content-Length")
	if !ok {
		return 0, werr.New(werr.MissingContentLength)
	}
	return parseUint64Strict(value)
}

// SetContentLength sets the Content-Length field.
func (h *Header) SetContentLength(value uint64) {
	h.Fields.Insert("Content-Length", strconv.FormatUint(value, 10))
}

// RecordID returns the value of WARC-Record-ID, if present.
func (h *Header) RecordID() (string, bool) {
	return h.Fields.Get("WARC-Record-ID")
}

// Type returns the value of WARC-Type, if present.
func (h *Header) Type() (string, bool) {
	return h.Fields.Get("WARC-Type")
}

// parseUint64Strict rejects any input containing a non-ASCII-digit
// character, matching chfoo/warcat-rs's parse_u64_strict (which forces a
// guaranteed parse failure rather than let strconv's own looser grammar
// through).
func parseUint64Strict(value string) (uint64, error) {
	if len(value) == 0 {
		return 0, werr.New(werr.InvalidContentLength).WithSnippet([]byte(value))
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, werr.New(werr.InvalidContentLength).WithSnippet([]byte(value))
		}
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, werr.New(werr.InvalidContentLength).WithCause(err).WithSnippet([]byte(value))
	}
	return n, nil
}

// Validate checks the version line and every field name/value against the
// WARC grammar: version matches "WARC/<digits>(.<digits>)*", each field
// name is a token, and each value matches the field-value grammar
// (multiline folding allowed, matching header.rs's validate()).
func (h *Header) Validate() error {
	if _, _, ok := fields.ParseVersionLine([]byte(h.Version + "\r\n")); !ok {
		return werr.New(werr.Syntax).WithSnippet([]byte(h.Version))
	}
	for _, part := range strings.Split(strings.TrimPrefix(h.Version, "WARC/"), ".") {
		if part == "" {
			return werr.New(werr.Syntax).WithSnippet([]byte(h.Version))
		}
	}
	for _, p := range h.Fields.Iter() {
		if !fields.ValidateName(p.Name) {
			return werr.New(werr.Syntax).WithSnippet([]byte(p.Name))
		}
		if !fields.ValidateValue(p.Value, true) {
			return werr.New(werr.Syntax).WithSnippet([]byte(p.Value))
		}
	}
	return nil
}

// Serialize writes the header's wire form: "<version>\r\n", then
// "name: value\r\n" per field, then a terminating "\r\n".
func (h *Header) Serialize(w io.Writer) error {
	if _, err := io.WriteString(w, h.Version+"\r\n"); err != nil {
		return err
	}
	for _, p := range h.Fields.Iter() {
		if _, err := io.WriteString(w, p.Name+": "+p.Value+"\r\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

// ParseHeader parses the WARC version line and fields from data, which must
// contain a complete header including the terminating empty line (use
// fields.ScanDeliminator on the raw source first to find where that is).
func ParseHeader(data []byte) (*Header, error) {
	version, consumed, ok := fields.ParseVersionLine(data)
	if !ok {
		return nil, classifyUnknownHeader(data)
	}

	rest := data[consumed:]
	end := fields.ScanDeliminator(rest)
	if end < 0 {
		return nil, werr.New(werr.Syntax).WithSnippet(rest)
	}

	// Exclude the trailing empty-line terminator from the field body.
	bodyEnd := end
	for bodyEnd > 0 && (rest[bodyEnd-1] == '\n' || rest[bodyEnd-1] == '\r') {
		bodyEnd--
	}

	pairs, err := fields.FieldPairs(rest[:bodyEnd])
	if err != nil {
		return nil, err
	}

	h := &Header{Version: version, Fields: fields.NewMap()}
	for _, p := range pairs {
		h.Fields.Append(p.Name, fields.CollapseFolding(p.Value))
	}
	logging.Default().Debugf("unmarshaled header with %d fields", h.Fields.Len())
	return h, nil
}

// classifyUnknownHeader distinguishes spec.md's UnknownHeader (the bytes
// simply aren't "WARC/...") from UnexpectedCompression (they are a
// recognizable compression magic where a header was expected — e.g. a
// caller forgot to configure decompression).
func classifyUnknownHeader(data []byte) error {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		logging.Default().Debug("detected gzip record where a WARC header was expected")
		return werr.New(werr.UnexpectedCompression).WithSnippet(data)
	}
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		logging.Default().Debug("detected zstd record where a WARC header was expected")
		return werr.New(werr.UnexpectedCompression).WithSnippet(data)
	}
	return werr.New(werr.UnknownHeader).WithSnippet(data)
}
