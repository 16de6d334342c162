package fields

import (
	"bytes"

	"github.com/chfoo/warcat-go/werr"
)

// isTchar reports whether b is a valid RFC 7230 token character:
// ALPHA / DIGIT / "!#$%&'*+-.^_`|~".
func isTchar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// isObsText reports whether b is in the obs-text range (>= 0x80), permitted
// inside field values by WARC even though it is not valid HTTP.
func isObsText(b byte) bool {
	return b >= 0x80
}

// isFieldVchar reports whether b may start or continue a field-content run:
// a visible ASCII character or obs-text.
func isFieldVchar(b byte) bool {
	return (b > 0x20 && b < 0x7f) || isObsText(b)
}

// isFieldChar additionally allows the interior whitespace permitted inside
// a field-content run (space and tab).
func isFieldChar(b byte) bool {
	return isFieldVchar(b) || b == ' ' || b == '\t'
}

// ValidateName reports whether name is a valid RFC 7230 token.
func ValidateName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isTchar(name[i]) {
			return false
		}
	}
	return true
}

// ValidateValue reports whether value matches the field-value grammar. When
// multiline is true, CRLF-WSP obsolete line folding sequences are permitted
// inside the value; when false (HTTP-style validation) they are not.
func ValidateValue(value string, multiline bool) bool {
	i := 0
	n := len(value)
	for i < n {
		if isFieldVchar(value[i]) {
			i++
			for i < n && isFieldChar(value[i]) {
				i++
			}
			continue
		}
		if multiline && i+1 < n && value[i] == '\r' && value[i+1] == '\n' && i+2 < n && (value[i+2] == ' ' || value[i+2] == '\t') {
			i += 2
			for i < n && (value[i] == ' ' || value[i] == '\t') {
				i++
			}
			continue
		}
		if multiline && value[i] == '\n' && i+1 < n && (value[i+1] == ' ' || value[i+1] == '\t') {
			i++
			for i < n && (value[i] == ' ' || value[i] == '\t') {
				i++
			}
			continue
		}
		return false
	}
	return true
}

// ScanDeliminator scans data for the first empty-line header/body separator
// (CRLF CRLF or LF LF) and returns the index just past it, so data[:idx]
// includes the separator. It returns -1 if no complete separator has
// appeared yet.
func ScanDeliminator(data []byte) int {
	i := 0
	for i < len(data) {
		lineEnd, crlf := scanLineEnding(data[i:])
		if lineEnd < 0 {
			return -1
		}
		lineLen := lineEnd
		if lineLen == 0 {
			if crlf {
				return i + 2
			}
			return i + 1
		}
		advance := lineEnd
		if crlf {
			advance += 2
		} else {
			advance++
		}
		i += advance
	}
	return -1
}

// scanLineEnding finds the first line ending in data (CRLF preferred over a
// bare LF at the same or later position) and returns the length of the line
// content preceding it plus whether the ending was CRLF.
func scanLineEnding(data []byte) (int, bool) {
	idx := bytes.IndexAny(data, "\r\n")
	if idx < 0 {
		return -1, false
	}
	if data[idx] == '\r' {
		if idx+1 < len(data) && data[idx+1] == '\n' {
			return idx, true
		}
		return -1, false
	}
	return idx, false
}

// FieldPairs parses a run of "name: value\r\n" lines (with optional
// obsolete line folding inside values, left uncollapsed) up to but not
// including the terminating empty line. data must already have had its
// deliminator located by ScanDeliminator; pairs are parsed from data[:bodyEnd]
// where bodyEnd excludes the empty-line terminator.
func FieldPairs(data []byte) ([]Pair, error) {
	var pairs []Pair
	if len(data) > 0 && data[len(data)-1] != '\n' {
		// The last line may lack a line ending.
		data = append(data[:len(data):len(data)], '\r', '\n')
	}
	i := 0
	for i < len(data) {
		lineEnd, crlf := scanLineEnding(data[i:])
		if lineEnd < 0 {
			return nil, werr.New(werr.Syntax).WithSnippet(data[i:])
		}
		// Extend the line over obs-fold continuation lines (a line ending
		// followed by a space or tab).
		for {
			next := i + lineEnd + 1
			if crlf {
				next++
			}
			more, moreCRLF := scanLineEnding(data[next:])
			if more < 0 || (data[next] != ' ' && data[next] != '\t') {
				break
			}
			lineEnd, crlf = next-i+more, moreCRLF
		}
		line := data[i : i+lineEnd]
		pair, err := parseFieldLine(line)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
		if crlf {
			i += lineEnd + 2
		} else {
			i += lineEnd + 1
		}
	}
	return pairs, nil
}

func parseFieldLine(line []byte) (Pair, error) {
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return Pair{}, werr.New(werr.Syntax).WithSnippet(line)
	}
	name := line[:colon]
	for _, b := range name {
		if !isTchar(b) {
			return Pair{}, werr.New(werr.Syntax).WithSnippet(line)
		}
	}
	value := bytes.TrimFunc(line[colon+1:], func(r rune) bool {
		return r == ' ' || r == '\t'
	})
	return Pair{Name: string(name), Value: string(value)}, nil
}

// CollapseFolding replaces every obsolete line-folding sequence (CRLF or LF
// followed by one or more spaces/tabs) in value with a single space, the
// transformation higher layers apply to raw field values before exposing
// them to callers.
func CollapseFolding(value string) string {
	var b bytes.Buffer
	i := 0
	n := len(value)
	for i < n {
		if value[i] == '\r' && i+1 < n && value[i+1] == '\n' {
			i += 2
			for i < n && (value[i] == ' ' || value[i] == '\t') {
				i++
			}
			b.WriteByte(' ')
			continue
		}
		if value[i] == '\n' {
			i++
			for i < n && (value[i] == ' ' || value[i] == '\t') {
				i++
			}
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(value[i])
		i++
	}
	return b.String()
}
