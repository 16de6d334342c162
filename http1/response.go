package http1

import (
	"strconv"
	"strings"

	"github.com/chfoo/warcat-go/fields"
	"github.com/chfoo/warcat-go/werr"
)

// ResponseHeader is a parsed HTTP/1.1 status line plus fields.
type ResponseHeader struct {
	Version    string
	StatusCode int
	Reason     string
	Fields     *fields.Map
}

// ParseResponseHeader parses the status line and fields from data, which
// must contain the complete header including the terminating empty line.
func ParseResponseHeader(data []byte) (*ResponseHeader, int, error) {
	end := fields.ScanDeliminator(data)
	if end < 0 {
		return nil, 0, werr.New(werr.Syntax).WithSnippet(data)
	}

	nl := indexByte(data, '\n')
	if nl < 0 {
		return nil, 0, werr.New(werr.Syntax).WithSnippet(data)
	}
	statusLine := strings.TrimRight(string(data[:nl]), "\r\n")

	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return nil, 0, werr.New(werr.Syntax).WithSnippet([]byte(statusLine))
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, 0, werr.New(werr.Syntax).WithCause(err).WithSnippet([]byte(statusLine))
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	fieldsStart := nl + 1
	bodyEnd := end
	for bodyEnd > fieldsStart && (data[bodyEnd-1] == '\n' || data[bodyEnd-1] == '\r') {
		bodyEnd--
	}
	pairs, err := fields.FieldPairs(data[fieldsStart:bodyEnd])
	if err != nil {
		return nil, 0, err
	}

	m := fields.NewMap()
	for _, p := range pairs {
		m.Append(p.Name, fields.CollapseFolding(p.Value))
	}

	return &ResponseHeader{
		Version:    parts[0],
		StatusCode: code,
		Reason:     reason,
		Fields:     m,
	}, end, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// Framing identifies how a response body is delimited.
type Framing int

const (
	FramingZeroLength Framing = iota
	FramingContentLength
	FramingChunked
	FramingUntilEOF
)

// DetermineFraming selects the body framing for a response, grounded on
// chfoo/warcat-rs's http/h1/recv.rs config_content_length: 1xx/204/304
// responses carry no body; a Transfer-Encoding ending in "chunked" wins
// over Content-Length; otherwise Content-Length applies if present, and
// the body runs until EOF if neither framing header is present (valid for
// a response, unlike a request).
func DetermineFraming(h *ResponseHeader) (Framing, uint64, error) {
	if h.StatusCode/100 == 1 || h.StatusCode == 204 || h.StatusCode == 304 {
		return FramingZeroLength, 0, nil
	}

	if te, ok := h.Fields.Get("Transfer-Encoding"); ok {
		items := strings.Split(te, ",")
		last := strings.TrimSpace(items[len(items)-1])
		if strings.EqualFold(last, "chunked") {
			return FramingChunked, 0, nil
		}
	}

	if cl, ok := h.Fields.Get("Content-Length"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(cl), 10, 64)
		if err != nil {
			return 0, 0, werr.New(werr.InvalidContentLength).WithCause(err).WithSnippet([]byte(cl))
		}
		return FramingContentLength, n, nil
	}

	return FramingUntilEOF, 0, nil
}
