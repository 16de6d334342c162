package http1

import (
	"bytes"
	"io"
	"testing"
)

func TestParseResponseHeaderContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nContent-Type: text/plain\r\n\r\nHello"
	h, end, err := ParseResponseHeader([]byte(raw))
	if err != nil {
		t.Fatalf("ParseResponseHeader: %v", err)
	}
	if h.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", h.StatusCode)
	}
	if string(raw[end:]) != "Hello" {
		t.Fatalf("body = %q, want Hello", raw[end:])
	}
}

func TestExtractPayloadContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nHello"
	var buf bytes.Buffer
	if err := ExtractPayload([]byte(raw), &buf); err != nil {
		t.Fatalf("ExtractPayload: %v", err)
	}
	if buf.String() != "Hello" {
		t.Fatalf("payload = %q, want Hello", buf.String())
	}
}

func TestExtractPayloadChunked(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nHello\r\n6\r\n world\r\n0\r\n\r\n"
	var buf bytes.Buffer
	if err := ExtractPayload([]byte(raw), &buf); err != nil {
		t.Fatalf("ExtractPayload: %v", err)
	}
	if buf.String() != "Hello world" {
		t.Fatalf("payload = %q, want %q", buf.String(), "Hello world")
	}
}

func TestExtractPayloadZeroLengthStatus(t *testing.T) {
	raw := "HTTP/1.1 204 No Content\r\n\r\n"
	var buf bytes.Buffer
	if err := ExtractPayload([]byte(raw), &buf); err != nil {
		t.Fatalf("ExtractPayload: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("payload = %q, want empty", buf.String())
	}
}

func TestChunkedReaderDirect(t *testing.T) {
	r := NewChunkedReader(bytes.NewReader([]byte("5\r\nHello\r\n0\r\n\r\n")))
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "Hello" {
		t.Fatalf("data = %q, want Hello", data)
	}
}
