package message

import (
	"encoding/json"
	"testing"

	"github.com/chfoo/warcat-go/warc"
)

func TestRoundTripPreservesFieldOrder(t *testing.T) {
	h := warc.Empty()
	h.Fields.Append("WARC-Type", "resource")
	h.Fields.Append("Content-Length", "0")
	h.Fields.Append("X-Custom", "a")
	h.Fields.Append("X-Custom", "b")

	rh := FromHeader(h)
	line, err := MarshalNDJSON(rh)
	if err != nil {
		t.Fatalf("MarshalNDJSON: %v", err)
	}
	if line[len(line)-1] != '\n' {
		t.Fatalf("expected trailing newline, got %q", line)
	}

	var decoded RecordHeader
	if err := json.Unmarshal(line[:len(line)-1], &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	back := decoded.ToHeader()
	got := back.Fields.GetAll("X-Custom")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected repeated X-Custom values preserved in order, got %v", got)
	}
}
