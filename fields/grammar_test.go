package fields

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScanDeliminatorCRLF(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", -1},
		{"a", -1},
		{"\r\nz", 2},
		{"a\r\n\r\nz", 5},
		{"a\r\nb\r\n\r\nz", 8},
	}
	for _, c := range cases {
		got := ScanDeliminator([]byte(c.in))
		if got != c.want {
			t.Errorf("ScanDeliminator(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestScanDeliminatorLF(t *testing.T) {
	got := ScanDeliminator([]byte("a\nb\n\nz"))
	if got != 5 {
		t.Errorf("ScanDeliminator(LF) = %d, want 5", got)
	}
}

func TestFieldPairsFolding(t *testing.T) {
	pairs, err := FieldPairs([]byte("n1:v1\r\n  1\r\nn2:v2"))
	if err != nil {
		t.Fatalf("FieldPairs: %v", err)
	}

	want := []Pair{
		{Name: "n1", Value: "v1\r\n  1"},
		{Name: "n2", Value: "v2"},
	}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Errorf("FieldPairs mismatch (-want +got):\n%s", diff)
	}
}

func TestCollapseFolding(t *testing.T) {
	got := CollapseFolding("v1\r\n  1")
	if got != "v1 1" {
		t.Errorf("CollapseFolding = %q, want %q", got, "v1 1")
	}
}

func TestValidateName(t *testing.T) {
	if !ValidateName("WARC-Type") {
		t.Error("expected WARC-Type to validate")
	}
	if ValidateName("bad name") {
		t.Error("expected space to be rejected")
	}
	if ValidateName("") {
		t.Error("expected empty name to be rejected")
	}
}

func TestMapInsertReplacesAppendAdds(t *testing.T) {
	m := NewMap()
	m.Append("WARC-Concurrent-To", "a")
	m.Append("warc-concurrent-to", "b")
	if got := m.GetAll("WARC-Concurrent-To"); len(got) != 2 {
		t.Fatalf("got %v, want 2 values", got)
	}

	m.Insert("Content-Length", "5")
	m.Insert("Content-Length", "10")
	if got := m.GetAll("content-length"); len(got) != 1 || got[0] != "10" {
		t.Fatalf("got %v, want [10]", got)
	}
}

func TestParseVersionLine(t *testing.T) {
	v, n, ok := ParseVersionLine([]byte("WARC/1.1\r\nrest"))
	if !ok || v != "WARC/1.1" || n != 10 {
		t.Fatalf("ParseVersionLine = %q, %d, %v", v, n, ok)
	}

	v, n, ok = ParseVersionLine([]byte("WARC/1.0\nrest"))
	if !ok || v != "WARC/1.0" || n != 9 {
		t.Fatalf("LF form: ParseVersionLine = %q, %d, %v", v, n, ok)
	}

	if _, _, ok := ParseVersionLine([]byte("GZIP/oops")); ok {
		t.Fatal("expected non-WARC prefix to fail")
	}
}
