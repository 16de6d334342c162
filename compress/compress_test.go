package compress

import (
	"bytes"
	"io"
	"testing"
)

func roundTrip(t *testing.T, format Format, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	c, err := NewCompressor(&buf, CompressorConfig{Format: format, Level: Balanced})
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	if _, err := c.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := c.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	d, err := NewDecompressor(bytes.NewReader(buf.Bytes()), DecompressorConfig{Format: format})
	if err != nil {
		t.Fatalf("NewDecompressor: %v", err)
	}
	got, err := io.ReadAll(d)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return got
}

func TestRoundTripAllFormats(t *testing.T) {
	payload := []byte("Hello world! Hello world! Hello world!")
	for _, format := range []Format{Identity, Deflate, Gzip, Brotli, Zstandard} {
		got := roundTrip(t, format, payload)
		if !bytes.Equal(got, payload) {
			t.Errorf("%v: got %q, want %q", format, got, payload)
		}
	}
}

func TestGzipConcatenation(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewCompressor(&buf, CompressorConfig{Format: Gzip, Level: Balanced})
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}
	if _, err := c.Write([]byte("Hello world!")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := c.StartNewSegment(); err != nil {
		t.Fatalf("StartNewSegment: %v", err)
	}
	if _, err := c.Write([]byte{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := c.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	d, err := NewDecompressor(bytes.NewReader(buf.Bytes()), DecompressorConfig{Format: Gzip})
	if err != nil {
		t.Fatalf("NewDecompressor: %v", err)
	}
	first, err := io.ReadAll(d)
	if err != nil {
		t.Fatalf("ReadAll first: %v", err)
	}
	if string(first) != "Hello world!" {
		t.Fatalf("first segment = %q", first)
	}
	if !d.HasDataLeft() {
		t.Fatal("expected a second gzip member to remain")
	}
	if err := d.StartNextSegment(); err != nil {
		t.Fatalf("StartNextSegment: %v", err)
	}
	second, err := io.ReadAll(d)
	if err != nil {
		t.Fatalf("ReadAll second: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second segment = %q, want empty", second)
	}
	if d.HasDataLeft() {
		t.Fatal("expected no data left after final segment")
	}
}

func TestParseFormatAliases(t *testing.T) {
	cases := map[string]Format{
		"gzip": Gzip, "x-gzip": Gzip, "gz": Gzip,
		"br": Brotli, "brotli": Brotli,
		"zstd": Zstandard, "zstandard": Zstandard, "zst": Zstandard,
		"identity": Identity, "deflate": Deflate,
	}
	for name, want := range cases {
		got, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", name, got, want)
		}
	}
}
