package digest

import (
	"bytes"
	"testing"
)

func TestParseMD5(t *testing.T) {
	d, err := Parse("md5:b1946ac92492d2347c6235b4d2611184")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Algorithm != MD5 {
		t.Fatalf("algorithm = %v, want MD5", d.Algorithm)
	}
	want := []byte("\xb1\x94\x6a\xc9\x24\x92\xd2\x34\x7c\x62\x35\xb4\xd2\x61\x11\x84")
	if !bytes.Equal(d.Value, want) {
		t.Fatalf("value = %x, want %x", d.Value, want)
	}

	d2, err := Parse("MD5:WGKGVSJESLJDI7DCGW2NEYIRQQ======")
	if err != nil {
		t.Fatalf("Parse padded base32: %v", err)
	}
	if !bytes.Equal(d2.Value, want) {
		t.Fatalf("padded base32 value = %x, want %x", d2.Value, want)
	}
}

func TestParseSha1CompatLabel(t *testing.T) {
	d, err := Parse("Sha-1:VL2MMHO4YXUKFWV63YHTWSBM3GXKSQ2N")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Algorithm != SHA1 {
		t.Fatalf("algorithm = %v, want SHA1", d.Algorithm)
	}
}

func TestDigestRoundTrip(t *testing.T) {
	for _, algo := range []Algorithm{CRC32, CRC32C, MD5, SHA1, SHA256, SHA512, SHA3_256, SHA3_512, BLAKE2s, BLAKE3, XXH3} {
		h := NewHasher(algo)
		h.Update([]byte("Hello"))
		sum := h.Finish()
		d := New(algo, sum)

		reparsed, err := Parse(d.String())
		if err != nil {
			t.Fatalf("%v: Parse(%q): %v", algo, d.String(), err)
		}
		if reparsed.String() != d.String() {
			t.Fatalf("%v: round trip mismatch: %q != %q", algo, reparsed.String(), d.String())
		}
	}
}

func TestHashSha1Vector(t *testing.T) {
	h := NewHasher(SHA1)
	h.Update([]byte("abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq"))
	got := h.Finish()
	want := []byte("\x84\x98\x3e\x44\x1c\x3b\xd2\x6e\xba\xae\x4a\xa1\xf9\x51\x29\xe5\xe5\x46\x70\xf1")
	if !bytes.Equal(got, want) {
		t.Fatalf("sha1 = %x, want %x", got, want)
	}
}
