// Package digest implements the WARC digest string format
// ("<algorithm-label>:<encoded-value>") and streaming hashers for every
// algorithm label a WARC file may reference.
package digest

import (
	"encoding/base32"
	"encoding/hex"
	"strings"

	"github.com/chfoo/warcat-go/werr"
)

// Algorithm identifies a digest algorithm by its canonical WARC label.
type Algorithm int

const (
	_ Algorithm = iota
	CRC32
	CRC32C
	MD5
	SHA1
	SHA256
	SHA512
	SHA3_256
	SHA3_512
	BLAKE2s
	BLAKE3
	XXH3
)

// outputLen is the raw (undecoded) byte length of each algorithm's digest.
var outputLen = map[Algorithm]int{
	CRC32:    4,
	CRC32C:   4,
	MD5:      16,
	SHA1:     20,
	SHA256:   32,
	SHA512:   64,
	SHA3_256: 32,
	SHA3_512: 64,
	BLAKE2s:  32,
	BLAKE3:   32,
	XXH3:     8,
}

var algoLabel = map[Algorithm]string{
	CRC32:    "crc32",
	CRC32C:   "crc32c",
	MD5:      "md5",
	SHA1:     "sha1",
	SHA256:   "sha256",
	SHA512:   "sha512",
	SHA3_256: "sha3-256",
	SHA3_512: "sha3-512",
	BLAKE2s:  "blake2s",
	BLAKE3:   "blake3",
	XXH3:     "xxh3",
}

var labelAlgo = func() map[string]Algorithm {
	m := make(map[string]Algorithm, len(algoLabel))
	for a, l := range algoLabel {
		m[l] = a
	}
	return m
}()

// compatibilityLabels maps hyphenated compatibility spellings to their
// canonical unhyphenated forms, matching chfoo/warcat-rs's
// remove_compatibility_label.
var compatibilityLabels = map[string]string{
	"sha-1":   "sha1",
	"sha-224": "sha224",
	"sha-256": "sha256",
	"sha-384": "sha384",
	"sha-512": "sha512",
}

// String returns the canonical WARC label for a.
func (a Algorithm) String() string {
	return algoLabel[a]
}

// OutputLen returns the raw digest length in bytes for a.
func (a Algorithm) OutputLen() int {
	return outputLen[a]
}

// ParseAlgorithm parses a digest algorithm label, case-insensitively,
// accepting hyphenated compatibility spellings such as "sha-1".
func ParseAlgorithm(s string) (Algorithm, error) {
	lower := strings.ToLower(s)
	if canon, ok := compatibilityLabels[lower]; ok {
		lower = canon
	}
	if a, ok := labelAlgo[lower]; ok {
		return a, nil
	}
	return 0, werr.New(werr.UnsupportedDigest).WithSnippet([]byte(s))
}

// Digest is a parsed "<algorithm>:<value>" digest string.
type Digest struct {
	Algorithm Algorithm
	Value     []byte
}

// New constructs a Digest from an algorithm and raw value bytes.
func New(algorithm Algorithm, value []byte) Digest {
	return Digest{Algorithm: algorithm, Value: value}
}

// Parse parses a digest string of the form "<algorithm-label>:<encoded-value>".
func Parse(s string) (Digest, error) {
	label, encoded, found := strings.Cut(s, ":")
	if !found {
		encoded = ""
	}
	algo, err := ParseAlgorithm(label)
	if err != nil {
		return Digest{}, err
	}
	value, err := decodeValue(algo.OutputLen(), encoded)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Algorithm: algo, Value: value}, nil
}

var (
	base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// decodeValue disambiguates hex vs. base32 encoding the way
// chfoo/warcat-rs's decode_value does: trim any "=" padding, compute the
// decoded length each encoding would imply, and prefer base32 whenever the
// input was padded or whenever only the base32-implied length matches the
// algorithm's expected output length.
func decodeValue(expectedLen int, value string) ([]byte, error) {
	nopad := strings.TrimRight(value, "=")

	b32Len := base32DecodedLen(len(nopad))
	hexLen := hexDecodedLen(len(nopad))

	var data []byte
	var err error

	switch {
	case expectedLen == b32Len && expectedLen == hexLen:
		if strings.HasSuffix(value, "=") {
			data, err = base32NoPad.DecodeString(strings.ToUpper(nopad))
		} else {
			data, err = hex.DecodeString(value)
		}
	case expectedLen == b32Len:
		data, err = base32NoPad.DecodeString(strings.ToUpper(nopad))
	default:
		data, err = hex.DecodeString(value)
	}

	if err != nil {
		return nil, werr.New(werr.InvalidBaseEncodedValue).WithCause(err)
	}
	return data, nil
}

func base32DecodedLen(n int) int {
	return n * 5 / 8
}

func hexDecodedLen(n int) int {
	return n / 2
}

// String renders the canonical form: base32 (no padding) for sha1, hex-lower
// for every other algorithm.
func (d Digest) String() string {
	if d.Algorithm == SHA1 {
		return d.Algorithm.String() + ":" + base32NoPad.EncodeToString(d.Value)
	}
	return d.Algorithm.String() + ":" + hex.EncodeToString(d.Value)
}
