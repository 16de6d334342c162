// Package compress unifies the codecs a WARC file may be compressed with
// (identity, deflate, gzip, brotli, zstandard) behind a common notion of a
// "segment": a self-contained, concatenatable compressed unit (a gzip
// member or a zstd frame). Record-at-time compression restarts a segment
// per WARC record; this package is what makes that restart possible across
// every codec with one API.
package compress

import (
	"strings"

	"github.com/chfoo/warcat-go/werr"
)

// Format identifies a compression codec.
type Format int

const (
	Identity Format = iota
	Deflate
	Gzip
	Brotli
	Zstandard
)

func (f Format) String() string {
	switch f {
	case Identity:
		return "identity"
	case Deflate:
		return "deflate"
	case Gzip:
		return "gzip"
	case Brotli:
		return "brotli"
	case Zstandard:
		return "zstandard"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name, accepting the common aliases
// chfoo/warcat-rs's Format::FromStr accepts ("x-gzip"/"gz" for gzip,
// "br" for brotli, "zst" for zstandard).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "identity":
		return Identity, nil
	case "deflate":
		return Deflate, nil
	case "gzip", "x-gzip", "gz":
		return Gzip, nil
	case "br", "brotli":
		return Brotli, nil
	case "zstd", "zstandard", "zst":
		return Zstandard, nil
	default:
		return 0, werr.New(werr.UnsupportedCompressionFormat).WithSnippet([]byte(s))
	}
}

// SupportsConcatenation reports whether consecutive segments of this format
// can simply be placed back to back in the same stream (true for Gzip and
// Zstandard; Deflate/Brotli do not have a well-defined member boundary and
// Identity has no segments at all).
func (f Format) SupportsConcatenation() bool {
	return f == Gzip || f == Zstandard
}

// Level is a codec-independent compression level; encoderLevel (and
// zstdEncoderLevel for Zstandard) translates it to a codec-specific value.
type Level int

const (
	Balanced Level = iota
	High
	Low
)

// encoderLevel maps (format, level) to the codec-specific integer,
// mirroring chfoo/warcat-rs's compress.rs get_encoder_level table exactly.
func encoderLevel(format Format, level Level) int {
	switch format {
	case Identity:
		return 0
	case Deflate, Gzip:
		switch level {
		case High:
			return 9
		case Low:
			return 1
		default:
			return 6
		}
	case Brotli:
		switch level {
		case High:
			return 7
		case Low:
			return 0
		default:
			return 4
		}
	case Zstandard:
		switch level {
		case High:
			return 9
		case Low:
			return 1
		default:
			return 3
		}
	default:
		return 0
	}
}

// DictionaryKind identifies how a Zstandard dictionary is supplied.
type DictionaryKind int

const (
	NoDictionary DictionaryKind = iota
	// RawZstdDictionary is a detached dictionary the caller has out of band;
	// it is not embedded in the stream.
	RawZstdDictionary
	// WarcZstdDictionary is embedded in the stream as a leading skippable
	// frame, per spec.md §4.2.
	WarcZstdDictionary
)

// Dictionary configures zstd dictionary use for a Compressor/Decompressor.
type Dictionary struct {
	Kind  DictionaryKind
	Bytes []byte
}

// CompressorConfig configures a Compressor.
type CompressorConfig struct {
	Format     Format
	Level      Level
	Dictionary Dictionary
}

// DecompressorConfig configures a Decompressor.
type DecompressorConfig struct {
	Format     Format
	Dictionary Dictionary
}
