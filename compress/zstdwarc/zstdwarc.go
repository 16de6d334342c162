// Package zstdwarc implements the WARC zstd embedded-dictionary protocol by
// hand: a skippable zstd frame, magic 0x184D2A5D, that precedes the first
// record and carries a dictionary (optionally itself zstd-compressed).
// Grounded on chfoo/warcat-rs's src/compress/zstd.rs; no library in the
// retrieval pack or the wider Go ecosystem implements this WARC-specific
// framing, so it is built directly on klauspost/compress/zstd's bulk
// decompression function.
package zstdwarc

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/chfoo/warcat-go/werr"
)

const (
	// WarcDictFrameMagic is the skippable frame magic this package writes
	// and recognizes for the embedded WARC dictionary.
	WarcDictFrameMagic uint32 = 0x184D2A5D
	// ZstdFrameMagic is the ordinary zstd frame magic, used to detect
	// whether a dictionary payload is itself zstd-compressed.
	ZstdFrameMagic uint32 = 0xFD2FB528

	// skippableFrameMagicLow and skippableFrameMagicHigh bound the range of
	// valid skippable frame magics (0x184D2A50..=0x184D2A5F).
	skippableFrameMagicLow  uint32 = 0x184D2A50
	skippableFrameMagicHigh uint32 = 0x184D2A5F

	// BulkBufferLength bounds both the raw dictionary payload size and the
	// bulk-decompressed output size, at 16 MiB, per spec.md §4.2/§5.
	BulkBufferLength = 16 * 1024 * 1024
)

// IsSkippableFrameMagic reports whether magic is any zstd skippable frame,
// not just the WARC dictionary one.
func IsSkippableFrameMagic(magic uint32) bool {
	return magic >= skippableFrameMagicLow && magic <= skippableFrameMagicHigh
}

// WriteDictionaryFrame writes the skippable WARC dictionary frame containing
// dict to w: magic, a little-endian 4-byte length, then the payload
// verbatim (this package never compresses the dictionary it writes; it only
// needs to be able to read one that some other encoder compressed).
func WriteDictionaryFrame(w io.Writer, dict []byte) error {
	if len(dict) > BulkBufferLength {
		return werr.New(werr.UnsupportedCompressionFormat).WithSnippet([]byte("dictionary too large"))
	}
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], WarcDictFrameMagic)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(dict)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(dict)
	return err
}

// ReadDictionaryFrame reads a skippable frame's 8-byte header and payload
// from r, which must be positioned at the start of the frame (the caller is
// expected to have already peeked the frame's magic and confirmed that this
// is the WARC dictionary frame). If the payload itself begins with the zstd frame
// magic, it is bulk-decompressed (bounded to BulkBufferLength) before being
// returned.
//
// TODO: decoding a dictionary frame that appears after the current read
// position (rather than at the start of the stream) requires seeking back
// to it before resuming decode of the record at the original offset; this
// only works on a seekable source and is not implemented.
func ReadDictionaryFrame(r io.Reader) ([]byte, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != WarcDictFrameMagic {
		return nil, werr.New(werr.UnexpectedCompression).WithSnippet([]byte("not a WARC dictionary frame"))
	}
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > BulkBufferLength {
		return nil, werr.New(werr.UnsupportedCompressionFormat).WithSnippet([]byte("dictionary frame too large"))
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	if len(payload) >= 4 && binary.LittleEndian.Uint32(payload[:4]) == ZstdFrameMagic {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		out, err := decoder.DecodeAll(payload, make([]byte, 0, len(payload)))
		if err != nil {
			return nil, err
		}
		if len(out) > BulkBufferLength {
			return nil, werr.New(werr.UnsupportedCompressionFormat).WithSnippet([]byte("decompressed dictionary too large"))
		}
		return out, nil
	}

	return payload, nil
}

// SkipOtherFrame consumes and discards a non-dictionary skippable frame's
// payload, given its already-read 8-byte header.
func SkipOtherFrame(r io.Reader, length uint32) error {
	_, err := io.CopyN(io.Discard, r, int64(length))
	return err
}
