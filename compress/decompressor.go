package compress

import (
	"bufio"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/chfoo/warcat-go/compress/zstdwarc"
	"github.com/chfoo/warcat-go/werr"
)

// Decompressor is a read-side pull decoder over a buffered source. It
// mirrors Compressor: StartNextSegment opens the next concatenated segment
// (gzip member / zstd frame), and HasDataLeft peeks whether bytes beyond the
// current segment remain in the source, the signal the WARC decoder uses to
// decide whether to start the next segment at a record boundary.
type Decompressor struct {
	config DecompressorConfig
	src    *bufio.Reader

	flateR io.ReadCloser // deflate, and the per-member body codec for gzip

	brotliR io.Reader

	zstdR       *zstd.Decoder
	zstdOptions []zstd.DOption

	dictionaryInstalled bool
}

// NewDecompressor constructs a Decompressor reading from src per config. If
// config.Format is Zstandard and the stream opens with the WARC dictionary
// skippable frame, it is consumed and installed before the first real zstd
// frame is opened.
func NewDecompressor(src io.Reader, config DecompressorConfig) (*Decompressor, error) {
	d := &Decompressor{config: config, src: bufio.NewReaderSize(src, 4096)}

	if config.Format == Zstandard && config.Dictionary.Kind != NoDictionary {
		d.zstdOptions = append(d.zstdOptions, zstd.WithDecoderDicts(config.Dictionary.Bytes))
	}

	if config.Format == Zstandard {
		if err := d.detectDictionaryFrame(); err != nil {
			return nil, err
		}
	}

	if err := d.openSegment(); err != nil {
		return nil, err
	}
	return d, nil
}

// detectDictionaryFrame classifies the leading frame by magic, per
// spec.md §4.2: a WARC dictionary skippable frame installs its payload as
// the decoder dictionary; any other skippable frame is consumed and
// ignored; an ordinary zstd frame is left untouched for openSegment.
func (d *Decompressor) detectDictionaryFrame() error {
	peeked, err := d.src.Peek(4)
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	magic := binary.LittleEndian.Uint32(peeked)

	if magic == zstdwarc.WarcDictFrameMagic {
		dict, err := zstdwarc.ReadDictionaryFrame(d.src)
		if err != nil {
			return err
		}
		d.zstdOptions = append(d.zstdOptions, zstd.WithDecoderDicts(dict))
		d.dictionaryInstalled = true
		return nil
	}
	if zstdwarc.IsSkippableFrameMagic(magic) {
		var header [8]byte
		if _, err := io.ReadFull(d.src, header[:]); err != nil {
			return err
		}
		length := binary.LittleEndian.Uint32(header[4:8])
		return zstdwarc.SkipOtherFrame(d.src, length)
	}
	return nil
}

func (d *Decompressor) openSegment() error {
	switch d.config.Format {
	case Identity:
	case Deflate:
		if d.flateR == nil {
			d.flateR = flate.NewReader(d.src)
		}
	case Gzip:
		var header [10]byte
		if _, err := io.ReadFull(d.src, header[:]); err != nil {
			return err
		}
		if header[0] != gzipID1 || header[1] != gzipID2 {
			return werr.New(werr.UnexpectedCompression).WithSnippet(header[:])
		}
		d.flateR = flate.NewReader(d.src)
	case Brotli:
		if d.brotliR == nil {
			d.brotliR = brotli.NewReader(d.src)
		}
	case Zstandard:
		r, err := zstd.NewReader(d.src, d.zstdOptions...)
		if err != nil {
			return err
		}
		d.zstdR = r
	}
	return nil
}

// Read decompresses from the current segment.
func (d *Decompressor) Read(p []byte) (int, error) {
	switch d.config.Format {
	case Identity:
		return d.src.Read(p)
	case Deflate, Gzip:
		return d.flateR.Read(p)
	case Brotli:
		return d.brotliR.Read(p)
	case Zstandard:
		return d.zstdR.Read(p)
	default:
		return 0, io.EOF
	}
}

func (d *Decompressor) closeSegment() error {
	switch d.config.Format {
	case Gzip:
		if err := d.flateR.Close(); err != nil {
			return err
		}
		var trailer [8]byte
		_, err := io.ReadFull(d.src, trailer[:])
		return err
	case Zstandard:
		d.zstdR.Close()
	}
	return nil
}

// StartNextSegment closes the current segment and opens the next one, for
// codecs that support concatenation. It is a no-op for Identity, Deflate,
// and Brotli.
//
// TODO: a record whose block spans more than one zstd frame (observed in
// the wild, though non-conformant) is not handled — this always treats
// the record boundary as coinciding with the segment boundary.
func (d *Decompressor) StartNextSegment() error {
	if !d.config.Format.SupportsConcatenation() {
		return nil
	}
	if err := d.closeSegment(); err != nil {
		return err
	}
	return d.openSegment()
}

// HasDataLeft peeks whether any bytes remain in the source buffer, without
// consuming them. For Gzip the current member's 8-byte trailer, which is
// only read when the next segment starts, does not count. The WARC decoder
// calls StartNextSegment at a record boundary when this reports true.
func (d *Decompressor) HasDataLeft() bool {
	n := 1
	if d.config.Format == Gzip {
		n = 9
	}
	_, err := d.src.Peek(n)
	return err == nil
}
