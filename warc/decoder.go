package warc

import (
	"io"

	"github.com/chfoo/warcat-go/compress"
	"github.com/chfoo/warcat-go/fields"
	"github.com/chfoo/warcat-go/ioutil"
	"github.com/chfoo/warcat-go/werr"
)

// DecoderConfig configures a Decoder's compression layer.
type DecoderConfig struct {
	Format     compress.Format
	Dictionary compress.Dictionary
}

// decoderCore holds the state shared by both typestates of the pull
// decoder. Header<->Block transitions are modeled as two distinct Go
// struct types (DecoderHeader, DecoderBlock) sharing this core and
// transferring ownership of it between each other on every state change,
// per spec.md §9's typestate design note — Go has no phantom types, so the
// state lives in which struct type currently owns *decoderCore.
type decoderCore struct {
	config DecoderConfig

	raw   *ioutil.BufferReader
	comp  *compress.Decompressor
	bufR  *ioutil.BufferReader // wraps comp; its LogicalPosition is the decompressed position

	recordBoundaryPosition int64
	hasRATCompressionFault bool
}

// DecoderHeader is a Decoder positioned to read the next record's header.
type DecoderHeader struct {
	core *decoderCore
}

// DecoderBlock is a Decoder positioned to stream a record's block bytes.
type DecoderBlock struct {
	core          *decoderCore
	remainingLen  uint64
}

// NewDecoder constructs a pull decoder over source in the Header typestate.
func NewDecoder(source io.Reader, config DecoderConfig) (*DecoderHeader, error) {
	raw := ioutil.NewBufferReader(source)
	comp, err := compress.NewDecompressor(raw, compress.DecompressorConfig{
		Format:     config.Format,
		Dictionary: config.Dictionary,
	})
	if err != nil {
		return nil, err
	}
	core := &decoderCore{
		config: config,
		raw:    raw,
		comp:   comp,
		bufR:   ioutil.NewBufferReader(comp),
	}
	return &DecoderHeader{core: core}, nil
}

// position returns record_boundary_position per spec.md §4.4: the raw
// (compressed) stream position for compressed formats, the decompressed
// stream position for Identity (where the two coincide anyway).
func (c *decoderCore) position() int64 {
	if c.config.Format == compress.Identity {
		return c.bufR.LogicalPosition()
	}
	return c.raw.LogicalPosition()
}

// HasNextRecord reports whether the logical stream has more data, buffered
// or not yet fetched from the underlying source.
func (h *DecoderHeader) HasNextRecord() bool {
	peeked, err := h.core.bufR.Peek(1)
	return err == nil && len(peeked) > 0
}

// RecordBoundaryPosition returns the position of the current record's
// first byte.
func (h *DecoderHeader) RecordBoundaryPosition() int64 {
	return h.core.recordBoundaryPosition
}

// ReadHeader reads and parses the next record header, returning the parsed
// Header and a DecoderBlock positioned to stream its block.
func (h *DecoderHeader) ReadHeader() (*Header, *DecoderBlock, error) {
	core := h.core
	core.recordBoundaryPosition = core.position()

	if prefix, _ := core.bufR.Peek(5); string(prefix) != "WARC/" {
		if err := classifyUnknownHeader(prefix); werr.Is(err, werr.UnexpectedCompression) {
			return nil, nil, err
		}
	}

	var buf []byte
	for {
		peeked, _ := core.bufR.Peek(len(buf) + 4096)
		if len(peeked) == len(buf) {
			// No more bytes arrived: the source is exhausted before a
			// complete header was seen.
			return nil, nil, werr.New(werr.Syntax).WithSnippet(buf)
		}
		buf = append(buf[:0], peeked...)

		if len(buf) > maxHeaderLength {
			return nil, nil, werr.New(werr.HeaderTooBig)
		}

		if idx := fields.ScanDeliminator(buf); idx >= 0 {
			header, perr := ParseHeader(buf[:idx])
			if perr != nil {
				return nil, nil, perr
			}
			core.bufR.Consume(idx)

			contentLength, lerr := header.ContentLength()
			if lerr != nil {
				return nil, nil, lerr
			}

			return header, &DecoderBlock{core: core, remainingLen: contentLength}, nil
		}
	}
}

// Read streams block bytes, never returning more than the remaining
// declared Content-Length.
func (b *DecoderBlock) Read(p []byte) (int, error) {
	if b.remainingLen == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > b.remainingLen {
		p = p[:b.remainingLen]
	}
	n, err := b.core.bufR.Read(p)
	b.remainingLen -= uint64(n)
	return n, err
}

// FinishBlock drains any unread remainder, consumes the mandatory
// "\r\n\r\n" boundary, and transitions back to the Header typestate. It
// fails with InvalidRecordBoundary when the boundary bytes differ.
func (b *DecoderBlock) FinishBlock() (*DecoderHeader, error) {
	if _, err := io.Copy(io.Discard, b); err != nil {
		return nil, err
	}

	boundary, err := b.core.bufR.Peek(4)
	if err != nil || len(boundary) < 4 || string(boundary) != "\r\n\r\n" {
		return nil, werr.New(werr.InvalidRecordBoundary).WithSnippet(boundary)
	}
	b.core.bufR.Consume(4)

	b.core.recordBoundaryPosition = b.core.position()

	if b.core.config.Format.SupportsConcatenation() {
		if len(b.core.bufR.Buffered()) > 0 {
			// Decompressed bytes of the current segment remain past the
			// boundary: the segment straddles the record boundary.
			b.core.hasRATCompressionFault = true
		} else if b.core.comp.HasDataLeft() {
			if err := b.core.comp.StartNextSegment(); err != nil {
				return nil, err
			}
		}
	}

	return &DecoderHeader{core: b.core}, nil
}

// HasRecordAtTimeCompressionFault reports whether the decoder has observed
// compressed data straddling a record boundary instead of cleanly starting
// a fresh segment — the non-fatal fault spec.md §3/§4.2 describes. It is
// set when decompressed bytes are still buffered after a record boundary;
// decoding then continues in the same segment.
func (h *DecoderHeader) HasRecordAtTimeCompressionFault() bool {
	return h.core.hasRATCompressionFault
}
