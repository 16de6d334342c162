package compress

import (
	"bytes"
	"errors"
	"io"
)

// errNeedData is returned by pendingReader.Read when its buffer is
// exhausted but EOF has not been declared yet. It is never returned to a
// PushDecompressor caller; Read translates it into (0, nil), the "no bytes
// produced yet, try writing more input" signal sans-I/O callers expect.
var errNeedData = errors.New("compress: need more input")

// pendingReader is the blocking-reader adapter that lets a pull-style
// Decompressor be driven in a push (sans-I/O) manner: bytes arrive via
// Write, and Read on the underlying codec blocks only as long as the
// buffer actually has nothing left and EOF has not been declared, at which
// point it reports errNeedData instead of blocking or returning false EOF.
type pendingReader struct {
	buf bytes.Buffer
	eof bool
}

func (p *pendingReader) Read(b []byte) (int, error) {
	if p.buf.Len() == 0 {
		if p.eof {
			return 0, io.EOF
		}
		return 0, errNeedData
	}
	return p.buf.Read(b)
}

func (p *pendingReader) Write(b []byte) (int, error) {
	return p.buf.Write(b)
}

func (p *pendingReader) setEOF() {
	p.eof = true
}

// PushDecompressor is the sans-I/O, write-side counterpart to Decompressor:
// compressed bytes arrive via Write and decompressed bytes are retrieved via
// Read, which returns (0, nil) — not an error — when more input is needed
// before any output can be produced. This is the component
// warc.PushDecoder's internal FIFO buffer is layered on top of.
//
// Rather than a streaming push API of the codecs, this implementation runs
// the pull Decompressor over an in-memory buffer of the written input and
// decodes whatever that buffer holds at each Read; it does not wait for a
// whole segment to arrive.
type PushDecompressor struct {
	config DecompressorConfig
	input  *pendingReader
	pull   *Decompressor
	opened bool
}

// NewPushDecompressor constructs a PushDecompressor. The underlying pull
// Decompressor is not opened until enough bytes have been written to
// classify the first segment (and, for zstd, the optional leading
// dictionary frame).
func NewPushDecompressor(config DecompressorConfig) *PushDecompressor {
	return &PushDecompressor{config: config, input: &pendingReader{}}
}

// Write buffers compressed bytes for later decompression.
func (p *PushDecompressor) Write(data []byte) (int, error) {
	return p.input.Write(data)
}

// WriteEOF marks the end of input; after all buffered bytes are drained,
// subsequent Read calls return io.EOF.
func (p *PushDecompressor) WriteEOF() {
	p.input.setEOF()
}

// Read decompresses as much as the currently buffered input allows. It
// returns (0, nil) when no output bytes could yet be produced and more
// input is required; callers should treat that exactly like spec.md's
// WantData event.
func (p *PushDecompressor) Read(out []byte) (int, error) {
	if !p.opened {
		pull, err := NewDecompressor(p.input, p.config)
		if err != nil {
			if err == errNeedData {
				return 0, nil
			}
			return 0, err
		}
		p.pull = pull
		p.opened = true
	}

	n, err := p.pull.Read(out)
	if err != nil {
		if errorsIs(err, errNeedData) {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

// StartNextSegment opens the next concatenated segment once the current one
// is exhausted, mirroring Decompressor.StartNextSegment.
func (p *PushDecompressor) StartNextSegment() error {
	if p.pull == nil {
		return nil
	}
	return p.pull.StartNextSegment()
}

// HasDataLeft reports whether buffered compressed bytes remain unconsumed.
func (p *PushDecompressor) HasDataLeft() bool {
	return p.input.buf.Len() > 0
}

func errorsIs(err, target error) bool {
	return err == target
}
