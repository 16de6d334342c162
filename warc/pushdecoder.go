package warc

import (
	"bytes"

	"github.com/chfoo/warcat-go/compress"
	"github.com/chfoo/warcat-go/fields"
	"github.com/chfoo/warcat-go/werr"
)

// pushState is the internal state of PushDecoder, a direct port of
// chfoo/warcat-rs's warc/decode.rs PushDecoderState enum.
type pushState int

const (
	statePendingHeader pushState = iota
	stateHeader
	stateBlock
	stateRecordBoundary
)

// EventKind identifies the kind of PushDecoderEvent returned by GetEvent.
type EventKind int

const (
	EventReady EventKind = iota
	EventWantData
	EventContinue
	EventHeader
	EventBlockData
	EventEndRecord
	EventFinished
)

// PushDecoderEvent is one event emitted by PushDecoder.GetEvent. Data
// references an internal buffer and is invalidated by the next call to
// GetEvent, per spec.md §4.5/§9 — callers that need to retain bytes past
// that call must copy them first.
type PushDecoderEvent struct {
	Kind   EventKind
	Header *Header
	Data   []byte
}

// PushDecoder is the sans-I/O mirror of the pull Decoder: bytes arrive via
// Write, and GetEvent is called repeatedly to drive the record-level state
// machine, emitting Header/BlockData/EndRecord events. Grounded line for
// line on chfoo/warcat-rs's warc/decode.rs PushDecoder.
type PushDecoder struct {
	config DecoderConfig

	state pushState

	decomp *compress.PushDecompressor

	// unusedInput mirrors unused_input_buf but is never filled: Write hands
	// bytes straight to decomp, which buffers the ones not yet consumed.
	unusedInput bytes.Buffer

	bytesConsumed          int64
	recordBoundaryPosition int64

	// outputBuf buffers decompressed bytes not yet classified as header or
	// block data.
	outputBuf bytes.Buffer

	maxBufferLen int

	blockLength  uint64
	blockRead    uint64

	eof bool

	hasRATCompressionFault bool
}

const defaultMaxBufferLen = 65536

// NewPushDecoder constructs a PushDecoder in the PendingHeader state.
func NewPushDecoder(config DecoderConfig) *PushDecoder {
	return &PushDecoder{
		config:       config,
		decomp:       compress.NewPushDecompressor(compress.DecompressorConfig{Format: config.Format, Dictionary: config.Dictionary}),
		maxBufferLen: defaultMaxBufferLen,
	}
}

// SetMaxBufferLen caps the slice length returned in BlockData events.
func (p *PushDecoder) SetMaxBufferLen(n int) {
	p.maxBufferLen = n
}

// Write feeds compressed (or, for Identity, raw) bytes into the decoder.
// On the first write from PendingHeader, the state transitions to Header.
func (p *PushDecoder) Write(data []byte) (int, error) {
	if p.state == statePendingHeader {
		p.state = stateHeader
	}
	n, err := p.decomp.Write(data)
	p.bytesConsumed += int64(n)
	return n, err
}

// WriteEOF marks the end of input. Subsequent GetEvent calls may still
// produce BlockData/EndRecord from buffered bytes before resolving to
// Finished.
func (p *PushDecoder) WriteEOF() {
	p.decomp.WriteEOF()
	p.eof = true
}

// Reset clears buffers and restarts the next decompression segment, for use
// after an external seek.
func (p *PushDecoder) Reset() {
	p.state = statePendingHeader
	p.decomp = compress.NewPushDecompressor(compress.DecompressorConfig{Format: p.config.Format, Dictionary: p.config.Dictionary})
	p.unusedInput.Reset()
	p.outputBuf.Reset()
	p.blockLength = 0
	p.blockRead = 0
}

// GetEvent advances the state machine and returns the next event.
func (p *PushDecoder) GetEvent() (PushDecoderEvent, error) {
	switch p.state {
	case statePendingHeader:
		if p.eof && p.outputBuf.Len() == 0 && !p.decomp.HasDataLeft() {
			return PushDecoderEvent{Kind: EventFinished}, nil
		}
		return PushDecoderEvent{Kind: EventReady}, nil
	case stateHeader:
		return p.processHeader()
	case stateBlock:
		return p.processBlock()
	case stateRecordBoundary:
		return p.processRecordBoundary()
	default:
		return PushDecoderEvent{Kind: EventFinished}, nil
	}
}

func (p *PushDecoder) fillOutput() error {
	var tmp [4096]byte
	n, err := p.decomp.Read(tmp[:])
	if n > 0 {
		p.outputBuf.Write(tmp[:n])
	}
	return err
}

func (p *PushDecoder) processHeader() (PushDecoderEvent, error) {
	if err := p.fillOutput(); err != nil {
		return PushDecoderEvent{}, err
	}

	buf := p.outputBuf.Bytes()

	if len(buf) >= 5 && string(buf[:5]) != "WARC/" {
		if err := classifyUnknownHeader(buf); werr.Is(err, werr.UnexpectedCompression) {
			return PushDecoderEvent{}, err
		}
	}

	if len(buf) > maxHeaderLength {
		return PushDecoderEvent{}, werr.New(werr.HeaderTooBig)
	}

	idx := fields.ScanDeliminator(buf)
	if idx < 0 {
		if p.eof && !p.decomp.HasDataLeft() {
			return PushDecoderEvent{Kind: EventFinished}, nil
		}
		return PushDecoderEvent{Kind: EventWantData}, nil
	}

	header, err := ParseHeader(buf[:idx])
	if err != nil {
		return PushDecoderEvent{}, err
	}
	p.outputBuf.Next(idx)

	contentLength, err := header.ContentLength()
	if err != nil {
		return PushDecoderEvent{}, err
	}

	p.blockLength = contentLength
	p.blockRead = 0
	p.state = stateBlock

	return PushDecoderEvent{Kind: EventHeader, Header: header}, nil
}

func (p *PushDecoder) processBlock() (PushDecoderEvent, error) {
	remaining := p.blockLength - p.blockRead
	if remaining == 0 {
		p.state = stateRecordBoundary
		return PushDecoderEvent{Kind: EventContinue}, nil
	}

	if p.outputBuf.Len() == 0 {
		if err := p.fillOutput(); err != nil {
			return PushDecoderEvent{}, err
		}
	}
	if p.outputBuf.Len() == 0 {
		if p.eof && !p.decomp.HasDataLeft() {
			return PushDecoderEvent{}, werr.New(werr.InvalidRecordBoundary)
		}
		return PushDecoderEvent{Kind: EventWantData}, nil
	}

	sliceLen := p.outputBuf.Len()
	if sliceLen > p.maxBufferLen {
		sliceLen = p.maxBufferLen
	}
	if uint64(sliceLen) > remaining {
		sliceLen = int(remaining)
	}

	data := p.outputBuf.Next(sliceLen)
	p.blockRead += uint64(sliceLen)

	return PushDecoderEvent{Kind: EventBlockData, Data: data}, nil
}

func (p *PushDecoder) processRecordBoundary() (PushDecoderEvent, error) {
	if p.outputBuf.Len() < 4 {
		if err := p.fillOutput(); err != nil {
			return PushDecoderEvent{}, err
		}
	}
	if p.outputBuf.Len() < 4 {
		if p.eof && !p.decomp.HasDataLeft() {
			return PushDecoderEvent{}, werr.New(werr.InvalidRecordBoundary)
		}
		return PushDecoderEvent{Kind: EventWantData}, nil
	}

	boundary := p.outputBuf.Next(4)
	if string(boundary) != "\r\n\r\n" {
		return PushDecoderEvent{}, werr.New(werr.InvalidRecordBoundary).WithSnippet(boundary)
	}

	p.recordBoundaryPosition = p.bytesConsumed
	p.resetForNextRecord()

	return PushDecoderEvent{Kind: EventEndRecord}, nil
}

// resetForNextRecord mirrors chfoo/warcat-rs's reset_for_next_record: if
// the format supports concatenation and decompressed bytes of the current
// segment are still buffered, the segment straddles the record boundary,
// which is recorded as a record-at-time compression fault. Otherwise, if
// more compressed bytes remain unconsumed, that's another segment following
// cleanly, so start it. No bytes left is simply the end of the stream, not
// a fault. Then decide whether enough is already buffered to go straight to
// Header, or whether the machine must wait in PendingHeader for more bytes.
func (p *PushDecoder) resetForNextRecord() {
	if p.config.Format.SupportsConcatenation() {
		if p.outputBuf.Len() > 0 {
			p.hasRATCompressionFault = true
		} else if p.decomp.HasDataLeft() {
			p.decomp.StartNextSegment()
		}
	}

	if p.outputBuf.Len() > 0 || p.decomp.HasDataLeft() {
		p.state = stateHeader
	} else {
		p.state = statePendingHeader
	}
}

// HasRecordAtTimeCompressionFault reports whether the decoder has observed
// compressed data straddling a record boundary.
func (p *PushDecoder) HasRecordAtTimeCompressionFault() bool {
	return p.hasRATCompressionFault
}

// RecordBoundaryPosition returns the position of the most recently closed
// record's first byte.
func (p *PushDecoder) RecordBoundaryPosition() int64 {
	return p.recordBoundaryPosition
}
