package warc

import (
	"bytes"
	"io"
	"testing"

	"github.com/chfoo/warcat-go/compress"
)

const twoRecordIdentity = "WARC/1.1\r\nContent-Length: 12\r\n\r\nHello world!\r\n\r\n" +
	"WARC/1.1\r\nContent-Length: 0\r\n\r\n\r\n\r\n"

func TestPullDecoderTwoRecords(t *testing.T) {
	dh, err := NewDecoder(bytes.NewReader([]byte(twoRecordIdentity)), DecoderConfig{Format: compress.Identity})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	if !dh.HasNextRecord() {
		t.Fatal("expected a first record")
	}
	h1, block1, err := dh.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader 1: %v", err)
	}
	cl1, err := h1.ContentLength()
	if err != nil || cl1 != 12 {
		t.Fatalf("content length 1 = %d, %v", cl1, err)
	}
	data1, err := io.ReadAll(block1)
	if err != nil {
		t.Fatalf("ReadAll block1: %v", err)
	}
	if string(data1) != "Hello world!" {
		t.Fatalf("block1 = %q", data1)
	}
	dh2, err := block1.FinishBlock()
	if err != nil {
		t.Fatalf("FinishBlock 1: %v", err)
	}

	if !dh2.HasNextRecord() {
		t.Fatal("expected a second record")
	}
	h2, block2, err := dh2.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader 2: %v", err)
	}
	cl2, err := h2.ContentLength()
	if err != nil || cl2 != 0 {
		t.Fatalf("content length 2 = %d, %v", cl2, err)
	}
	data2, err := io.ReadAll(block2)
	if err != nil {
		t.Fatalf("ReadAll block2: %v", err)
	}
	if len(data2) != 0 {
		t.Fatalf("block2 = %q, want empty", data2)
	}
	dh3, err := block2.FinishBlock()
	if err != nil {
		t.Fatalf("FinishBlock 2: %v", err)
	}

	if dh3.HasNextRecord() {
		t.Fatal("expected no more records")
	}
}

func feedInChunks(t *testing.T, p *PushDecoder, data []byte, chunkSize int) []PushDecoderEvent {
	t.Helper()
	var events []PushDecoderEvent
	i := 0
	for i < len(data) {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := p.Write(data[i:end]); err != nil {
			t.Fatalf("Write: %v", err)
		}
		i = end

		for {
			ev, err := p.GetEvent()
			if err != nil {
				t.Fatalf("GetEvent: %v", err)
			}
			// Data is only valid until the next GetEvent call.
			ev.Data = append([]byte(nil), ev.Data...)
			events = append(events, ev)
			if ev.Kind == EventWantData || ev.Kind == EventReady {
				break
			}
		}
	}
	p.WriteEOF()
	for {
		ev, err := p.GetEvent()
		if err != nil {
			t.Fatalf("GetEvent (eof): %v", err)
		}
		ev.Data = append([]byte(nil), ev.Data...)
		events = append(events, ev)
		if ev.Kind == EventFinished {
			break
		}
	}
	return events
}

func TestPushDecoderPartialFeed(t *testing.T) {
	for chunkSize := 1; chunkSize <= 7; chunkSize++ {
		p := NewPushDecoder(DecoderConfig{Format: compress.Identity})
		events := feedInChunks(t, p, []byte(twoRecordIdentity), chunkSize)

		var headers int
		var blockBytes []byte
		var endRecords int
		for _, ev := range events {
			switch ev.Kind {
			case EventHeader:
				headers++
			case EventBlockData:
				blockBytes = append(blockBytes, ev.Data...)
			case EventEndRecord:
				endRecords++
			}
		}
		if headers != 2 {
			t.Fatalf("chunkSize=%d: got %d headers, want 2", chunkSize, headers)
		}
		if endRecords != 2 {
			t.Fatalf("chunkSize=%d: got %d EndRecord events, want 2", chunkSize, endRecords)
		}
		if string(blockBytes) != "Hello world!" {
			t.Fatalf("chunkSize=%d: block bytes = %q", chunkSize, blockBytes)
		}
		if events[len(events)-1].Kind != EventFinished {
			t.Fatalf("chunkSize=%d: last event = %v, want Finished", chunkSize, events[len(events)-1].Kind)
		}
	}
}

func TestWriterContentLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	eh, err := NewEncoder(&buf, EncoderConfig{Format: compress.Identity})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	h := NewHeader(12, "resource")
	eb, err := eh.WriteHeader(h)
	if err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := eb.Write([]byte("short")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := eb.FinishBlock(); err == nil {
		t.Fatal("expected ContentLengthMismatch, got nil")
	}
}

func TestWriterZeroLengthBlockWritesBoundaryImmediately(t *testing.T) {
	var buf bytes.Buffer
	eh, err := NewEncoder(&buf, EncoderConfig{Format: compress.Identity})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	h := NewHeader(0, "resource")
	eb, err := eh.WriteHeader(h)
	if err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	eh2, err := eb.FinishBlock()
	if err != nil {
		t.Fatalf("FinishBlock: %v", err)
	}
	if _, err := eh2.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// The header ends with its own empty line; the record boundary follows.
	if !bytes.HasSuffix(buf.Bytes(), []byte("\r\n\r\n\r\n\r\n")) {
		t.Fatalf("expected trailing boundary, got %q", buf.Bytes())
	}
}

func TestEncodeDecodeRoundTripIdentity(t *testing.T) {
	var buf bytes.Buffer
	eh, err := NewEncoder(&buf, EncoderConfig{Format: compress.Identity})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	h := NewHeader(5, "resource")
	eb, err := eh.WriteHeader(h)
	if err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := eb.Write([]byte("Hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	eh2, err := eb.FinishBlock()
	if err != nil {
		t.Fatalf("FinishBlock: %v", err)
	}
	if _, err := eh2.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dh, err := NewDecoder(bytes.NewReader(buf.Bytes()), DecoderConfig{Format: compress.Identity})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	gotHeader, block, err := dh.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	gotLen, _ := gotHeader.ContentLength()
	if gotLen != 5 {
		t.Fatalf("content length = %d, want 5", gotLen)
	}
	data, err := io.ReadAll(block)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "Hello" {
		t.Fatalf("block = %q, want Hello", data)
	}
}
