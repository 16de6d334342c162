package verify

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/chfoo/warcat-go/compress"
	"github.com/chfoo/warcat-go/verify/kvstore"
	"github.com/chfoo/warcat-go/warc"
)

// runVerifier drives every record in raw through BeginRecord/BlockData/
// EndRecord against a fresh Verifier backed by store, then runs VerifyEnd
// to completion, and returns the accumulated Problems.
func runVerifier(t *testing.T, store kvstore.Store, raw []byte) []Problem {
	t.Helper()

	dec, err := warc.NewDecoder(bytes.NewReader(raw), warc.DecoderConfig{Format: compress.Identity})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	v := New(store)

	header := dec
	for header.HasNextRecord() {
		h, block, err := header.ReadHeader()
		if err != nil {
			t.Fatalf("ReadHeader: %v", err)
		}
		if err := v.BeginRecord(h); err != nil {
			t.Fatalf("BeginRecord: %v", err)
		}

		buf := make([]byte, 4096)
		for {
			n, err := block.Read(buf)
			if n > 0 {
				v.BlockData(buf[:n])
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("block Read: %v", err)
			}
		}
		if err := v.EndRecord(); err != nil {
			t.Fatalf("EndRecord: %v", err)
		}

		next, err := block.FinishBlock()
		if err != nil {
			t.Fatalf("FinishBlock: %v", err)
		}
		header = next
	}

	for {
		more, err := v.VerifyEnd()
		if err != nil {
			t.Fatalf("VerifyEnd: %v", err)
		}
		if !more {
			break
		}
	}

	return v.Problems()
}

func hasProblem(problems []Problem, kind ProblemKind) bool {
	for _, p := range problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

// TestDigestMismatch is spec.md §8 scenario 5: a record claiming
// WARC-Block-Digest: sha1:AAAA... over a block whose actual sha1 doesn't
// match must yield a DigestMismatch Problem.
func TestDigestMismatch(t *testing.T) {
	raw := crlf("WARC/1.1\n" +
		"WARC-Record-ID: <urn:uuid:00000000-0000-0000-0000-000000000001>\n" +
		"WARC-Type: resource\n" +
		"WARC-Date: 2020-01-01T00:00:00Z\n" +
		"WARC-Target-URI: http://example.com/\n" +
		"WARC-Block-Digest: sha1:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\n" +
		"Content-Length: 5\n" +
		"\n" +
		"Hello" +
		"\n\n")

	problems := runVerifier(t, kvstore.NewMemory(), raw)
	if !hasProblem(problems, DigestMismatch) {
		t.Fatalf("expected DigestMismatch, got %+v", problems)
	}
}

// segmentScenario builds spec.md §8 scenario 6: a first segment record
// (3-byte block) followed by a continuation claiming WARC-Segment-Number
// 3 of a declared 7-byte total, with a blockLen-byte block.
func segmentScenario(blockLen int) []byte {
	block2 := strings.Repeat("x", blockLen)
	raw := "WARC/1.1\n" +
		"WARC-Record-ID: <urn:uuid:00000000-0000-0000-0000-00000000000a>\n" +
		"WARC-Type: resource\n" +
		"WARC-Date: 2020-01-01T00:00:00Z\n" +
		"WARC-Target-URI: http://example.com/\n" +
		"WARC-Segment-Number: 1\n" +
		"Content-Length: 3\n" +
		"\n" +
		"abc" +
		"\n\n" +
		"WARC/1.1\n" +
		"WARC-Record-ID: <urn:uuid:00000000-0000-0000-0000-00000000000b>\n" +
		"WARC-Type: continuation\n" +
		"WARC-Date: 2020-01-01T00:00:01Z\n" +
		"WARC-Segment-Origin-ID: <urn:uuid:00000000-0000-0000-0000-00000000000a>\n" +
		"WARC-Segment-Number: 3\n" +
		"WARC-Segment-Total-Length: 7\n" +
		"Content-Length: " + itoa(blockLen) + "\n" +
		"\n" +
		block2 +
		"\n\n"
	return crlf(raw)
}

func itoa(n int) string {
	return uintString(uint64(n))
}

func TestSegmentMissingSegmentNumber(t *testing.T) {
	problems := runVerifier(t, kvstore.NewMemory(), segmentScenario(4))
	if !hasProblem(problems, MissingSegment) {
		t.Fatalf("expected MissingSegment, got %+v", problems)
	}
	if hasProblem(problems, MismatchedSegmentLength) {
		t.Fatalf("did not expect MismatchedSegmentLength (3+4=7 matches declared total), got %+v", problems)
	}
}

func TestSegmentMismatchedLength(t *testing.T) {
	// Dropping the second record's last byte makes the actual sum 3+3=6,
	// which no longer matches the declared total of 7.
	problems := runVerifier(t, kvstore.NewMemory(), segmentScenario(3))
	if !hasProblem(problems, MismatchedSegmentLength) {
		t.Fatalf("expected MismatchedSegmentLength, got %+v", problems)
	}
}

// TestVerifierMemoryLevelDBParity is SPEC_FULL.md §8's supplemental
// property: both kvstore backends must produce the same number of Problems,
// with the same kinds in the same order, for the same input.
func TestVerifierMemoryLevelDBParity(t *testing.T) {
	raw := segmentScenario(4)

	mem := runVerifier(t, kvstore.NewMemory(), raw)

	dir := t.TempDir()
	ldb, err := kvstore.OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("OpenLevelDB: %v", err)
	}
	defer ldb.Close()

	disk := runVerifier(t, ldb, raw)

	if len(mem) != len(disk) {
		t.Fatalf("problem count differs: memory=%d leveldb=%d", len(mem), len(disk))
	}
	for i := range mem {
		if mem[i].Kind != disk[i].Kind {
			t.Fatalf("problem %d kind differs: memory=%v leveldb=%v", i, mem[i].Kind, disk[i].Kind)
		}
	}
}

func TestMandatoryFieldMissing(t *testing.T) {
	raw := crlf("WARC/1.1\n" +
		"WARC-Type: resource\n" +
		"WARC-Date: 2020-01-01T00:00:00Z\n" +
		"WARC-Target-URI: http://example.com/\n" +
		"Content-Length: 0\n" +
		"\n" +
		"\n\n")

	problems := runVerifier(t, kvstore.NewMemory(), raw)
	if !hasProblem(problems, MandatoryFieldMissing) {
		t.Fatalf("expected MandatoryFieldMissing (WARC-Record-ID), got %+v", problems)
	}
}

func TestUnknownRecordType(t *testing.T) {
	raw := crlf("WARC/1.1\n" +
		"WARC-Record-ID: <urn:uuid:00000000-0000-0000-0000-000000000002>\n" +
		"WARC-Type: bogus\n" +
		"WARC-Date: 2020-01-01T00:00:00Z\n" +
		"Content-Length: 0\n" +
		"\n" +
		"\n\n")

	problems := runVerifier(t, kvstore.NewMemory(), raw)
	if !hasProblem(problems, UnknownRecordType) {
		t.Fatalf("expected UnknownRecordType, got %+v", problems)
	}
}

func TestReferencedRecordMissing(t *testing.T) {
	raw := crlf("WARC/1.1\n" +
		"WARC-Record-ID: <urn:uuid:00000000-0000-0000-0000-000000000003>\n" +
		"WARC-Type: metadata\n" +
		"WARC-Date: 2020-01-01T00:00:00Z\n" +
		"WARC-Refers-To: <urn:uuid:00000000-0000-0000-0000-0000000000ff>\n" +
		"Content-Length: 0\n" +
		"\n" +
		"\n\n")

	problems := runVerifier(t, kvstore.NewMemory(), raw)
	if !hasProblem(problems, ReferencedRecordMissing) {
		t.Fatalf("expected ReferencedRecordMissing, got %+v", problems)
	}
}
