package verify

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/chfoo/warcat-go/digest"
	"github.com/chfoo/warcat-go/http1"
	"github.com/chfoo/warcat-go/verify/kvstore"
	"github.com/chfoo/warcat-go/warc"
)

// verifyEndBatchSize is how many id_references / segment_lengths entries
// verify_end processes per call before returning control to the caller,
// per spec.md §5/§9's "bounded-work batches... every ~1024 entries" note.
const verifyEndBatchSize = 1024

// Verifier maintains a set of enabled checks and accumulates Problems as
// records stream through begin_record/block_data/end_record, then runs
// deferred cross-record checks in bounded batches via VerifyEnd.
type Verifier struct {
	store    kvstore.Store
	enabled  map[Check]bool
	problems []Problem

	// per-record transient state, reset by BeginRecord
	header          *warc.Header
	recordID        string
	warcType        string
	blockHashers    *digest.MultiHasher
	expectedBlock   *digest.Digest
	expectPayload   bool
	expectedPayload *digest.Digest
	blockBuf        bytes.Buffer
	blockLength     uint64

	pendingSegmentOrigin string
	pendingSegmentNumber uint64

	// verify_end cursors
	refSnapshot []refEntry
	lenSnapshot []lenEntry
	refCursor   int
	lenCursor   int
	refDone     bool
	lenDone     bool
}

// New constructs a Verifier with every check enabled, backed by store.
func New(store kvstore.Store) *Verifier {
	enabled := make(map[Check]bool, len(allChecks))
	for _, c := range allChecks {
		enabled[c] = true
	}
	return &Verifier{store: store, enabled: enabled}
}

// SetCheck enables or disables a single check.
func (v *Verifier) SetCheck(c Check, on bool) {
	v.enabled[c] = on
}

// Problems returns every Problem accumulated so far.
func (v *Verifier) Problems() []Problem {
	return v.problems
}

func (v *Verifier) report(kind ProblemKind, detail map[string]string) {
	v.problems = append(v.problems, Problem{RecordID: v.recordID, Kind: kind, Detail: detail})
}

// BeginRecord runs all header-local checks and records this record's ID,
// queuing any cross-record implications (WARC-Concurrent-To,
// WARC-Refers-To, WARC-Segment-*) into the kvstore for VerifyEnd.
func (v *Verifier) BeginRecord(header *warc.Header) error {
	v.header = header
	v.recordID, _ = header.RecordID()
	v.warcType, _ = header.Type()
	v.blockHashers = nil
	v.expectedBlock = nil
	v.expectPayload = false
	v.expectedPayload = nil
	v.blockBuf.Reset()
	v.blockLength = 0

	if v.enabled[MandatoryFields] {
		v.checkMandatoryFields(header)
	}
	if v.enabled[KnownRecordType] && v.warcType != "" && !knownRecordTypes[v.warcType] {
		v.report(UnknownRecordType, map[string]string{"type": v.warcType})
	}
	if v.enabled[ConcurrentTo] {
		v.checkConcurrentTo(header)
	}
	if v.enabled[TargetUri] {
		v.checkTargetUri(header)
	}
	if v.enabled[Truncated] {
		v.checkTruncated(header)
	}
	if v.enabled[Segment] {
		if err := v.checkSegment(header); err != nil {
			return err
		}
	}

	if v.recordID != "" {
		if err := v.store.PutRecord(v.recordID); err != nil {
			return err
		}
	}
	if err := v.queueReferences(header); err != nil {
		return err
	}

	if v.enabled[BlockDigest] {
		if d, ok := header.Fields.Get("WARC-Block-Digest"); ok {
			parsed, err := digest.Parse(d)
			if err == nil {
				v.expectedBlock = &parsed
				v.blockHashers = digest.NewMultiHasher(parsed.Algorithm)
			}
		}
	}
	if v.enabled[PayloadDigest] {
		if d, ok := header.Fields.Get("WARC-Payload-Digest"); ok {
			parsed, err := digest.Parse(d)
			if err == nil {
				v.expectedPayload = &parsed
				v.expectPayload = true
			}
		}
	}

	return nil
}

func (v *Verifier) checkMandatoryFields(header *warc.Header) {
	for _, name := range []string{"WARC-Record-ID", "Content-Length", "WARC-Date", "WARC-Type"} {
		if !header.Fields.ContainsName(name) {
			v.report(MandatoryFieldMissing, map[string]string{"field": name})
		}
	}
}

func (v *Verifier) checkConcurrentTo(header *warc.Header) {
	if header.Fields.ContainsName("WARC-Concurrent-To") && concurrentToProhibitedTypes[v.warcType] {
		v.report(ProhibitedField, map[string]string{"field": "WARC-Concurrent-To", "type": v.warcType})
	}
}

func (v *Verifier) checkTargetUri(header *warc.Header) {
	value, has := header.Fields.Get("WARC-Target-URI")
	if v.warcType == "warcinfo" {
		if has {
			v.report(ProhibitedField, map[string]string{"field": "WARC-Target-URI", "type": v.warcType})
		}
		return
	}
	if targetUriContentBearingTypes[v.warcType] && !has {
		v.report(MissingTargetUri, map[string]string{"type": v.warcType})
		return
	}
	if has && strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">") {
		v.report(BadSpecUri, map[string]string{"value": value})
	}
}

func (v *Verifier) checkTruncated(header *warc.Header) {
	if value, ok := header.Fields.Get("WARC-Truncated"); ok && !truncatedValues[value] {
		v.report(InvalidTruncatedValue, map[string]string{"value": value})
	}
}

// checkSegment implements spec.md §4.8's Segment rule: a first segment
// (WARC-Segment-Number: 1) records its block length in the segments
// table; a continuation record's last segment additionally records the
// declared total length. Actual block length is recorded later, in
// EndRecord, once the full block has streamed through BlockData.
func (v *Verifier) checkSegment(header *warc.Header) error {
	numberStr, has := header.Fields.Get("WARC-Segment-Number")
	if !has {
		return nil
	}
	number, err := strconv.ParseUint(numberStr, 10, 64)
	if err != nil {
		v.report(InvalidSegmentNumber, map[string]string{"value": numberStr})
		return nil
	}

	originID := v.recordID
	if origin, ok := header.Fields.Get("WARC-Segment-Origin-ID"); ok {
		originID = origin
	}

	if totalLength, ok := header.Fields.Get("WARC-Segment-Total-Length"); ok {
		n, err := strconv.ParseUint(totalLength, 10, 64)
		if err == nil {
			if err := v.store.PutSegmentLength(originID, n); err != nil {
				return err
			}
		}
	}

	v.pendingSegmentOrigin = originID
	v.pendingSegmentNumber = number
	return nil
}

func (v *Verifier) queueReferences(header *warc.Header) error {
	if v.recordID == "" {
		return nil
	}
	for _, target := range header.Fields.GetAll("WARC-Concurrent-To") {
		if err := v.store.AddReference(v.recordID, kvstore.Reference{Target: target, Kind: kvstore.ConcurrentTo}); err != nil {
			return err
		}
	}
	if target, ok := header.Fields.Get("WARC-Refers-To"); ok && v.enabled[RefersTo] {
		if err := v.store.AddReference(v.recordID, kvstore.Reference{Target: target, Kind: kvstore.RefersTo}); err != nil {
			return err
		}
	}
	if target, ok := header.Fields.Get("WARC-Warcinfo-ID"); ok && v.enabled[WarcinfoId] {
		if err := v.store.AddReference(v.recordID, kvstore.Reference{Target: target, Kind: kvstore.WarcinfoID}); err != nil {
			return err
		}
	}
	return nil
}

// BlockData feeds one chunk of block bytes into the configured block
// digest hashers, tracks the record's actual block length regardless of
// what checks are enabled, and, if a payload digest is expected, buffers
// it for payload extraction in EndRecord.
func (v *Verifier) BlockData(data []byte) {
	v.blockLength += uint64(len(data))
	if v.blockHashers != nil {
		v.blockHashers.Update(data)
	}
	if v.expectPayload {
		v.blockBuf.Write(data)
	}
}

// EndRecord finalizes hashers, compares against expected values, and
// records this record's actual segment block length if it was a segment.
func (v *Verifier) EndRecord() error {
	if v.blockHashers != nil && v.expectedBlock != nil {
		sums := v.blockHashers.Finish()
		actual := sums[0]
		if !bytes.Equal(actual.Value, v.expectedBlock.Value) {
			v.report(DigestMismatch, map[string]string{
				"algorithm": actual.Algorithm.String(),
				"expected":  hexString(v.expectedBlock.Value),
				"actual":    hexString(actual.Value),
			})
		}
	}

	if v.expectPayload && v.expectedPayload != nil {
		hasher := digest.NewMultiHasher(v.expectedPayload.Algorithm)
		if err := http1.ExtractPayload(v.blockBuf.Bytes(), payloadSink{hasher}); err == nil {
			sums := hasher.Finish()
			actual := sums[0]
			if !bytes.Equal(actual.Value, v.expectedPayload.Value) {
				v.report(PayloadDigestMismatch, map[string]string{
					"algorithm": actual.Algorithm.String(),
					"expected":  hexString(v.expectedPayload.Value),
					"actual":    hexString(actual.Value),
				})
			}
		}
	}

	if v.pendingSegmentNumber != 0 {
		if err := v.store.PutSegment(v.pendingSegmentOrigin, v.pendingSegmentNumber, v.blockLength); err != nil {
			return err
		}
		v.pendingSegmentOrigin = ""
		v.pendingSegmentNumber = 0
	}

	return nil
}

// SetRecordAtTimeCompressionFault reports the decoder's record-at-time
// compression fault flag as a Problem; spec.md §4.8 notes this check is
// "surfaced only by the decoder's fault flag", not computed by the
// verifier itself.
func (v *Verifier) SetRecordAtTimeCompressionFault() {
	if v.enabled[RecordAtTimeCompression] {
		v.report(RecordAtTimeCompressionFault, nil)
	}
}

type payloadSink struct {
	hasher *digest.MultiHasher
}

func (p payloadSink) Write(b []byte) (int, error) {
	p.hasher.Update(b)
	return len(b), nil
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0xf]
	}
	return string(out)
}
