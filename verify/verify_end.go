package verify

import "github.com/chfoo/warcat-go/verify/kvstore"

// VerifyEnd runs the deferred cross-record checks — reference closure
// (WARC-Concurrent-To/WARC-Refers-To/WARC-Warcinfo-ID targets must exist)
// and segment continuity (every segment number 1..N present, declared
// total length matches the sum of actual block lengths) — against the
// kvstore accumulated by BeginRecord/EndRecord.
//
// Work is done in batches of at most verifyEndBatchSize entries per call
// so a caller driving an archive with tens of millions of records can
// interleave VerifyEnd calls with other work instead of blocking for the
// whole pass. hasMore reports whether a further call is needed. The first
// call copies every reference and segment-length entry from the store into
// memory; later calls work through that copy, so the batching bounds the
// work per call, not the memory held by the pass.
func (v *Verifier) VerifyEnd() (hasMore bool, err error) {
	if v.refSnapshot == nil {
		if err := v.loadSnapshots(); err != nil {
			return false, err
		}
	}

	budget := verifyEndBatchSize

	for !v.refDone && budget > 0 {
		if v.refCursor >= len(v.refSnapshot) {
			v.refDone = true
			break
		}
		r := v.refSnapshot[v.refCursor]
		v.refCursor++
		budget--

		has, err := v.store.HasRecord(r.ref.Target)
		if err != nil {
			return false, err
		}
		if !has {
			v.problems = append(v.problems, Problem{
				RecordID: r.fromID,
				Kind:     ReferencedRecordMissing,
				Detail:   map[string]string{"target": r.ref.Target},
			})
		}
	}

	for v.refDone && !v.lenDone && budget > 0 {
		if v.lenCursor >= len(v.lenSnapshot) {
			v.lenDone = true
			break
		}
		entry := v.lenSnapshot[v.lenCursor]
		v.lenCursor++
		budget--

		v.checkSegmentContinuity(entry.originID, entry.length)
	}

	return !(v.refDone && v.lenDone), nil
}

// checkSegmentContinuity sums every recorded segment's block length for
// originID and reports a MissingSegment for each gap in 1..max, then
// compares the sum of present segments against declaredTotal.
func (v *Verifier) checkSegmentContinuity(originID string, declaredTotal uint64) {
	segments, err := v.store.Segments(originID)
	if err != nil || len(segments) == 0 {
		return
	}

	var maxNumber uint64
	for n := range segments {
		if n > maxNumber {
			maxNumber = n
		}
	}

	var sum uint64
	for n := uint64(1); n <= maxNumber; n++ {
		length, ok := segments[n]
		if !ok {
			v.problems = append(v.problems, Problem{
				Kind:   MissingSegment,
				Detail: map[string]string{"originID": originID, "number": uintString(n)},
			})
			continue
		}
		sum += length
	}

	if sum != declaredTotal {
		v.problems = append(v.problems, Problem{
			Kind: MismatchedSegmentLength,
			Detail: map[string]string{
				"originID": originID,
				"expect":   uintString(declaredTotal),
				"actual":   uintString(sum),
			},
		})
	}
}

func uintString(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

type refEntry struct {
	fromID string
	ref    kvstore.Reference
}

type lenEntry struct {
	originID string
	length   uint64
}

func (v *Verifier) loadSnapshots() error {
	v.refSnapshot = []refEntry{}
	if err := v.store.IterReferences(func(fromID string, ref kvstore.Reference) bool {
		v.refSnapshot = append(v.refSnapshot, refEntry{fromID: fromID, ref: ref})
		return true
	}); err != nil {
		return err
	}

	v.lenSnapshot = []lenEntry{}
	return v.store.IterSegmentLengths(func(originID string, length uint64) bool {
		v.lenSnapshot = append(v.lenSnapshot, lenEntry{originID: originID, length: length})
		return true
	})
}
