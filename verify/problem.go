// Package verify implements the WARC conformance verifier: per-record
// checks run as records stream through, plus deferred cross-record checks
// (reference closure, segmentation continuity) that run as bounded-work
// batches over tables kept in a kvstore.Store. VerifyEnd copies the
// reference and segment-length tables into memory before checking them, so
// its memory use grows with the number of those entries.
package verify

// ProblemKind identifies the machine-readable kind of a Problem.
type ProblemKind int

const (
	MandatoryFieldMissing ProblemKind = iota
	UnknownRecordType
	ProhibitedField
	MissingTargetUri
	BadSpecUri
	InvalidTruncatedValue
	InvalidSegmentNumber
	DigestMismatch
	PayloadDigestMismatch
	ReferencedRecordMissing
	MissingSegment
	MismatchedSegmentLength
	RecordAtTimeCompressionFault
)

func (k ProblemKind) String() string {
	switch k {
	case MandatoryFieldMissing:
		return "MandatoryFieldMissing"
	case UnknownRecordType:
		return "UnknownRecordType"
	case ProhibitedField:
		return "ProhibitedField"
	case MissingTargetUri:
		return "MissingTargetUri"
	case BadSpecUri:
		return "BadSpecUri"
	case InvalidTruncatedValue:
		return "InvalidTruncatedValue"
	case InvalidSegmentNumber:
		return "InvalidSegmentNumber"
	case DigestMismatch:
		return "DigestMismatch"
	case PayloadDigestMismatch:
		return "PayloadDigestMismatch"
	case ReferencedRecordMissing:
		return "ReferencedRecordMissing"
	case MissingSegment:
		return "MissingSegment"
	case MismatchedSegmentLength:
		return "MismatchedSegmentLength"
	case RecordAtTimeCompressionFault:
		return "RecordAtTimeCompressionFault"
	default:
		return "Unknown"
	}
}

// Problem is a single conformance finding. Problems are data, not errors:
// only structural failures (KV store errors, header parse errors) raise
// Go errors; every specification conformance failure becomes a Problem.
type Problem struct {
	RecordID string
	Kind     ProblemKind
	Detail   map[string]string
}
