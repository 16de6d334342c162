// Package kvstore abstracts the cross-record tables the verifier needs to
// keep across the lifetime of a (possibly enormous) WARC file: a set of
// seen record ids, a multimap of id references, and two segment tables.
// Two implementations satisfy the same Store interface so an operator can
// trade memory for disk without changing verifier behavior: Memory for
// small archives, LevelDB for bounded RAM over archives with tens of
// millions of records.
package kvstore

// Reference is one entry of the id_references table: a record referring to
// target via a field of the given kind.
type Reference struct {
	Target string
	Kind   ReferenceKind
}

// ReferenceKind identifies which field produced a Reference.
type ReferenceKind int

const (
	ConcurrentTo ReferenceKind = iota
	RefersTo
	WarcinfoID
)

// Store is the cross-record key-value abstraction the verifier's
// verify_end pass runs bounded-work batches over. verify_end iterates
// IterReferences and IterSegmentLengths once, on its first call, and batches
// over the copied entries; it does not resume a store scan across calls.
type Store interface {
	// PutRecord records that a record with this id was seen.
	PutRecord(id string) error
	// HasRecord reports whether a record with this id was seen.
	HasRecord(id string) (bool, error)

	// AddReference appends a reference from a record to the id_references
	// multimap.
	AddReference(fromID string, ref Reference) error
	// IterReferences calls fn for every (fromID, Reference) pair, in
	// insertion order, stopping early if fn returns false.
	IterReferences(fn func(fromID string, ref Reference) bool) error

	// PutSegment records the block length of segment number n of originID.
	PutSegment(originID string, number uint64, blockLength uint64) error
	// Segments returns every recorded (number -> blockLength) pair for
	// originID.
	Segments(originID string) (map[uint64]uint64, error)

	// PutSegmentLength records the declared total length of a segmented
	// record identified by originID.
	PutSegmentLength(originID string, length uint64) error
	// IterSegmentLengths calls fn for every (originID, length) pair,
	// stopping early if fn returns false.
	IterSegmentLengths(fn func(originID string, length uint64) bool) error

	// Close releases any resources (file handles, caches) held by the
	// store.
	Close() error
}
