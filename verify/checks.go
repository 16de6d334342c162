package verify

// Check identifies one of the enabled/disabled verification checks listed
// in spec.md §4.8.
type Check int

const (
	MandatoryFields Check = iota
	KnownRecordType
	// TODO: ContentType's IdentifiedPayloadType sub-check (comparing the
	// Content-Type field against a sniffed payload type) is disabled
	// upstream and not implemented here either.
	ContentType
	ConcurrentTo
	BlockDigest
	PayloadDigest
	IpAddress
	RefersTo
	RefersToTargetUri
	RefersToDate
	TargetUri
	Truncated
	WarcinfoId
	Filename
	Profile
	Segment
	RecordAtTimeCompression
)

// allChecks lists every check, used to build the default all-enabled set.
var allChecks = []Check{
	MandatoryFields, KnownRecordType, ContentType, ConcurrentTo, BlockDigest,
	PayloadDigest, IpAddress, RefersTo, RefersToTargetUri, RefersToDate,
	TargetUri, Truncated, WarcinfoId, Filename, Profile, Segment,
	RecordAtTimeCompression,
}

// knownRecordTypes are the WARC-Type values spec.md §4.8 treats as known;
// any other value is a Problem (UnknownRecordType), not a hard error.
var knownRecordTypes = map[string]bool{
	"warcinfo": true, "response": true, "resource": true, "request": true,
	"metadata": true, "revisit": true, "conversion": true, "continuation": true,
}

// truncatedValues are the only legal WARC-Truncated values.
var truncatedValues = map[string]bool{
	"length": true, "time": true, "disconnect": true, "unspecified": true,
}

// concurrentToProhibitedTypes are the WARC-Type values on which
// WARC-Concurrent-To is not permitted.
var concurrentToProhibitedTypes = map[string]bool{
	"warcinfo": true, "conversion": true, "continuation": true,
}

// targetUriContentBearingTypes are the WARC-Type values that require
// WARC-Target-URI.
var targetUriContentBearingTypes = map[string]bool{
	"response": true, "resource": true, "request": true, "revisit": true,
}
