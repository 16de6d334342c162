package compress

// Hand-rolled gzip member framing on top of compress/flate, in the manner
// go-dictzip's Reader/Writer build a gzip container over compress/flate
// (see reader.go/writer.go): full control over where one member ends and
// the next begins is exactly what record-at-time compression needs and
// compress/gzip's all-in-one Reader/Writer does not expose across a
// restart boundary.

const (
	gzipID1      = 0x1f
	gzipID2      = 0x8b
	gzipDeflate  = 0x08
	gzipFlagText = 1 << 0
	gzipFlagHCRC = 1 << 1
	gzipFlagExtra = 1 << 2
	gzipFlagName = 1 << 3
	gzipFlagComment = 1 << 4
)

// gzipHeader is the fixed 10-byte gzip member header this package writes:
// no extra fields, no name, no comment, no mtime, default OS byte.
var gzipHeader = []byte{gzipID1, gzipID2, gzipDeflate, 0, 0, 0, 0, 0, 0, 0xff}
