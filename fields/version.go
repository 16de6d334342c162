package fields

// ParseVersionLine recognizes a WARC version line: the literal prefix
// "WARC/" followed by one or more ASCII digits or dots, terminated by CRLF
// or a bare LF (the decoder accepts both; the encoder always emits CRLF).
// It returns the version string (without the trailing line ending) and the
// number of bytes consumed including the line ending, or ok=false if data
// does not begin with a complete version line.
func ParseVersionLine(data []byte) (version string, consumed int, ok bool) {
	const prefix = "WARC/"
	if len(data) < len(prefix) || string(data[:len(prefix)]) != prefix {
		return "", 0, false
	}
	i := len(prefix)
	for i < len(data) && (isDigitOrDot(data[i])) {
		i++
	}
	if i == len(prefix) {
		return "", 0, false
	}
	lineEnd, crlf := scanLineEnding(data[i:])
	if lineEnd != 0 {
		return "", 0, false
	}
	end := i
	if crlf {
		end += 2
	} else {
		end += 1
	}
	return string(data[:i]), end, true
}

func isDigitOrDot(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}

// FormatVersionLine renders version (e.g. "WARC/1.1") with a trailing CRLF.
func FormatVersionLine(version string) string {
	return version + "\r\n"
}
