package http1

import (
	"bytes"
	"io"
	"strings"

	"github.com/chfoo/warcat-go/compress"
	"github.com/chfoo/warcat-go/werr"
)

// ExtractPayload parses an HTTP/1.1 response out of block (a complete WARC
// "response" record block), applies framing to isolate the body, then
// applies any chained Content-Encoding decoders (chunked is handled by
// framing, not Content-Encoding) and streams the decoded payload bytes to
// sink. Used only by the verifier to compute WARC-Payload-Digest.
func ExtractPayload(block []byte, sink io.Writer) error {
	header, headerEnd, err := ParseResponseHeader(block)
	if err != nil {
		return err
	}

	body := block[headerEnd:]

	framing, length, err := DetermineFraming(header)
	if err != nil {
		return err
	}

	var r io.Reader
	switch framing {
	case FramingZeroLength:
		r = bytes.NewReader(nil)
	case FramingContentLength:
		if uint64(len(body)) < length {
			length = uint64(len(body))
		}
		r = bytes.NewReader(body[:length])
	case FramingChunked:
		r = NewChunkedReader(bytes.NewReader(body))
	case FramingUntilEOF:
		r = bytes.NewReader(body)
	}

	r, err = applyContentDecoders(header, r)
	if err != nil {
		return err
	}

	_, err = io.Copy(sink, r)
	return err
}

// applyContentDecoders wraps r in the decompressors named by the
// Content-Encoding field, applied in reverse order (outermost encoding
// listed first is the outermost reader), matching HTTP's stacking
// convention.
func applyContentDecoders(header *ResponseHeader, r io.Reader) (io.Reader, error) {
	ce, ok := header.Fields.Get("Content-Encoding")
	if !ok || strings.TrimSpace(ce) == "" || strings.EqualFold(ce, "identity") {
		return r, nil
	}

	codings := strings.Split(ce, ",")
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		format, err := codingToFormat(coding)
		if err != nil {
			return nil, err
		}
		decomp, err := compress.NewDecompressor(r, compress.DecompressorConfig{Format: format})
		if err != nil {
			return nil, err
		}
		r = decomp
	}
	return r, nil
}

func codingToFormat(coding string) (compress.Format, error) {
	switch coding {
	case "gzip", "x-gzip":
		return compress.Gzip, nil
	case "deflate":
		return compress.Deflate, nil
	case "br":
		return compress.Brotli, nil
	case "zstd":
		return compress.Zstandard, nil
	default:
		return 0, werr.New(werr.UnsupportedCompressionFormat).WithSnippet([]byte(coding))
	}
}
