package compress

import (
	"compress/flate"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/chfoo/warcat-go/compress/zstdwarc"
)

// Compressor is a write-side encoder over a destination sink. It unifies
// identity, deflate, gzip, brotli, and zstandard behind StartNewSegment,
// which, for codecs that support concatenation (Gzip, Zstandard), finalizes
// the current segment and opens a fresh one; for the others it is a no-op.
// This is the component that makes "record-at-time compression" possible:
// the WARC writer calls StartNewSegment once per record.
type Compressor struct {
	config CompressorConfig
	dest   io.Writer

	flateW *flate.Writer // deflate, and the per-member body codec for gzip
	crc    uint32        // running gzip member CRC32
	isize  uint32        // running gzip member ISIZE

	brotliW *brotli.Writer

	zstdW       *zstd.Encoder
	zstdOptions []zstd.EOption

	wroteFirstSegment bool
}

// NewCompressor constructs a Compressor writing to dest per config. If
// config.Dictionary.Kind is WarcZstdDictionary, the skippable dictionary
// frame is written immediately, before the first segment.
func NewCompressor(dest io.Writer, config CompressorConfig) (*Compressor, error) {
	c := &Compressor{config: config, dest: dest}

	if config.Format == Zstandard && config.Dictionary.Kind != NoDictionary {
		c.zstdOptions = append(c.zstdOptions, zstd.WithEncoderDict(config.Dictionary.Bytes))
	}
	c.zstdOptions = append(c.zstdOptions,
		zstd.WithEncoderLevel(zstdEncoderLevel(config.Level)),
		zstd.WithEncoderCRC(true),
	)

	if config.Format == Zstandard && config.Dictionary.Kind == WarcZstdDictionary {
		if err := zstdwarc.WriteDictionaryFrame(dest, config.Dictionary.Bytes); err != nil {
			return nil, err
		}
	}

	if err := c.openSegment(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compressor) openSegment() error {
	switch c.config.Format {
	case Identity:
		// no framing
	case Deflate:
		if c.flateW == nil {
			w, err := flate.NewWriter(c.dest, encoderLevel(Deflate, c.config.Level))
			if err != nil {
				return err
			}
			c.flateW = w
		}
	case Gzip:
		if _, err := c.dest.Write(gzipHeader); err != nil {
			return err
		}
		w, err := flate.NewWriter(c.dest, encoderLevel(Gzip, c.config.Level))
		if err != nil {
			return err
		}
		c.flateW = w
		c.crc = 0
		c.isize = 0
	case Brotli:
		if c.brotliW == nil {
			c.brotliW = brotli.NewWriterLevel(c.dest, encoderLevel(Brotli, c.config.Level))
		}
	case Zstandard:
		w, err := zstd.NewWriter(c.dest, c.zstdOptions...)
		if err != nil {
			return err
		}
		c.zstdW = w
	}
	c.wroteFirstSegment = true
	return nil
}

// zstdEncoderLevel maps our codec-independent Level to klauspost/compress/zstd's
// named speed/ratio tiers, preserving the spirit of chfoo/warcat-rs's
// get_encoder_level table (Low/Balanced/High) without klauspost's raw
// 1-22 zstd levels, which that library intentionally does not expose 1:1.
func zstdEncoderLevel(level Level) zstd.EncoderLevel {
	switch level {
	case High:
		return zstd.SpeedBestCompression
	case Low:
		return zstd.SpeedFastest
	default:
		return zstd.SpeedDefault
	}
}

// Write compresses p into the current segment.
func (c *Compressor) Write(p []byte) (int, error) {
	switch c.config.Format {
	case Identity:
		return c.dest.Write(p)
	case Deflate:
		return c.flateW.Write(p)
	case Gzip:
		n, err := c.flateW.Write(p)
		c.crc = crc32.Update(c.crc, crc32.IEEETable, p[:n])
		c.isize += uint32(n)
		return n, err
	case Brotli:
		return c.brotliW.Write(p)
	case Zstandard:
		return c.zstdW.Write(p)
	default:
		return 0, nil
	}
}

func (c *Compressor) closeSegment() error {
	switch c.config.Format {
	case Gzip:
		if err := c.flateW.Close(); err != nil {
			return err
		}
		var trailer [8]byte
		binary.LittleEndian.PutUint32(trailer[0:4], c.crc)
		binary.LittleEndian.PutUint32(trailer[4:8], c.isize)
		_, err := c.dest.Write(trailer[:])
		return err
	case Zstandard:
		return c.zstdW.Close()
	}
	return nil
}

// StartNewSegment finalizes the current segment and opens a new one for
// codecs that support concatenation (Gzip, Zstandard). It is a no-op for
// Identity, Deflate, and Brotli, which have no well-defined member boundary.
func (c *Compressor) StartNewSegment() error {
	if !c.config.Format.SupportsConcatenation() {
		return nil
	}
	if err := c.closeSegment(); err != nil {
		return err
	}
	return c.openSegment()
}

// Finish drains the codec state and returns the underlying sink.
func (c *Compressor) Finish() (io.Writer, error) {
	switch c.config.Format {
	case Deflate:
		if err := c.flateW.Close(); err != nil {
			return nil, err
		}
	case Gzip, Zstandard:
		if err := c.closeSegment(); err != nil {
			return nil, err
		}
	case Brotli:
		if err := c.brotliW.Close(); err != nil {
			return nil, err
		}
	}
	return c.dest, nil
}
