package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"hash/crc32"

	"github.com/zeebo/blake3"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// Hasher is a tagged union over every supported digest algorithm's
// implementation, exposing a single update/finish interface regardless of
// which concrete library backs it. It mirrors the HasherImpl/Hasher split in
// chfoo/warcat-rs's digest.rs.
type Hasher struct {
	algorithm Algorithm
	inner     hash.Hash
	// crc32-family hashers also expose finish as a uint64 via Sum32;
	// xxh3 is u64-native.
}

// NewHasher constructs a Hasher for the given algorithm.
func NewHasher(algorithm Algorithm) *Hasher {
	return &Hasher{algorithm: algorithm, inner: makeHash(algorithm)}
}

func makeHash(algorithm Algorithm) hash.Hash {
	switch algorithm {
	case CRC32:
		return crc32.NewIEEE()
	case CRC32C:
		return crc32.New(crc32.MakeTable(crc32.Castagnoli))
	case MD5:
		return md5.New()
	case SHA1:
		return sha1.New()
	case SHA256:
		return sha256.New()
	case SHA512:
		return sha512.New()
	case SHA3_256:
		return sha3.New256()
	case SHA3_512:
		return sha3.New512()
	case BLAKE2s:
		h, _ := blake2s.New256(nil)
		return h
	case BLAKE3:
		return blake3.New()
	case XXH3:
		return xxh3.New()
	default:
		panic("digest: unknown algorithm")
	}
}

// Algorithm returns the algorithm this Hasher computes.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Update feeds more data into the running hash.
func (h *Hasher) Update(data []byte) {
	h.inner.Write(data)
}

// Finish finalizes the hash and resets the Hasher to a fresh state, mirroring
// chfoo/warcat-rs's Hasher::finish (mem::replace with a new instance).
func (h *Hasher) Finish() []byte {
	sum := h.inner.Sum(nil)
	h.inner = makeHash(h.algorithm)
	return sum
}

// FinishUint64 finalizes a CRC32/CRC32C/xxh3 hash as a 64-bit integer,
// matching the narrow set of algorithms spec.md singles out for a
// finish_u64 accessor. It panics for algorithms that do not support it.
func (h *Hasher) FinishUint64() uint64 {
	sum := h.inner.Sum(nil)
	h.inner = makeHash(h.algorithm)
	switch h.algorithm {
	case CRC32, CRC32C:
		return uint64(binary.BigEndian.Uint32(sum))
	case XXH3:
		return binary.BigEndian.Uint64(sum)
	default:
		panic("digest: FinishUint64 not supported for " + h.algorithm.String())
	}
}

// MultiHasher applies Update to a set of Hashers together, used by the
// verifier to compute every configured block/payload digest in a single
// pass over the bytes.
type MultiHasher struct {
	hashers []*Hasher
}

// NewMultiHasher constructs a MultiHasher over the given algorithms.
func NewMultiHasher(algorithms ...Algorithm) *MultiHasher {
	m := &MultiHasher{}
	for _, a := range algorithms {
		m.hashers = append(m.hashers, NewHasher(a))
	}
	return m
}

// Update feeds data into every hasher.
func (m *MultiHasher) Update(data []byte) {
	for _, h := range m.hashers {
		h.Update(data)
	}
}

// Finish finalizes every hasher and returns one Digest per algorithm, in the
// order the MultiHasher was constructed with.
func (m *MultiHasher) Finish() []Digest {
	out := make([]Digest, len(m.hashers))
	for i, h := range m.hashers {
		out[i] = New(h.Algorithm(), h.Finish())
	}
	return out
}
