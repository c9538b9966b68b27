package tsfile

import (
	"bytes"
	"math"

	"github.com/twmb/murmur3"
)

// bloomFilter is a fixed-size bit array probed with k independently-seeded
// murmur3 hashes, used to skip a device-tree descent when a queried
// device is provably absent from the file.
type bloomFilter struct {
	bits      []byte
	numBits   uint64
	numHashes uint64
}

// estimateBloomParameters returns the bit-array size m and hash count k
// that bound the false-positive rate to at most p for n inserted items,
// following the standard closed-form estimate (m = -n*ln(p) / ln(2)^2,
// k = (m/n)*ln(2)) used by bloom filter implementations across the
// ecosystem.
func estimateBloomParameters(n uint64, p float64) (m, k uint64) {
	if n == 0 {
		n = 1
	}
	ln2 := math.Log(2)
	fm := -float64(n) * math.Log(p) / (ln2 * ln2)
	m = uint64(math.Ceil(fm))
	if m < 8 {
		m = 8
	}
	fk := (float64(m) / float64(n)) * ln2
	k = uint64(math.Round(fk))
	if k < 1 {
		k = 1
	}
	return m, k
}

func newBloomFilter(numBits, numHashes uint64) *bloomFilter {
	return &bloomFilter{bits: make([]byte, (numBits+7)/8), numBits: numBits, numHashes: numHashes}
}

func (b *bloomFilter) hashes(key []byte) []uint64 {
	h1, h2 := murmur3.SeedSum128(0, 0, key)
	out := make([]uint64, b.numHashes)
	for i := uint64(0); i < b.numHashes; i++ {
		out[i] = (h1 + i*h2) % b.numBits
	}
	return out
}

// Insert adds key to the filter.
func (b *bloomFilter) Insert(key []byte) {
	for _, h := range b.hashes(key) {
		b.bits[h/8] |= 1 << uint(h%8)
	}
}

// MaybeContains reports whether key might be present: false is a
// definitive answer, true is a probabilistic one.
func (b *bloomFilter) MaybeContains(key []byte) bool {
	for _, h := range b.hashes(key) {
		if b.bits[h/8]&(1<<uint(h%8)) == 0 {
			return false
		}
	}
	return true
}

func writeBloomFilter(w *bytes.Buffer, b *bloomFilter) error {
	if err := writeUvarint(w, b.numBits); err != nil {
		return err
	}
	if err := writeUvarint(w, b.numHashes); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(b.bits))); err != nil {
		return err
	}
	_, err := w.Write(b.bits)
	return err
}

func readBloomFilter(r byteReader) (*bloomFilter, error) {
	numBits, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	numHashes, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	size, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := readFull(r, buf); err != nil {
		return nil, err
	}
	return &bloomFilter{bits: buf, numBits: numBits, numHashes: numHashes}, nil
}
