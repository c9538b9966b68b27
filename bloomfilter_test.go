package tsfile

import (
	"bytes"
	"fmt"
	"testing"
)

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	keys := make([][]byte, 0, 200)
	for i := 0; i < 200; i++ {
		keys = append(keys, []byte(fmt.Sprintf("device-%d", i)))
	}
	m, k := estimateBloomParameters(uint64(len(keys)), 0.01)
	bf := newBloomFilter(m, k)
	for _, key := range keys {
		bf.Insert(key)
	}
	for _, key := range keys {
		if !bf.MaybeContains(key) {
			t.Fatalf("bloom filter dropped an inserted key: %s", key)
		}
	}
}

func TestBloomFilterWireRoundTrip(t *testing.T) {
	m, k := estimateBloomParameters(50, 0.05)
	bf := newBloomFilter(m, k)
	bf.Insert([]byte("cpu\x00server-01"))
	bf.Insert([]byte("cpu\x00server-02"))

	buf := &bytes.Buffer{}
	if err := writeBloomFilter(buf, bf); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readBloomFilter(newByteReader(buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.MaybeContains([]byte("cpu\x00server-01")) {
		t.Fatal("deserialized filter lost a membership")
	}
	if got.numBits != bf.numBits || got.numHashes != bf.numHashes {
		t.Fatalf("got m=%d k=%d, want m=%d k=%d", got.numBits, got.numHashes, bf.numBits, bf.numHashes)
	}
}

func TestEstimateBloomParametersMonotonic(t *testing.T) {
	mSmall, _ := estimateBloomParameters(10, 0.01)
	mLarge, _ := estimateBloomParameters(10000, 0.01)
	if mLarge <= mSmall {
		t.Fatalf("expected more bits for more items: small=%d large=%d", mSmall, mLarge)
	}
}
