package blocklist

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface the duplicate check needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a known number of keys.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}
