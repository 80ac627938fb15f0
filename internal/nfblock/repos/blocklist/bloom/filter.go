package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// filter adapts a bits-and-blooms BloomFilter to blocklist.BloomFilter.
// It is not safe for concurrent writers; the download pipeline is sequential.
type filter struct {
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.bf.Add(key)
}

func (f *filter) MightContain(key []byte) bool {
	return f.bf.Test(key)
}
