package hash

import (
	pair "github.com/notEpsilon/go-pair"
	"github.com/sasha-s/go-deadlock"

	"github.com/mkuragane/KawasemiDB/common"
)

// number of bucket splits one Insert may perform before the hash
// function is declared degenerate
const splitRetryMax = 8

type bucket[K comparable, V any] struct {
	list  []pair.Pair[K, V]
	depth uint32
	size  uint32
}

func newBucket[K comparable, V any](size uint32, depth uint32) *bucket[K, V] {
	return &bucket[K, V]{make([]pair.Pair[K, V], 0, size), depth, size}
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for i := range b.list {
		if b.list[i].First == key {
			return b.list[i].Second, true
		}
	}
	var none V
	return none, false
}

func (b *bucket[K, V]) isFull() bool {
	return uint32(len(b.list)) >= b.size
}

// insert upserts (key, value). It returns false only when the bucket is
// full and the key is not already present.
func (b *bucket[K, V]) insert(key K, value V) bool {
	for i := range b.list {
		if b.list[i].First == key {
			b.list[i].Second = value
			return true
		}
	}
	if b.isFull() {
		return false
	}
	b.list = append(b.list, pair.Pair[K, V]{First: key, Second: value})
	return true
}

func (b *bucket[K, V]) remove(key K) bool {
	for i := range b.list {
		if b.list[i].First == key {
			b.list = append(b.list[:i], b.list[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * ExtendibleHashTable maps keys to values through a directory of
 * buckets addressed by the low bits of the key hash. A full bucket is
 * split locally; the directory only doubles when the splitting bucket
 * already uses every directory bit.
 *
 * A single latch serializes all operations.
 */
type ExtendibleHashTable[K comparable, V any] struct {
	globalDepth uint32
	bucketSize  uint32
	numBuckets  uint32
	dir         []*bucket[K, V]
	hashFn      func(K) uint32
	latch       deadlock.Mutex
}

func NewExtendibleHashTable[K comparable, V any](bucketSize uint32, hashFn func(K) uint32) *ExtendibleHashTable[K, V] {
	dir := make([]*bucket[K, V], 0, 1)
	dir = append(dir, newBucket[K, V](bucketSize, 0))
	return &ExtendibleHashTable[K, V]{0, bucketSize, 1, dir, hashFn, deadlock.Mutex{}}
}

func (ht *ExtendibleHashTable[K, V]) indexOf(key K) uint32 {
	mask := (uint32(1) << ht.globalDepth) - 1
	return ht.hashFn(key) & mask
}

// Find locates the value associated with key
func (ht *ExtendibleHashTable[K, V]) Find(key K) (V, bool) {
	ht.latch.Lock()
	defer ht.latch.Unlock()
	return ht.dir[ht.indexOf(key)].find(key)
}

// Remove deletes the mapping for key. It returns false when key is absent.
func (ht *ExtendibleHashTable[K, V]) Remove(key K) bool {
	ht.latch.Lock()
	defer ht.latch.Unlock()
	return ht.dir[ht.indexOf(key)].remove(key)
}

// Insert upserts (key, value), splitting buckets as needed
func (ht *ExtendibleHashTable[K, V]) Insert(key K, value V) {
	ht.latch.Lock()
	defer ht.latch.Unlock()

	for attempt := 0; attempt < splitRetryMax; attempt++ {
		idx := ht.indexOf(key)
		curBucket := ht.dir[idx]

		if curBucket.insert(key, value) {
			return
		}

		// the bucket is full. when it already uses every directory bit,
		// double the directory first: slot i's new twin is slot
		// i + old_size and points to the same bucket.
		if curBucket.depth == ht.globalDepth {
			ht.globalDepth++
			ht.dir = append(ht.dir, ht.dir...)
		}

		curBucket.depth++
		newBkt := newBucket[K, V](ht.bucketSize, curBucket.depth)
		ht.numBuckets++

		// redirect the directory slots whose new distinguishing bit is set
		mask := uint32(1) << (curBucket.depth - 1)
		for i := range ht.dir {
			if ht.dir[i] == curBucket && uint32(i)&mask != 0 {
				ht.dir[i] = newBkt
			}
		}

		// rehash the entries, keeping relative order on both sides
		stay := make([]pair.Pair[K, V], 0, ht.bucketSize)
		move := make([]pair.Pair[K, V], 0, ht.bucketSize)
		for _, entry := range curBucket.list {
			if ht.hashFn(entry.First)&mask != 0 {
				move = append(move, entry)
			} else {
				stay = append(stay, entry)
			}
		}
		curBucket.list = stay
		newBkt.list = move
	}

	common.KS_Assert(false, "ExtendibleHashTable::Insert: split retries exhausted (degenerate hash)")
}

// GetGlobalDepth returns the number of hash bits the directory uses
func (ht *ExtendibleHashTable[K, V]) GetGlobalDepth() uint32 {
	ht.latch.Lock()
	defer ht.latch.Unlock()
	return ht.globalDepth
}

// GetLocalDepth returns the depth of the bucket dirIndex points to
func (ht *ExtendibleHashTable[K, V]) GetLocalDepth(dirIndex uint32) uint32 {
	ht.latch.Lock()
	defer ht.latch.Unlock()
	return ht.dir[dirIndex].depth
}

// GetNumBuckets returns the number of distinct buckets
func (ht *ExtendibleHashTable[K, V]) GetNumBuckets() uint32 {
	ht.latch.Lock()
	defer ht.latch.Unlock()
	return ht.numBuckets
}
