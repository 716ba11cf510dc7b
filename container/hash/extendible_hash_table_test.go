package hash

import (
	"sync"
	"testing"

	testingpkg "github.com/mkuragane/KawasemiDB/testing/testing_assert"
	"github.com/mkuragane/KawasemiDB/types"
)

// identity hash makes directory growth deterministic
func identHash(key int) uint32 {
	return uint32(key)
}

func TestExtendibleHashTableBasic(t *testing.T) {
	ht := NewExtendibleHashTable[int, string](2, identHash)

	ht.Insert(1, "a")
	ht.Insert(2, "b")
	ht.Insert(3, "c")

	val, found := ht.Find(1)
	testingpkg.SimpleAssert(t, found)
	testingpkg.Equals(t, "a", val)
	val, found = ht.Find(2)
	testingpkg.SimpleAssert(t, found)
	testingpkg.Equals(t, "b", val)
	val, found = ht.Find(3)
	testingpkg.SimpleAssert(t, found)
	testingpkg.Equals(t, "c", val)

	_, found = ht.Find(4)
	testingpkg.SimpleAssert(t, !found)

	// upsert overwrites
	ht.Insert(1, "z")
	val, _ = ht.Find(1)
	testingpkg.Equals(t, "z", val)

	testingpkg.SimpleAssert(t, ht.Remove(2))
	_, found = ht.Find(2)
	testingpkg.SimpleAssert(t, !found)
	testingpkg.SimpleAssert(t, !ht.Remove(2))
}

func TestExtendibleHashTableSplit(t *testing.T) {
	ht := NewExtendibleHashTable[int, int](2, identHash)

	testingpkg.Equals(t, uint32(0), ht.GetGlobalDepth())
	testingpkg.Equals(t, uint32(1), ht.GetNumBuckets())

	ht.Insert(0, 0)
	ht.Insert(1, 10)
	testingpkg.Equals(t, uint32(0), ht.GetGlobalDepth())

	// third key overflows the single bucket: directory doubles once,
	// keys separate on the lowest bit
	ht.Insert(2, 20)
	testingpkg.Equals(t, uint32(1), ht.GetGlobalDepth())
	testingpkg.Equals(t, uint32(2), ht.GetNumBuckets())

	ht.Insert(3, 30)
	testingpkg.Equals(t, uint32(1), ht.GetGlobalDepth())

	// the even bucket overflows again: second bit comes into play
	ht.Insert(4, 40)
	testingpkg.Equals(t, uint32(2), ht.GetGlobalDepth())
	testingpkg.Equals(t, uint32(3), ht.GetNumBuckets())

	testingpkg.Equals(t, uint32(2), ht.GetLocalDepth(0))
	testingpkg.Equals(t, uint32(1), ht.GetLocalDepth(1))
	testingpkg.Equals(t, uint32(2), ht.GetLocalDepth(2))
	testingpkg.Equals(t, uint32(1), ht.GetLocalDepth(3))

	for _, key := range []int{0, 1, 2, 3, 4} {
		val, found := ht.Find(key)
		testingpkg.SimpleAssert(t, found)
		testingpkg.Equals(t, key*10, val)
	}
}

func TestExtendibleHashTableDepthInvariant(t *testing.T) {
	ht := NewExtendibleHashTable[types.PageID, uint32](4, func(pageID types.PageID) uint32 {
		return GenHashMurMur(pageID.Serialize())
	})

	numBuckets := ht.GetNumBuckets()
	for i := 0; i < 1000; i++ {
		ht.Insert(types.PageID(i), uint32(i))

		// NumBuckets grows monotonically
		n := ht.GetNumBuckets()
		testingpkg.SimpleAssert(t, n >= numBuckets)
		numBuckets = n
	}

	globalDepth := ht.GetGlobalDepth()
	testingpkg.SimpleAssert(t, globalDepth > 0)
	for i := uint32(0); i < uint32(1)<<globalDepth; i++ {
		testingpkg.SimpleAssert(t, ht.GetLocalDepth(i) <= globalDepth)
	}

	for i := 0; i < 1000; i++ {
		val, found := ht.Find(types.PageID(i))
		testingpkg.SimpleAssert(t, found)
		testingpkg.Equals(t, uint32(i), val)
	}

	for i := 0; i < 1000; i += 2 {
		testingpkg.SimpleAssert(t, ht.Remove(types.PageID(i)))
	}
	for i := 0; i < 1000; i++ {
		_, found := ht.Find(types.PageID(i))
		testingpkg.Equals(t, i%2 == 1, found)
	}
}

func TestExtendibleHashTableConcurrentInsert(t *testing.T) {
	ht := NewExtendibleHashTable[int, int](4, identHash)

	var wg sync.WaitGroup
	for th := 0; th < 4; th++ {
		wg.Add(1)
		go func(th int) {
			defer wg.Done()
			for i := th * 250; i < (th+1)*250; i++ {
				ht.Insert(i, i)
			}
		}(th)
	}
	wg.Wait()

	for i := 0; i < 1000; i++ {
		val, found := ht.Find(i)
		testingpkg.SimpleAssert(t, found)
		testingpkg.Equals(t, i, val)
	}
}
