// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"fmt"

	"github.com/golang-collections/collections/queue"
	"github.com/sasha-s/go-deadlock"

	"github.com/mkuragane/KawasemiDB/common"
	"github.com/mkuragane/KawasemiDB/container/hash"
	"github.com/mkuragane/KawasemiDB/recovery"
	"github.com/mkuragane/KawasemiDB/storage/disk"
	"github.com/mkuragane/KawasemiDB/storage/page"
	"github.com/mkuragane/KawasemiDB/types"
)

// BufferPoolManager mediates between a fixed array of in-memory frames
// and the pages of the database file. Callers obtain pinned pages with
// NewPage and FetchPage and give them back with UnpinPage; unpinned
// frames become eviction candidates.
//
// One coarse latch covers every operation. The page table and the
// replacer take their own latches briefly underneath; neither ever
// calls back into the pool.
type BufferPoolManager struct {
	poolSize    uint32
	diskManager disk.DiskManager
	pages       []*page.Page // index is FrameID
	replacer    *LRUKReplacer
	freeList    *queue.Queue
	pageTable   *hash.ExtendibleHashTable[types.PageID, FrameID]
	logManager  *recovery.LogManager
	nextPageID  types.PageID
	mutex       *deadlock.Mutex
}

// NewBufferPoolManager returns a buffer pool manager with poolSize
// empty frames
func NewBufferPoolManager(poolSize uint32, bucketSize uint32, replacerK uint32, diskManager disk.DiskManager, logManager *recovery.LogManager) *BufferPoolManager {
	freeList := queue.New()
	pages := make([]*page.Page, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList.Enqueue(FrameID(i))
		pages[i] = page.NewInvalid()
	}

	pageTable := hash.NewExtendibleHashTable[types.PageID, FrameID](bucketSize, func(pageID types.PageID) uint32 {
		return hash.GenHashMurMur(pageID.Serialize())
	})
	replacer := NewLRUKReplacer(poolSize, replacerK)

	return &BufferPoolManager{poolSize, diskManager, pages, replacer, freeList, pageTable, logManager, 0, new(deadlock.Mutex)}
}

// NewPage allocates a fresh page id and binds it to a frame. The
// returned page is pinned and zero filled. It returns nil when every
// frame is pinned.
func (b *BufferPoolManager) NewPage() *page.Page {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, fromFreeList, ok := b.getFrameID()
	if !ok {
		return nil
	}

	pg := b.pages[frameID]
	if !fromFreeList {
		b.flushFrame(pg)
		b.pageTable.Remove(pg.ID())
	}

	pageID := b.allocatePage()
	pg.Rebind(pageID)
	pg.ResetMemory()

	b.pageTable.Insert(pageID, frameID)
	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)

	if common.EnableDebug {
		common.KsPrintf(common.DEBUG_INFO, "NewPage: PageId=%d FrameId=%d\n", pageID, frameID)
	}
	return pg
}

// FetchPage returns the requested page pinned, reading it from disk
// when it is not resident. It returns nil when every frame is pinned.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) *page.Page {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frameID, ok := b.pageTable.Find(pageID); ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.RecordAccess(frameID)
		b.replacer.SetEvictable(frameID, false)
		return pg
	}

	frameID, fromFreeList, ok := b.getFrameID()
	if !ok {
		return nil
	}

	pg := b.pages[frameID]
	if !fromFreeList {
		if common.EnableDebug {
			common.KsPrintf(common.CACHE_OUT_IN_INFO, "FetchPage: cache out PageId=%d for PageId=%d\n", pg.ID(), pageID)
		}
		b.flushFrame(pg)
		b.pageTable.Remove(pg.ID())
	}

	// the frame is pinned before the read so that peers under finer
	// latching would already see it as in use
	pg.Rebind(pageID)
	err := b.diskManager.ReadPage(pageID, pg.Data()[:])
	common.KS_Assert(err == nil, fmt.Sprintf("BufferPoolManager::FetchPage: disk read failed: %v", err))

	b.pageTable.Insert(pageID, frameID)
	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)
	return pg
}

// UnpinPage drops one pin from the page. With isDirty the frame is
// marked dirty; a false never clears the bit. It returns false when the
// page is not resident or already unpinned.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	if pg.PinCount() <= 0 {
		return false
	}

	pg.DecPinCount()
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() == 0 {
		b.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage writes the page to disk when it is dirty and clears the
// dirty bit. Pin count and evictability do not change.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if pageID == types.InvalidPageID {
		return false
	}
	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return false
	}

	b.flushFrame(b.pages[frameID])
	return true
}

// FlushAllPages writes every resident dirty frame to disk. No frame is
// pinned or evicted on the way.
func (b *BufferPoolManager) FlushAllPages() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, pg := range b.pages {
		if pg.ID() != types.InvalidPageID {
			b.flushFrame(pg)
		}
	}
}

// DeletePage drops the page from the pool and retires its id. A miss is
// a no-op success; a pinned page cannot be deleted. Dirty content is
// discarded, the deletion declares it gone.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return true
	}

	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		return false
	}

	b.pageTable.Remove(pageID)
	err := b.replacer.Remove(frameID)
	common.KS_Assert(err == nil, fmt.Sprintf("BufferPoolManager::DeletePage: %v", err))

	pg.ResetMemory()
	pg.Free()
	b.freeList.Enqueue(frameID)
	b.diskManager.DeallocatePage(pageID)
	return true
}

// GetPoolSize returns the number of frames
func (b *BufferPoolManager) GetPoolSize() uint32 {
	return b.poolSize
}

// allocatePage hands out the next page id. Ids are never reused.
func (b *BufferPoolManager) allocatePage() types.PageID {
	ret := b.nextPageID
	b.nextPageID++
	return ret
}

// getFrameID acquires a frame from the free list first, from the
// replacer second
func (b *BufferPoolManager) getFrameID() (FrameID, bool, bool) {
	if b.freeList.Len() > 0 {
		return b.freeList.Dequeue().(FrameID), true, true
	}

	frameID, ok := b.replacer.Evict()
	return frameID, false, ok
}

// flushFrame persists a dirty frame and clears the dirty bit. For a
// victim this runs before its mapping is removed and the frame is
// rebound. When a log manager is attached and common.EnableLogging is
// set, the WAL tail is forced first.
func (b *BufferPoolManager) flushFrame(pg *page.Page) {
	if !pg.IsDirty() {
		return
	}
	if b.logManager != nil && common.EnableLogging {
		b.logManager.Flush()
	}
	data := pg.Data()
	err := b.diskManager.WritePage(pg.ID(), data[:])
	common.KS_Assert(err == nil, fmt.Sprintf("BufferPoolManager: flush failed: %v", err))
	pg.SetIsDirty(false)
}
