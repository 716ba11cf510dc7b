package buffer

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"github.com/mkuragane/KawasemiDB/common"
)

// FrameID is the type for frame id
type FrameID uint32

type lruKNode struct {
	frameID   FrameID
	history   []uint64 // timestamps of the most recent accesses, at most k entries
	evictable bool
	prev      *lruKNode
	next      *lruKNode
}

// kthAccess is the timestamp of the k-th most recent access, the
// oldest entry of the bounded window
func (n *lruKNode) kthAccess() uint64 {
	return n.history[0]
}

// nodeList is an intrusive doubly-linked list with sentinel head and tail
type nodeList struct {
	head *lruKNode
	tail *lruKNode
}

func newNodeList() *nodeList {
	head := &lruKNode{}
	tail := &lruKNode{}
	head.next = tail
	tail.prev = head
	return &nodeList{head, tail}
}

func (l *nodeList) pushBack(n *lruKNode) {
	n.prev = l.tail.prev
	n.next = l.tail
	l.tail.prev.next = n
	l.tail.prev = n
}

func (l *nodeList) remove(n *lruKNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

func (l *nodeList) front() *lruKNode {
	if l.head.next == l.tail {
		return nil
	}
	return l.head.next
}

func (l *nodeList) next(n *lruKNode) *lruKNode {
	if n.next == l.tail {
		return nil
	}
	return n.next
}

/**
 * LRUKReplacer selects the eviction victim among evictable frames by
 * backward k-distance: the frame whose k-th most recent access lies
 * furthest in the past. Frames with fewer than k recorded accesses have
 * infinite distance and are victimized first, oldest first access
 * first.
 *
 * Frames with fewer than k accesses wait on the history queue in
 * first-access order; frames with k accesses live on the cache queue.
 */
type LRUKReplacer struct {
	k             uint32
	replacerSize  uint32
	currTimestamp uint64
	evictableSize uint32
	nodeStore     map[FrameID]*lruKNode
	history       *nodeList
	cache         *nodeList
	latch         deadlock.Mutex
}

// NewLRUKReplacer instantiates a replacer which can track up to
// numFrames frames
func NewLRUKReplacer(numFrames uint32, k uint32) *LRUKReplacer {
	return &LRUKReplacer{
		k:            k,
		replacerSize: numFrames,
		nodeStore:    make(map[FrameID]*lruKNode),
		history:      newNodeList(),
		cache:        newNodeList(),
	}
}

// RecordAccess logs one access to frameID, allocating tracking state on
// first sight. A new frame is tracked as non-evictable.
func (r *LRUKReplacer) RecordAccess(frameID FrameID) {
	r.latch.Lock()
	defer r.latch.Unlock()

	common.KS_Assert(uint32(frameID) < r.replacerSize, fmt.Sprintf("LRUKReplacer::RecordAccess: frame id %d out of range", frameID))

	r.currTimestamp++
	ts := r.currTimestamp

	node, ok := r.nodeStore[frameID]
	if !ok {
		if uint32(len(r.nodeStore)) >= r.replacerSize {
			return
		}
		node = &lruKNode{frameID: frameID, history: make([]uint64, 0, r.k)}
		node.history = append(node.history, ts)
		r.nodeStore[frameID] = node
		if uint32(len(node.history)) == r.k {
			r.cache.pushBack(node)
		} else {
			r.history.pushBack(node)
		}
		return
	}

	if uint32(len(node.history)) < r.k {
		node.history = append(node.history, ts)
		if uint32(len(node.history)) == r.k {
			r.history.remove(node)
			r.cache.pushBack(node)
		}
		return
	}

	// slide the access window
	copy(node.history, node.history[1:])
	node.history[r.k-1] = ts
}

// SetEvictable marks or unmarks frameID as an eviction candidate. It is
// a no-op when the frame is untracked or the flag does not change.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, setEvictable bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	common.KS_Assert(uint32(frameID) < r.replacerSize, fmt.Sprintf("LRUKReplacer::SetEvictable: frame id %d out of range", frameID))

	node, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if node.evictable && !setEvictable {
		r.evictableSize--
		node.evictable = false
	} else if !node.evictable && setEvictable {
		r.evictableSize++
		node.evictable = true
	}
}

// Evict picks the victim frame with the maximum backward k-distance and
// drops its tracking state
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	if r.evictableSize == 0 {
		return 0, false
	}

	// sub-k frames have infinite distance; the history queue holds them
	// in first-access order, so the first evictable one wins
	for node := r.history.front(); node != nil; node = r.history.next(node) {
		if node.evictable {
			r.history.remove(node)
			return r.dropNode(node), true
		}
	}

	// otherwise the victim is the evictable frame whose k-th most
	// recent access is oldest
	var victim *lruKNode
	for node := r.cache.front(); node != nil; node = r.cache.next(node) {
		if node.evictable && (victim == nil || node.kthAccess() < victim.kthAccess()) {
			victim = node
		}
	}
	if victim == nil {
		return 0, false
	}
	r.cache.remove(victim)
	return r.dropNode(victim), true
}

func (r *LRUKReplacer) dropNode(node *lruKNode) FrameID {
	delete(r.nodeStore, node.frameID)
	r.evictableSize--
	return node.frameID
}

// Remove force-drops tracking for an evictable frame
func (r *LRUKReplacer) Remove(frameID FrameID) error {
	r.latch.Lock()
	defer r.latch.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		return nil
	}
	if !node.evictable {
		return fmt.Errorf("removing a non-evictable frame: %d", frameID)
	}

	if uint32(len(node.history)) < r.k {
		r.history.remove(node)
	} else {
		r.cache.remove(node)
	}
	r.dropNode(node)
	return nil
}

// Size returns the number of currently evictable frames
func (r *LRUKReplacer) Size() uint32 {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.evictableSize
}
