package disk

import (
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dsnet/golib/memfile"
	"github.com/sasha-s/go-deadlock"

	"github.com/mkuragane/KawasemiDB/common"
	"github.com/mkuragane/KawasemiDB/types"
)

// VirtualDiskManagerImpl is a DiskManager which lives on memory. It is
// used by tests which do not want real files.
type VirtualDiskManagerImpl struct {
	db           *memfile.File
	log          *memfile.File
	numWrites    uint64
	size         int64
	numFlushes   uint64
	dbFileMutex  *deadlock.Mutex
	logFileMutex *deadlock.Mutex
	deallocedIDs mapset.Set[types.PageID]
}

func NewVirtualDiskManagerImpl() DiskManager {
	file := memfile.New(make([]byte, 0))
	logFile := memfile.New(make([]byte, 0))

	return &VirtualDiskManagerImpl{file, logFile, 0, 0, 0, new(deadlock.Mutex), new(deadlock.Mutex), mapset.NewSet[types.PageID]()}
}

// ShutDown closes of the database file
func (d *VirtualDiskManagerImpl) ShutDown() {
	// do nothing
}

// WritePage writes a page to the in-memory file
func (d *VirtualDiskManagerImpl) WritePage(pageID types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	offset := int64(pageID) * int64(common.PageSize)
	d.db.WriteAt(pageData, offset)

	if offset >= d.size {
		d.size = offset + int64(len(pageData))
	}

	d.numWrites++
	return nil
}

// ReadPage reads a page from the in-memory file. Pages which were
// allocated but never written read back as zeroes.
func (d *VirtualDiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	if d.deallocedIDs.Contains(pageID) {
		return types.DeallocatedPageErr
	}

	offset := int64(pageID) * int64(common.PageSize)

	if offset >= d.size {
		for i := range pageData {
			pageData[i] = 0
		}
		return nil
	}

	avail := d.size - offset
	if avail >= int64(len(pageData)) {
		_, err := d.db.ReadAt(pageData, offset)
		if err != nil {
			return errors.New("I/O error while reading")
		}
		return nil
	}

	_, err := d.db.ReadAt(pageData[:avail], offset)
	if err != nil {
		return errors.New("I/O error while reading")
	}
	for i := avail; i < int64(len(pageData)); i++ {
		pageData[i] = 0
	}
	return nil
}

// DeallocatePage records the retirement of pageID. Page ids are never
// recycled, so the occupied file space is simply left behind.
func (d *VirtualDiskManagerImpl) DeallocatePage(pageID types.PageID) {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	d.deallocedIDs.Add(pageID)
}

// IsDeallocated reports whether pageID was retired through DeallocatePage
func (d *VirtualDiskManagerImpl) IsDeallocated(pageID types.PageID) bool {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	return d.deallocedIDs.Contains(pageID)
}

// WriteLog writes the log buffer content to the in-memory log file
func (d *VirtualDiskManagerImpl) WriteLog(logData []byte) {
	d.logFileMutex.Lock()
	defer d.logFileMutex.Unlock()

	d.numFlushes++
	d.log.Write(logData)
}

// GetNumWrites returns the number of page writes observed so far
func (d *VirtualDiskManagerImpl) GetNumWrites() uint64 {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	return d.numWrites
}

// Size returns the size of the in-memory file
func (d *VirtualDiskManagerImpl) Size() int64 {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	return d.size
}
