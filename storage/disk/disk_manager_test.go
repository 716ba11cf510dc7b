package disk

import (
	"testing"

	"github.com/mkuragane/KawasemiDB/common"
	testingpkg "github.com/mkuragane/KawasemiDB/testing/testing_assert"
	"github.com/mkuragane/KawasemiDB/types"
)

func TestReadWritePage(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)

	copy(data, "A test string.")

	dm.ReadPage(0, buffer) // tolerate empty read
	dm.WritePage(0, data)
	dm.ReadPage(0, buffer)
	testingpkg.Equals(t, data, buffer)

	memset(buffer, 0)
	copy(data, "Another test string.")

	dm.WritePage(5, data)
	dm.ReadPage(5, buffer)
	testingpkg.Equals(t, data, buffer)
}

func TestReadUnwrittenPageIsZeroFilled(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	buffer := make([]byte, common.PageSize)
	memset(buffer, 1)

	err := dm.ReadPage(3, buffer)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, make([]byte, common.PageSize), buffer)
}

func TestNumWritesCounting(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	testingpkg.Equals(t, uint64(0), dm.GetNumWrites())
	dm.WritePage(0, data)
	dm.WritePage(1, data)
	testingpkg.Equals(t, uint64(2), dm.GetNumWrites())
}

func TestVirtualDiskManager(t *testing.T) {
	dm := NewVirtualDiskManagerImpl()
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)

	copy(data, "A test string.")

	dm.ReadPage(0, buffer) // tolerate empty read
	dm.WritePage(0, data)
	dm.ReadPage(0, buffer)
	testingpkg.Equals(t, data, buffer)

	testingpkg.Equals(t, uint64(1), dm.GetNumWrites())

	// unwritten pages read back as zeroes
	memset(buffer, 1)
	err := dm.ReadPage(7, buffer)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, make([]byte, common.PageSize), buffer)
}

func TestVirtualDiskManagerDeallocate(t *testing.T) {
	dm := NewVirtualDiskManagerImpl()
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	dm.WritePage(0, data)
	dm.DeallocatePage(0)

	testingpkg.Equals(t, true, dm.(*VirtualDiskManagerImpl).IsDeallocated(types.PageID(0)))

	buffer := make([]byte, common.PageSize)
	err := dm.ReadPage(0, buffer)
	testingpkg.Equals(t, types.DeallocatedPageErr, err)
}

func memset(buffer []byte, value byte) {
	for i := range buffer {
		buffer[i] = value
	}
}
