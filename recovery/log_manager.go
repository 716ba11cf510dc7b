package recovery

import (
	"github.com/mkuragane/KawasemiDB/common"
	"github.com/mkuragane/KawasemiDB/storage/disk"
	"github.com/mkuragane/KawasemiDB/types"
)

/**
 * LogManager holds the tail of the write-ahead log in a memory buffer.
 * When common.EnableLogging is set, a buffer pool manager holding this
 * log manager forces the tail to disk before it writes back a dirty
 * frame. This type knows nothing of log record formats or recovery; it
 * only moves appended bytes to the log file when Flush is called.
 */
type LogManager struct {
	offset        uint32
	logBufferLSN  types.LSN
	nextLSN       types.LSN
	persistentLSN types.LSN
	logBuffer     []byte
	flushBuffer   []byte
	latch         common.ReaderWriterLatch
	diskManager   *disk.DiskManager
}

func NewLogManager(diskManager *disk.DiskManager) *LogManager {
	ret := new(LogManager)
	ret.nextLSN = 0
	ret.persistentLSN = common.InvalidLSN
	ret.diskManager = diskManager
	ret.logBuffer = make([]byte, common.LogBufferSize)
	ret.flushBuffer = make([]byte, common.LogBufferSize)
	ret.latch = common.NewRWLatch()
	ret.offset = 0
	return ret
}

func (lm *LogManager) GetNextLSN() types.LSN       { return lm.nextLSN }
func (lm *LogManager) GetPersistentLSN() types.LSN { return lm.persistentLSN }

// Flush writes the buffered log tail to the log file. Records appended
// before the call are persistent when it returns.
func (lm *LogManager) Flush() {
	lm.latch.WLock()

	lsn := lm.logBufferLSN
	offset := lm.offset
	lm.offset = 0

	// swap the two buffers so appends can continue into the other one
	tmp := lm.flushBuffer
	lm.flushBuffer = lm.logBuffer
	lm.logBuffer = tmp

	lm.latch.WUnlock()

	(*lm.diskManager).WriteLog(lm.flushBuffer[:offset])
	lm.persistentLSN = lsn
}

// AppendLogRecord copies a serialized log record into the log buffer
// and assigns it an LSN. The buffer is flushed first when the record
// does not fit.
func (lm *LogManager) AppendLogRecord(logRecord []byte) types.LSN {
	if uint32(len(logRecord)) > uint32(common.LogBufferSize) {
		return common.InvalidLSN
	}

	if lm.offset+uint32(len(logRecord)) > uint32(common.LogBufferSize) {
		lm.Flush()
	}

	lm.latch.WLock()
	lsn := lm.nextLSN
	lm.nextLSN++
	copy(lm.logBuffer[lm.offset:], logRecord)
	lm.offset += uint32(len(logRecord))
	lm.logBufferLSN = lsn
	lm.latch.WUnlock()

	return lsn
}
