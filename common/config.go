// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

var EnableLogging bool = false
var EnableDebug bool = false

const (
	// invalid page id
	InvalidPageID = -1
	// invalid log sequence number
	InvalidLSN = -1
	// size of a data page in byte
	PageSize = 4096
	// number for calculate log buffer size (number of page size)
	LogBufferSizeBase = 32
	// size of a log buffer in byte
	LogBufferSize = (LogBufferSizeBase + 1) * PageSize
	// default number of entries one extendible hash bucket can hold
	BucketSize = 50
	// default K of the LRU-K replacer
	ReplacerK = 2
)

var LogLevelSetting LogLevel = INFO | WARN | ERROR | FATAL

// interval the deadlock detector waits before it reports a lock
// acquisition as a potential deadlock
var CycleDetectionInterval time.Duration = time.Second * 30

func init() {
	deadlock.Opts.DeadlockTimeout = CycleDetectionInterval
}
