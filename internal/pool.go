package internal

import (
	"bytes"
	"sync"
)

// BufferPool holds scratch buffers used to encode packets.
var BufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 128))
	},
}
