package bridge

import "sync/atomic"

// Handle identifies a bridge-owned resource. Handles are opaque,
// unique across all resource kinds for the life of the process, and
// never reused. The zero handle never names a resource.
type Handle = uint64

// NilHandle is the reserved "no resource" value.
const NilHandle Handle = 0

// handleCounter starts at zero; nextHandle's increment makes the first
// issued handle 1, keeping 0 reserved.
var handleCounter atomic.Uint64

func nextHandle() Handle {
	return handleCounter.Add(1)
}
