package bridge

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNoDeviceAvailable means instance enumeration found no adapters.
	ErrNoDeviceAvailable = errors.New("no graphics device available")

	// ErrNoSuitableMemoryType means no adapter memory type satisfied
	// both the resource's type bits and the requested properties.
	ErrNoSuitableMemoryType = errors.New("no suitable memory type")

	// ErrSwapchainStale means the surface no longer matches the
	// swapchain. Recoverable: resize the swapchain and retry the frame.
	ErrSwapchainStale = errors.New("swapchain stale")

	// ErrUnsupportedBinding means a bind group entry populated none of
	// the buffer/view/sampler variants.
	ErrUnsupportedBinding = errors.New("unsupported bind group entry")

	// ErrHostInvisible means a buffer write targeted memory the host
	// cannot map.
	ErrHostInvisible = errors.New("buffer memory is not host-visible")

	// ErrNoPipeline means a render pass operation needed a bound
	// pipeline and none was set.
	ErrNoPipeline = errors.New("no pipeline bound")
)

// InvalidHandleError reports an operation against a handle that names
// no live resource of the expected kind.
type InvalidHandleError struct {
	Kind   string
	Handle Handle
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("invalid %s handle %d", e.Kind, e.Handle)
}

func invalidHandle(kind string, h Handle) error {
	return &InvalidHandleError{Kind: kind, Handle: h}
}

// AllocationError wraps a driver failure during resource creation.
type AllocationError struct {
	Op  string
	Err error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

func allocErr(op string, err error) error {
	return &AllocationError{Op: op, Err: err}
}
