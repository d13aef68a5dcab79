package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/vulkan-go/vulkan"
)

// NewError converts a Vulkan result to an error annotated with the
// call site, or nil on success.
func NewError(retVal vk.Result) error {
	if retVal != vk.Success {
		pc, _, _, ok := runtime.Caller(1)
		if !ok {
			return fmt.Errorf("vulkan error: %w (%d)", vk.Error(retVal), retVal)
		}
		frame := newStackFrame(pc)
		return fmt.Errorf("vulkan error: %w (%d) on %s",
			vk.Error(retVal), retVal, frame.String())
	}
	return nil
}

func IsError(retVal vk.Result) bool {
	return retVal != vk.Success
}
