package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

type swapchain struct {
	dev vk.Device
	sc  vk.Swapchain
}

func (s *swapchain) Images() ([]driver.Image, error) {
	var count uint32
	if err := NewError(vk.GetSwapchainImages(s.dev, s.sc, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}
	images := make([]vk.Image, count)
	if err := NewError(vk.GetSwapchainImages(s.dev, s.sc, &count, images)); err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}
	out := make([]driver.Image, len(images))
	for i, img := range images {
		out[i] = &image{dev: s.dev, img: img, presentOwned: true}
	}
	return out, nil
}

func (s *swapchain) Acquire(imageAvailable driver.Semaphore) (int, bool, error) {
	var imageIndex uint32
	ret := vk.AcquireNextImage(s.dev, s.sc, vk.MaxUint64,
		imageAvailable.(*semaphore).sem, vk.NullFence, &imageIndex)
	switch ret {
	case vk.Success:
		return int(imageIndex), false, nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return int(imageIndex), true, nil
	default:
		return 0, false, errors.Wrap(NewError(ret), "acquire image")
	}
}

func (s *swapchain) Destroy() {
	vk.DestroySwapchain(s.dev, s.sc, nil)
}
