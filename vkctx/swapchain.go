/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vkctx

import (
	"math"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
)

type surfaceSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func querySurfaceSupport(device vk.PhysicalDevice, surface vk.Surface) surfaceSupport {
	var s surfaceSupport
	vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &s.capabilities)
	s.capabilities.Deref()
	s.capabilities.CurrentExtent.Deref()
	s.capabilities.MinImageExtent.Deref()
	s.capabilities.MaxImageExtent.Deref()

	var count uint32
	vk.GetPhysicalDeviceSurfaceFormats(device, surface, &count, nil)
	if count > 0 {
		s.formats = make([]vk.SurfaceFormat, count)
		vk.GetPhysicalDeviceSurfaceFormats(device, surface, &count, s.formats)
		for i := range s.formats {
			s.formats[i].Deref()
		}
	}

	count = 0
	vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &count, nil)
	if count > 0 {
		s.presentModes = make([]vk.PresentMode, count)
		vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &count, s.presentModes)
	}
	return s
}

func (s *surfaceSupport) chooseFormat() vk.SurfaceFormat {
	for _, f := range s.formats {
		if f.Format == vk.FormatB8g8r8a8Unorm && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return s.formats[0]
}

func (s *surfaceSupport) choosePresentMode(vsync bool) vk.PresentMode {
	if !vsync {
		for _, m := range s.presentModes {
			if m == vk.PresentModeMailbox {
				return m
			}
		}
	}
	return vk.PresentModeFifo
}

func (s *surfaceSupport) chooseExtent(window *glfw.Window) vk.Extent2D {
	if s.capabilities.CurrentExtent.Width != math.MaxUint32 {
		return s.capabilities.CurrentExtent
	}
	w, h := window.GetFramebufferSize()
	return vk.Extent2D{
		Width:  max(s.capabilities.MinImageExtent.Width, min(uint32(w), s.capabilities.MaxImageExtent.Width)),
		Height: max(s.capabilities.MinImageExtent.Height, min(uint32(h), s.capabilities.MaxImageExtent.Height)),
	}
}

// swapchainImage is a presentable image owned by the swapchain, only its view is owned by the context.
type swapchainImage struct {
	handle vk.Image
	view   vk.ImageView
	format vk.Format
	extent vk.Extent2D
	layout vxg.ImageLayout
}

var _ vxg.Image = (*swapchainImage)(nil)

func (i *swapchainImage) Handle() vk.Image                 { return i.handle }
func (i *swapchainImage) View() vk.ImageView               { return i.view }
func (i *swapchainImage) Format() vk.Format                { return i.format }
func (i *swapchainImage) Samples() vk.SampleCountFlagBits  { return vk.SampleCount1Bit }
func (i *swapchainImage) Extent() vk.Extent2D              { return i.extent }
func (i *swapchainImage) Aspect() vxg.ImageAspectFlags     { return vxg.ImageAspectColor }
func (i *swapchainImage) Layout() vxg.ImageLayout          { return i.layout }
func (i *swapchainImage) SetLayout(layout vxg.ImageLayout) { i.layout = layout }

type swapchain struct {
	handle vk.Swapchain
	format vk.SurfaceFormat
	extent vk.Extent2D
	images []*swapchainImage
}

func (c *Context) createSwapchain(old vk.Swapchain) error {
	support := querySurfaceSupport(c.physicalDevice, c.surface)
	if len(support.formats) == 0 {
		return debug.Errorf("Surface reports no formats")
	}
	format := support.chooseFormat()
	extent := support.chooseExtent(c.window)

	imageCount := support.capabilities.MinImageCount + 1
	if support.capabilities.MaxImageCount > 0 && imageCount > support.capabilities.MaxImageCount {
		imageCount = support.capabilities.MaxImageCount
	}

	sc := swapchain{format: format, extent: extent}
	if ret := vk.CreateSwapchain(c.device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          c.surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      support.choosePresentMode(c.cfg.VSync),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}, nil, &sc.handle); ret != vk.Success {
		return vkError(ret, "vkCreateSwapchainKHR")
	}

	var count uint32
	vk.GetSwapchainImages(c.device, sc.handle, &count, nil)
	handles := make([]vk.Image, count)
	vk.GetSwapchainImages(c.device, sc.handle, &count, handles)

	for i, h := range handles {
		img := &swapchainImage{handle: h, format: format.Format, extent: extent, layout: vxg.ImageLayoutUndefined}
		view, err := c.createImageView(h, format.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1)
		if err != nil {
			c.destroySwapchain(&sc)
			return debug.ErrorWrapf(err, "Failed to create view of swapchain image %d", i)
		}
		img.view = view
		sc.images = append(sc.images, img)
	}

	c.swapchain = sc
	instance.logger.IPrintf("Created swapchain: %d images of %dx%d", len(sc.images), extent.Width, extent.Height)
	return nil
}

func (c *Context) destroySwapchain(sc *swapchain) {
	for _, img := range sc.images {
		vk.DestroyImageView(c.device, img.view, nil)
	}
	sc.images = nil
	if sc.handle != vk.Swapchain(vk.NullHandle) {
		vk.DestroySwapchain(c.device, sc.handle, nil)
		sc.handle = vk.Swapchain(vk.NullHandle)
	}
}

func (c *Context) Swapchain() vk.Swapchain {
	c.noCopy.Check()
	return c.swapchain.handle
}

func (c *Context) SwapchainFormat() vk.Format {
	c.noCopy.Check()
	return c.swapchain.format.Format
}

func (c *Context) SwapchainImages() []vxg.Image {
	c.noCopy.Check()
	images := make([]vxg.Image, len(c.swapchain.images))
	for i, img := range c.swapchain.images {
		images[i] = img
	}
	return images
}

func (c *Context) Extent() vk.Extent2D {
	c.noCopy.Check()
	return c.swapchain.extent
}

/*
RecreateSwapchain blocks while the window is minimized, then builds a new
swapchain from the old one and destroys the old one. The caller must make
sure the device is idle.
*/
func (c *Context) RecreateSwapchain() error {
	c.noCopy.Check()
	for {
		w, h := c.window.GetFramebufferSize()
		if w > 0 && h > 0 {
			break
		}
		glfw.WaitEvents()
	}

	old := c.swapchain
	if err := c.createSwapchain(old.handle); err != nil {
		c.swapchain = old
		return err
	}
	c.destroySwapchain(&old)
	return nil
}
