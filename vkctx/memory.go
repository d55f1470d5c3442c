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
	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
)

func (c *Context) allocate(req vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	req.Deref()
	typeIndex, err := c.findMemoryType(req.MemoryTypeBits, properties)
	if err != nil {
		return vk.DeviceMemory(vk.NullHandle), err
	}
	var memory vk.DeviceMemory
	if ret := vk.AllocateMemory(c.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIndex,
	}, nil, &memory); ret != vk.Success {
		return vk.DeviceMemory(vk.NullHandle), vkError(ret, "vkAllocateMemory(%d)", req.Size)
	}
	return memory, nil
}

func (c *Context) createBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	var buffer vk.Buffer
	if ret := vk.CreateBuffer(c.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer); ret != vk.Success {
		return vk.Buffer(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), vkError(ret, "vkCreateBuffer(%d)", size)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(c.device, buffer, &req)
	memory, err := c.allocate(req, properties)
	if err != nil {
		vk.DestroyBuffer(c.device, buffer, nil)
		return vk.Buffer(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), err
	}
	if ret := vk.BindBufferMemory(c.device, buffer, memory, 0); ret != vk.Success {
		vk.FreeMemory(c.device, memory, nil)
		vk.DestroyBuffer(c.device, buffer, nil)
		return vk.Buffer(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), vkError(ret, "vkBindBufferMemory")
	}
	return buffer, memory, nil
}

func (c *Context) createImage(extent vk.Extent2D, format vk.Format, mipLevels uint32, usage vk.ImageUsageFlags) (vk.Image, vk.DeviceMemory, error) {
	if extent.Width == 0 || extent.Height == 0 {
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), debug.Errorf("Invalid image extent: %dx%d", extent.Width, extent.Height)
	}
	var image vk.Image
	if ret := vk.CreateImage(c.device, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image); ret != vk.Success {
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), vkError(ret, "vkCreateImage")
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(c.device, image, &req)
	memory, err := c.allocate(req, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(c.device, image, nil)
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), err
	}
	if ret := vk.BindImageMemory(c.device, image, memory, 0); ret != vk.Success {
		vk.FreeMemory(c.device, memory, nil)
		vk.DestroyImage(c.device, image, nil)
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), vkError(ret, "vkBindImageMemory")
	}
	return image, memory, nil
}

func (c *Context) createImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags, mipLevels uint32) (vk.ImageView, error) {
	var view vk.ImageView
	if ret := vk.CreateImageView(c.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}, nil, &view); ret != vk.Success {
		return vk.ImageView(vk.NullHandle), vkError(ret, "vkCreateImageView")
	}
	return view, nil
}
