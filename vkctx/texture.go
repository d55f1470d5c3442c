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
	"image"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/util"
	"golang.org/x/image/draw"
)

type Texture struct {
	noCopy    util.NoCopy
	ctx       *Context
	name      string
	handle    vk.Image
	memory    vk.DeviceMemory
	view      vk.ImageView
	sampler   vk.Sampler
	format    vk.Format
	extent    vk.Extent2D
	mipLevels uint32
	aspect    vxg.ImageAspectFlags
	layout    vxg.ImageLayout
}

var _ vxg.Texture = (*Texture)(nil)

func isDepthFormat(format vk.Format) bool {
	switch format {
	case vk.FormatD16Unorm, vk.FormatD32Sfloat, vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

func hasStencil(format vk.Format) bool {
	switch format {
	case vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

func textureUsage(u vxg.ImageUsage) (vk.ImageUsageFlags, error) {
	switch u {
	case vxg.ImageUsageSampledColorAttachment:
		return vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit | vk.ImageUsageTransferSrcBit), nil
	case vxg.ImageUsageSampledDepthAttachment:
		return vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit | vk.ImageUsageSampledBit), nil
	case vxg.ImageUsageSampled:
		return vk.ImageUsageFlags(vk.ImageUsageSampledBit | vk.ImageUsageTransferDstBit), nil
	}
	return 0, debug.Errorf("Invalid image usage: %s", u)
}

/*
NewTexture creates a device local 2D texture described by desc. Depth usages
require a depth format and color usages a color format. The returned texture
starts in the undefined layout.
*/
func (c *Context) NewTexture(desc vxg.ImageDescription) (*Texture, error) {
	c.noCopy.Check()
	usage, err := textureUsage(desc.Usage)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Texture %q", desc.Name)
	}
	depth := isDepthFormat(desc.Format)
	if depth != (desc.Usage == vxg.ImageUsageSampledDepthAttachment) {
		return nil, debug.Errorf("Texture %q: format %d does not match usage %s", desc.Name, desc.Format, desc.Usage)
	}
	mipLevels := max(desc.MipLevels, 1)

	handle, memory, err := c.createImage(desc.Extent, desc.Format, mipLevels, usage)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create texture %q", desc.Name)
	}

	aspect := vxg.ImageAspectColor
	if depth {
		aspect = vxg.ImageAspectDepth
		if hasStencil(desc.Format) {
			aspect |= vxg.ImageAspectStencil
		}
	}

	// sampling a depth stencil image reads the depth aspect only
	viewAspect := aspect &^ vxg.ImageAspectStencil
	view, err := c.createImageView(handle, desc.Format, vk.ImageAspectFlags(viewAspect), mipLevels)
	if err != nil {
		vk.FreeMemory(c.device, memory, nil)
		vk.DestroyImage(c.device, handle, nil)
		return nil, debug.ErrorWrapf(err, "Failed to create view of texture %q", desc.Name)
	}

	t := &Texture{
		ctx:       c,
		name:      desc.Name,
		handle:    handle,
		memory:    memory,
		view:      view,
		format:    desc.Format,
		extent:    desc.Extent,
		mipLevels: mipLevels,
		aspect:    aspect,
		layout:    vxg.ImageLayoutUndefined,
	}
	t.noCopy.Init()
	instance.logger.VPrintf("Created texture %q: %dx%d %s mips: %d", desc.Name, desc.Extent.Width, desc.Extent.Height, desc.Usage, mipLevels)
	return t, nil
}

// CreateTexture implements vxg.DeviceContext.
func (c *Context) CreateTexture(desc vxg.ImageDescription) (vxg.Texture, error) {
	t, err := c.NewTexture(desc)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func mipChain(src image.Image, levels uint32) []*image.RGBA {
	b := src.Bounds()
	base := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(base, base.Bounds(), src, b.Min, draw.Src)

	chain := []*image.RGBA{base}
	for i := uint32(1); i < levels; i++ {
		prev := chain[i-1]
		w := max(prev.Bounds().Dx()/2, 1)
		h := max(prev.Bounds().Dy()/2, 1)
		level := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(level, level.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		chain = append(chain, level)
	}
	return chain
}

/*
LoadTexture uploads img as a sampled RGBA8 texture. When mip mapping is enabled
in the current vxg config the full mip chain is generated on the host. The
texture is left in the shader read only layout.
*/
func (c *Context) LoadTexture(name string, img image.Image) (*Texture, error) {
	c.noCopy.Check()
	b := img.Bounds()
	if b.Empty() {
		return nil, debug.Errorf("Texture %q: empty image", name)
	}
	levels := vxg.MipLevels(uint32(b.Dx()), uint32(b.Dy()), vxg.CurrentConfig().EnableMipMapping)
	chain := mipChain(img, levels)

	size := 0
	for _, level := range chain {
		size += len(level.Pix)
	}
	staging, err := c.NewBuffer(name+"_staging", vxg.BufferTypeStaging, uint64(size))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	regions := make([]vk.BufferImageCopy, 0, len(chain))
	offset := uint64(0)
	for i, level := range chain {
		if err := staging.writeMapped(offset, level.Pix); err != nil {
			return nil, err
		}
		regions = append(regions, vk.BufferImageCopy{
			BufferOffset: vk.DeviceSize(offset),
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       uint32(i),
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageExtent: vk.Extent3D{
				Width:  uint32(level.Bounds().Dx()),
				Height: uint32(level.Bounds().Dy()),
				Depth:  1,
			},
		})
		offset += uint64(len(level.Pix))
	}

	t, err := c.NewTexture(vxg.ImageDescription{
		Name:      name,
		Extent:    vk.Extent2D{Width: uint32(b.Dx()), Height: uint32(b.Dy())},
		Format:    vxg.DataTypeRGBA8.Format(),
		Usage:     vxg.ImageUsageSampled,
		MipLevels: levels,
	})
	if err != nil {
		return nil, err
	}

	err = c.ImmediateSubmit(func(cb vk.CommandBuffer) {
		vxg.CmdImageBarrier(c.driver, cb, vxg.TransitionImage(t, vxg.ImageLayoutTransferDst))
		vk.CmdCopyBufferToImage(cb, staging.handle, t.handle, vk.ImageLayoutTransferDstOptimal, uint32(len(regions)), regions)
		vxg.CmdImageBarrier(c.driver, cb, vxg.TransitionImage(t, vxg.ImageLayoutShaderReadOnlyOptimal))
	})
	if err != nil {
		t.Destroy()
		return nil, debug.ErrorWrapf(err, "Failed to upload texture %q", name)
	}
	return t, nil
}

func (t *Texture) Name() string {
	return t.name
}

func (t *Texture) MipLevels() uint32 {
	return t.mipLevels
}

func (t *Texture) Handle() vk.Image {
	t.noCopy.Check()
	return t.handle
}

func (t *Texture) View() vk.ImageView {
	t.noCopy.Check()
	return t.view
}

func (t *Texture) Format() vk.Format                { return t.format }
func (t *Texture) Samples() vk.SampleCountFlagBits  { return vk.SampleCount1Bit }
func (t *Texture) Extent() vk.Extent2D              { return t.extent }
func (t *Texture) Aspect() vxg.ImageAspectFlags     { return t.aspect }
func (t *Texture) Layout() vxg.ImageLayout          { return t.layout }
func (t *Texture) SetLayout(layout vxg.ImageLayout) { t.layout = layout }

// Sampler returns the texture's sampler, creating it on first use.
func (t *Texture) Sampler() vk.Sampler {
	t.noCopy.Check()
	if t.sampler != vk.Sampler(vk.NullHandle) {
		return t.sampler
	}

	addressMode := vk.SamplerAddressModeRepeat
	if t.aspect.HasBits(vxg.ImageAspectDepth) {
		addressMode = vk.SamplerAddressModeClampToEdge
	}
	if ret := vk.CreateSampler(t.ctx.device, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            addressMode,
		AddressModeV:            addressMode,
		AddressModeW:            addressMode,
		MinLod:                  0,
		MaxLod:                  float32(t.mipLevels),
		BorderColor:             vk.BorderColorFloatOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}, nil, &t.sampler); ret != vk.Success {
		abort("Failed to create sampler of texture %q: %s", t.name, vk.Error(ret))
	}
	return t.sampler
}

func (t *Texture) Destroy() {
	t.noCopy.Check()
	if t.sampler != vk.Sampler(vk.NullHandle) {
		vk.DestroySampler(t.ctx.device, t.sampler, nil)
	}
	vk.DestroyImageView(t.ctx.device, t.view, nil)
	vk.DestroyImage(t.ctx.device, t.handle, nil)
	vk.FreeMemory(t.ctx.device, t.memory, nil)
	t.noCopy.Close()
}
