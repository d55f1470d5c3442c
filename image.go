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

package vxg

import (
	"fmt"
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

type ImageAspectFlags vk.ImageAspectFlags

const (
	ImageAspectColor   = ImageAspectFlags(vk.ImageAspectColorBit)
	ImageAspectDepth   = ImageAspectFlags(vk.ImageAspectDepthBit)
	ImageAspectStencil = ImageAspectFlags(vk.ImageAspectStencilBit)
)

func (a ImageAspectFlags) HasBits(want ImageAspectFlags) bool {
	return hasBits(a, want)
}

func (a ImageAspectFlags) String() string {
	str := ""
	if a.HasBits(ImageAspectColor) {
		str += "Color|"
	}
	if a.HasBits(ImageAspectDepth) {
		str += "Depth|"
	}
	if a.HasBits(ImageAspectStencil) {
		str += "Stencil|"
	}
	return strings.TrimSuffix(str, "|")
}

type ImageLayout vk.ImageLayout

const (
	ImageLayoutUndefined                     = ImageLayout(vk.ImageLayoutUndefined)
	ImageLayoutGeneral                       = ImageLayout(vk.ImageLayoutGeneral)
	ImageLayoutColorAttachmentOptimal        = ImageLayout(vk.ImageLayoutColorAttachmentOptimal)
	ImageLayoutDepthStencilAttachmentOptimal = ImageLayout(vk.ImageLayoutDepthStencilAttachmentOptimal)
	ImageLayoutDepthStencilReadOnlyOptimal   = ImageLayout(vk.ImageLayoutDepthStencilReadOnlyOptimal)
	ImageLayoutShaderReadOnlyOptimal         = ImageLayout(vk.ImageLayoutShaderReadOnlyOptimal)
	ImageLayoutTransferSrc                   = ImageLayout(vk.ImageLayoutTransferSrcOptimal)
	ImageLayoutTransferDst                   = ImageLayout(vk.ImageLayoutTransferDstOptimal)
	ImageLayoutPresent                       = ImageLayout(vk.ImageLayoutPresentSrc)
)

func (l ImageLayout) String() string {
	switch l {
	case ImageLayoutUndefined:
		return "Undefined"
	case ImageLayoutGeneral:
		return "General"
	case ImageLayoutColorAttachmentOptimal:
		return "ColorAttachmentOptimal"
	case ImageLayoutDepthStencilAttachmentOptimal:
		return "DepthStencilAttachmentOptimal"
	case ImageLayoutDepthStencilReadOnlyOptimal:
		return "DepthStencilReadOnlyOptimal"
	case ImageLayoutShaderReadOnlyOptimal:
		return "ShaderReadOnlyOptimal"
	case ImageLayoutTransferSrc:
		return "TransferSrc"
	case ImageLayoutTransferDst:
		return "TransferDst"
	case ImageLayoutPresent:
		return "Present"
	}
	return fmt.Sprintf("ImageLayout(%d)", int32(l))
}

/*
Image is a device image with a host side record of its current layout. The
renderer reads the tracked layout to decide on transitions and updates it after
every transition or render pass it records, the implementation only stores it.
*/
type Image interface {
	Handle() vk.Image
	View() vk.ImageView
	Format() vk.Format
	Samples() vk.SampleCountFlagBits
	Extent() vk.Extent2D
	Aspect() ImageAspectFlags
	Layout() ImageLayout
	SetLayout(ImageLayout)
}

// Texture is an Image that can be sampled, the sampler may be created on first use.
type Texture interface {
	Image
	Sampler() vk.Sampler
}

// TextureList is the source of the images bound to a SamplerArray resource.
type TextureList interface {
	Textures() []Texture
}

// Textures is a fixed TextureList.
type Textures []Texture

func (t Textures) Textures() []Texture {
	return t
}

type ImageUsage uint32

const (
	ImageUsageSampledColorAttachment ImageUsage = iota
	ImageUsageSampledDepthAttachment
	ImageUsageSampled
)

func (u ImageUsage) String() string {
	switch u {
	case ImageUsageSampledColorAttachment:
		return "SampledColorAttachment"
	case ImageUsageSampledDepthAttachment:
		return "SampledDepthAttachment"
	case ImageUsageSampled:
		return "Sampled"
	}
	return fmt.Sprintf("ImageUsage(%d)", uint32(u))
}

type ImageDescription struct {
	Name      string
	Extent    vk.Extent2D
	Format    vk.Format
	Usage     ImageUsage
	MipLevels uint32
}
