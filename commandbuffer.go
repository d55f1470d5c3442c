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
	vk "github.com/vulkan-go/vulkan"
)

type ImageBarrierInfo struct {
	Stage  PipelineStage
	Access AccessFlags
	Layout ImageLayout
}

type ImageBarrier struct {
	Image Image
	Src   ImageBarrierInfo
	Dst   ImageBarrierInfo
}

/*
TransitionImage returns a barrier moving img from its tracked layout to
layout, the scopes are derived from the two layouts.
*/
func TransitionImage(img Image, layout ImageLayout) ImageBarrier {
	srcStage, srcAccess := layoutAccess(img.Layout())
	dstStage, dstAccess := layoutAccess(layout)
	return ImageBarrier{
		Image: img,
		Src:   ImageBarrierInfo{Stage: srcStage, Access: srcAccess, Layout: img.Layout()},
		Dst:   ImageBarrierInfo{Stage: dstStage, Access: dstAccess, Layout: layout},
	}
}

/*
CmdImageBarrier records barrier into cb and updates the tracked layout of the
image to the destination layout.
*/
func CmdImageBarrier(driver Driver, cb vk.CommandBuffer, barrier ImageBarrier) {
	if barrier.Image == nil {
		abort("ImageBarrier without an image")
	}
	driver.CmdPipelineBarrier(cb,
		vk.PipelineStageFlags(barrier.Src.Stage), vk.PipelineStageFlags(barrier.Dst.Stage),
		[]vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(barrier.Src.Access),
			DstAccessMask:       vk.AccessFlags(barrier.Dst.Access),
			OldLayout:           vk.ImageLayout(barrier.Src.Layout),
			NewLayout:           vk.ImageLayout(barrier.Dst.Layout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               barrier.Image.Handle(),
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(barrier.Image.Aspect()),
				BaseMipLevel:   0,
				LevelCount:     vk.RemainingMipLevels,
				BaseArrayLayer: 0,
				LayerCount:     vk.RemainingArrayLayers,
			},
		}},
	)
	barrier.Image.SetLayout(barrier.Dst.Layout)
}
