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
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// stagePass is the closed set of ways a stage is recorded, one variant per group of StageTypes.
type stagePass interface {
	record(s *Stage, f *Frame)
}

type (
	rasterPass  struct{}
	computePass struct{}
	blitPass    struct{}
	overlayPass struct {
		overlay Overlay
	}
)

func newStagePass(t StageType) stagePass {
	switch t {
	case StageTypeForwardGraphics, StageTypeDeferredGraphics:
		return &rasterPass{}
	case StageTypeForwardCompute, StageTypeDeferredCompute:
		return &computePass{}
	case StageTypeBlit:
		return &blitPass{}
	case StageTypeOverlay:
		return &overlayPass{}
	}
	abort("Invalid StageType: %s", t)
	return nil
}

func copyMatrix(dst []byte, m *mgl32.Mat4) {
	copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(m)), unsafe.Sizeof(*m)))
}

func beginRenderPass(s *Stage, cb vk.CommandBuffer, framebuffer vk.Framebuffer, extent vk.Extent2D) {
	s.driver.CmdBeginRenderPass(cb, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  s.renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(s.clearValues)),
		PClearValues:    s.clearValues,
	})
}

func setDynamicState(s *Stage, cb vk.CommandBuffer, extent vk.Extent2D) {
	s.driver.CmdSetViewport(cb, vk.Viewport{
		X: 0, Y: 0,
		Width: float32(extent.Width), Height: float32(extent.Height),
		MinDepth: 0, MaxDepth: 1,
	})
	s.driver.CmdSetScissor(cb, vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	})
	s.driver.CmdSetDepthBias(cb, 0, 0, 0)
}

func (*rasterPass) record(s *Stage, f *Frame) {
	cb := f.CommandBuffer()
	beginRenderPass(s, cb, s.framebuffer, s.extent)
	setDynamicState(s, cb, s.extent)

	s.info.Shader.Bind(cb)
	s.BindResources(f)
	for _, m := range s.info.Meshes {
		s.pushMeshConstants(cb, m)
		m.Draw(cb)
		s.stats.DrawCalls++
	}

	s.driver.CmdEndRenderPass(cb)
}

func (*blitPass) record(s *Stage, f *Frame) {
	framebuffer, extent := f.Framebuffer(), f.Extent()
	if framebuffer == vk.Framebuffer(vk.NullHandle) {
		abort("Blit stage %q recorded into frame %d which has no swapchain framebuffer", s.info.Name, f.Index())
	}

	cb := f.CommandBuffer()
	beginRenderPass(s, cb, framebuffer, extent)
	setDynamicState(s, cb, extent)

	s.info.Shader.Bind(cb)
	s.BindResources(f)
	s.driver.CmdDraw(cb, 3, 1, 0, 0)
	s.stats.DrawCalls++

	s.driver.CmdEndRenderPass(cb)
}

func (*computePass) record(s *Stage, f *Frame) {
	cb := f.CommandBuffer()
	s.info.Shader.Bind(cb)
	s.BindResources(f)
	s.driver.CmdDispatch(cb, s.info.GroupCounts.X, s.info.GroupCounts.Y, s.info.GroupCounts.Z)
	s.stats.Dispatches++
}

func (p *overlayPass) record(s *Stage, f *Frame) {
	if p.overlay == nil {
		abort("Overlay stage %q has no overlay", s.info.Name)
	}
	cb := f.CommandBuffer()
	beginRenderPass(s, cb, s.framebuffer, s.extent)
	p.overlay.Draw(cb)
	s.driver.CmdEndRenderPass(cb)
}
