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
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

/*
Driver is the set of native device entry points the renderer issues. The
methods mirror the matching vk functions with the device argument bound,
results are returned unchanged so callers decide what is fatal.
*/
type Driver interface {
	CreateRenderPass(info *vk.RenderPassCreateInfo, renderPass *vk.RenderPass) vk.Result
	DestroyRenderPass(renderPass vk.RenderPass)
	CreateFramebuffer(info *vk.FramebufferCreateInfo, framebuffer *vk.Framebuffer) vk.Result
	DestroyFramebuffer(framebuffer vk.Framebuffer)

	CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo, layout *vk.DescriptorSetLayout) vk.Result
	DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout)
	CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo, pool *vk.DescriptorPool) vk.Result
	ResetDescriptorPool(pool vk.DescriptorPool) vk.Result
	DestroyDescriptorPool(pool vk.DescriptorPool)
	AllocateDescriptorSets(info *vk.DescriptorSetAllocateInfo, set *vk.DescriptorSet) vk.Result
	UpdateDescriptorSets(writes []vk.WriteDescriptorSet)

	WaitForFences(fences []vk.Fence, timeout uint64) vk.Result
	ResetFences(fences []vk.Fence) vk.Result
	DestroyFence(fence vk.Fence)
	DestroySemaphore(semaphore vk.Semaphore)
	DestroyCommandPool(pool vk.CommandPool)

	AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, imageIndex *uint32) vk.Result
	QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) vk.Result
	QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result

	BeginCommandBuffer(cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result
	EndCommandBuffer(cb vk.CommandBuffer) vk.Result

	CmdPipelineBarrier(cb vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier)
	CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo)
	CmdEndRenderPass(cb vk.CommandBuffer)
	CmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D)
	CmdSetDepthBias(cb vk.CommandBuffer, constantFactor, clamp, slopeFactor float32)
	CmdBindDescriptorSets(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet)
	CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte)
	CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDispatch(cb vk.CommandBuffer, x, y, z uint32)
}

/*
DeviceContext is the device, queue and swapchain the renderer runs on. It is
created and owned by the application and must outlive every Renderer using it.
*/
type DeviceContext interface {
	Driver() Driver

	Device() vk.Device
	Queue() vk.Queue
	Swapchain() vk.Swapchain
	SwapchainFormat() vk.Format
	SwapchainImages() []Image
	Extent() vk.Extent2D

	CreateCommandPool() (vk.CommandPool, error)
	CreateCommandBuffer(pool vk.CommandPool) (vk.CommandBuffer, error)
	CreateFence(signaled bool) (vk.Fence, error)
	CreateSemaphore() (vk.Semaphore, error)
	CreateTexture(desc ImageDescription) (Texture, error)

	// RecreateSwapchain rebuilds the swapchain for the current surface size,
	// images returned by SwapchainImages before the call are invalid after it.
	RecreateSwapchain() error
	WaitIdle()
	ImmediateSubmit(record func(cb vk.CommandBuffer)) error
}

type Mesh interface {
	ModelMatrix() mgl32.Mat4
	Draw(cb vk.CommandBuffer)
}

type Overlay interface {
	Draw(cb vk.CommandBuffer)
}

// OverlayFactory creates the overlay drawn by an Overlay stage from that stage's render pass.
type OverlayFactory func(renderPass vk.RenderPass) Overlay

type Buffer interface {
	Handle() vk.Buffer
	Size() uint64
}

type Destroyer interface {
	Destroy()
}
