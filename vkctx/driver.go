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
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/rhi/vxg"
)

// driver binds the renderer's entry points to a device.
type driver struct {
	device vk.Device
}

var _ vxg.Driver = (*driver)(nil)

func (d *driver) CreateRenderPass(info *vk.RenderPassCreateInfo, renderPass *vk.RenderPass) vk.Result {
	return vk.CreateRenderPass(d.device, info, nil, renderPass)
}

func (d *driver) DestroyRenderPass(renderPass vk.RenderPass) {
	vk.DestroyRenderPass(d.device, renderPass, nil)
}

func (d *driver) CreateFramebuffer(info *vk.FramebufferCreateInfo, framebuffer *vk.Framebuffer) vk.Result {
	return vk.CreateFramebuffer(d.device, info, nil, framebuffer)
}

func (d *driver) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(d.device, framebuffer, nil)
}

func (d *driver) CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo, layout *vk.DescriptorSetLayout) vk.Result {
	return vk.CreateDescriptorSetLayout(d.device, info, nil, layout)
}

func (d *driver) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(d.device, layout, nil)
}

func (d *driver) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo, pool *vk.DescriptorPool) vk.Result {
	return vk.CreateDescriptorPool(d.device, info, nil, pool)
}

func (d *driver) ResetDescriptorPool(pool vk.DescriptorPool) vk.Result {
	return vk.ResetDescriptorPool(d.device, pool, 0)
}

func (d *driver) DestroyDescriptorPool(pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(d.device, pool, nil)
}

func (d *driver) AllocateDescriptorSets(info *vk.DescriptorSetAllocateInfo, set *vk.DescriptorSet) vk.Result {
	return vk.AllocateDescriptorSets(d.device, info, set)
}

func (d *driver) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(d.device, uint32(len(writes)), writes, 0, nil)
}

func (d *driver) WaitForFences(fences []vk.Fence, timeout uint64) vk.Result {
	return vk.WaitForFences(d.device, uint32(len(fences)), fences, vk.True, timeout)
}

func (d *driver) ResetFences(fences []vk.Fence) vk.Result {
	return vk.ResetFences(d.device, uint32(len(fences)), fences)
}

func (d *driver) DestroyFence(fence vk.Fence) {
	vk.DestroyFence(d.device, fence, nil)
}

func (d *driver) DestroySemaphore(semaphore vk.Semaphore) {
	vk.DestroySemaphore(d.device, semaphore, nil)
}

func (d *driver) DestroyCommandPool(pool vk.CommandPool) {
	vk.DestroyCommandPool(d.device, pool, nil)
}

func (d *driver) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, imageIndex *uint32) vk.Result {
	return vk.AcquireNextImage(d.device, swapchain, timeout, semaphore, vk.Fence(vk.NullHandle), imageIndex)
}

func (d *driver) QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
	return vk.QueueSubmit(queue, uint32(len(submits)), submits, fence)
}

func (d *driver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(queue, info)
}

func (d *driver) BeginCommandBuffer(cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
	return vk.BeginCommandBuffer(cb, info)
}

func (d *driver) EndCommandBuffer(cb vk.CommandBuffer) vk.Result {
	return vk.EndCommandBuffer(cb)
}

func (d *driver) CmdPipelineBarrier(cb vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cb, srcStage, dstStage, 0, 0, nil, 0, nil, uint32(len(barriers)), barriers)
}

func (d *driver) CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(cb, info, vk.SubpassContentsInline)
}

func (d *driver) CmdEndRenderPass(cb vk.CommandBuffer) {
	vk.CmdEndRenderPass(cb)
}

func (d *driver) CmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{viewport})
}

func (d *driver) CmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{scissor})
}

func (d *driver) CmdSetDepthBias(cb vk.CommandBuffer, constantFactor, clamp, slopeFactor float32) {
	vk.CmdSetDepthBias(cb, constantFactor, clamp, slopeFactor)
}

func (d *driver) CmdBindDescriptorSets(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(cb, bindPoint, layout, firstSet, uint32(len(sets)), sets, 0, nil)
}

func (d *driver) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(cb, layout, stages, offset, uint32(len(data)), unsafe.Pointer(unsafe.SliceData(data)))
}

func (d *driver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cb, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *driver) CmdDispatch(cb vk.CommandBuffer, x, y, z uint32) {
	vk.CmdDispatch(cb, x, y, z)
}
