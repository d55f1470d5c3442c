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
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"

	"goarrg.com/rhi/vxg/internal/util"
)

// ErrSwapchainOutOfDate is returned by the frame when the swapchain no longer matches the surface.
var ErrSwapchainOutOfDate = errors.New("swapchain out of date")

type frameState uint32

const (
	frameStateIdle frameState = iota
	frameStateRecording
	frameStateSubmitted
)

func (s frameState) String() string {
	switch s {
	case frameStateIdle:
		return "Idle"
	case frameStateRecording:
		return "Recording"
	case frameStateSubmitted:
		return "Submitted"
	}
	return fmt.Sprintf("frameState(%d)", uint32(s))
}

type swapchainTarget struct {
	image       Image
	framebuffer vk.Framebuffer
}

/*
Frame is one frame in flight slot. Everything it owns may only be touched
after BeginFrame has waited on the slot's fence, at which point the GPU is
done with the slot's previous submission.
*/
type Frame struct {
	noCopy util.NoCopy
	index  int
	name   string
	ctx    DeviceContext
	driver Driver

	commandPool      vk.CommandPool
	commandBuffer    vk.CommandBuffer
	fence            vk.Fence
	acquireSemaphore vk.Semaphore
	renderSemaphore  vk.Semaphore
	allocator        *DescriptorAllocator
	destroyQueue     []Destroyer

	present    bool
	targets    []swapchainTarget
	imageIndex uint32
	acquired   bool

	state frameState
}

func newFrame(ctx DeviceContext, index int, bankSize int32) (*Frame, error) {
	f := &Frame{
		index:  index,
		name:   fmt.Sprintf("frame_%d", index),
		ctx:    ctx,
		driver: ctx.Driver(),
	}
	f.noCopy.Init()

	var err error
	if f.commandPool, err = ctx.CreateCommandPool(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create command pool for %s", f.name)
	}
	if f.commandBuffer, err = ctx.CreateCommandBuffer(f.commandPool); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create command buffer for %s", f.name)
	}
	if f.fence, err = ctx.CreateFence(true); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create fence for %s", f.name)
	}
	if f.acquireSemaphore, err = ctx.CreateSemaphore(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create image acquired semaphore for %s", f.name)
	}
	if f.renderSemaphore, err = ctx.CreateSemaphore(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create render complete semaphore for %s", f.name)
	}
	f.allocator = newDescriptorAllocator(f.name, f.driver, bankSize)
	return f, nil
}

/*
createSwapchainTargets wraps every swapchain image in a framebuffer of
renderPass, the frame renders into the one matching the image it acquires.
*/
func (f *Frame) createSwapchainTargets(renderPass vk.RenderPass) {
	f.noCopy.Check()
	f.present = true
	extent := f.ctx.Extent()
	for i, img := range f.ctx.SwapchainImages() {
		t := swapchainTarget{image: img}
		info := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{img.View()},
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}
		if ret := f.driver.CreateFramebuffer(&info, &t.framebuffer); ret != vk.Success {
			abort("Failed to create swapchain framebuffer %d for %s: %s", i, f.name, vk.Error(ret))
		}
		f.targets = append(f.targets, t)
	}
}

func (f *Frame) destroySwapchainTargets() {
	for _, t := range f.targets {
		f.driver.DestroyFramebuffer(t.framebuffer)
	}
	f.targets = nil
}

func (f *Frame) Index() int {
	return f.index
}

func (f *Frame) CommandBuffer() vk.CommandBuffer {
	f.noCopy.Check()
	return f.commandBuffer
}

func (f *Frame) DescriptorAllocator() *DescriptorAllocator {
	f.noCopy.Check()
	return f.allocator
}

// Framebuffer is the framebuffer wrapping the swapchain image acquired this frame.
func (f *Frame) Framebuffer() vk.Framebuffer {
	f.noCopy.Check()
	if !f.acquired {
		return vk.Framebuffer(vk.NullHandle)
	}
	return f.targets[f.imageIndex].framebuffer
}

func (f *Frame) SwapchainImage() Image {
	f.noCopy.Check()
	if !f.acquired {
		return nil
	}
	return f.targets[f.imageIndex].image
}

func (f *Frame) ImageIndex() uint32 {
	return f.imageIndex
}

func (f *Frame) Extent() vk.Extent2D {
	return f.ctx.Extent()
}

/*
QueueDestroy defers d.Destroy until the next time this frame slot is begun,
by which point the GPU no longer uses anything recorded into it this time.
*/
func (f *Frame) QueueDestroy(d Destroyer) {
	f.noCopy.Check()
	f.destroyQueue = append(f.destroyQueue, d)
}

func (f *Frame) runDestroyQueue() {
	for i, d := range f.destroyQueue {
		d.Destroy()
		f.destroyQueue[i] = nil
	}
	f.destroyQueue = f.destroyQueue[:0]
}

func (f *Frame) wait() {
	if ret := f.driver.WaitForFences([]vk.Fence{f.fence}, vk.MaxUint64); ret != vk.Success {
		abort("Failed to wait on %s fence: %s", f.name, vk.Error(ret))
	}
}

/*
BeginFrame waits until the slot's previous submission has completed, acquires
the next swapchain image when presenting, resets the slot's descriptor pools
and starts recording. ErrSwapchainOutOfDate leaves the frame idle with its
fence still signaled so it can be begun again after the swapchain is rebuilt.
*/
func (f *Frame) BeginFrame() error {
	f.noCopy.Check()
	if f.state == frameStateRecording {
		abort("BeginFrame called on %s which is already recording", f.name)
	}

	f.wait()
	f.state = frameStateIdle
	f.acquired = false
	f.runDestroyQueue()

	if f.present {
		switch ret := f.driver.AcquireNextImage(f.ctx.Swapchain(), vk.MaxUint64, f.acquireSemaphore, &f.imageIndex); ret {
		case vk.Success, vk.Suboptimal:
		case vk.ErrorOutOfDate:
			return ErrSwapchainOutOfDate
		default:
			abort("Failed to acquire swapchain image for %s: %s", f.name, vk.Error(ret))
		}
		if int(f.imageIndex) >= len(f.targets) {
			abort("Acquired swapchain image %d for %s which only has %d targets", f.imageIndex, f.name, len(f.targets))
		}
		f.acquired = true
	}

	if ret := f.driver.ResetFences([]vk.Fence{f.fence}); ret != vk.Success {
		abort("Failed to reset %s fence: %s", f.name, vk.Error(ret))
	}
	f.allocator.ResetPools()

	if ret := f.driver.BeginCommandBuffer(f.commandBuffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); ret != vk.Success {
		abort("Failed to begin %s command buffer: %s", f.name, vk.Error(ret))
	}
	f.state = frameStateRecording

	if f.acquired {
		img := f.targets[f.imageIndex].image
		img.SetLayout(ImageLayoutUndefined)
		CmdImageBarrier(f.driver, f.commandBuffer, TransitionImage(img, ImageLayoutColorAttachmentOptimal))
	}
	return nil
}

/*
EndFrame submits the recorded commands and presents the acquired image.
ErrSwapchainOutOfDate is returned when the present found the swapchain stale,
the submission itself has happened by then.
*/
func (f *Frame) EndFrame() error {
	f.noCopy.Check()
	if f.state != frameStateRecording {
		abort("EndFrame called on %s in state [%s]", f.name, f.state)
	}

	if ret := f.driver.EndCommandBuffer(f.commandBuffer); ret != vk.Success {
		abort("Failed to end %s command buffer: %s", f.name, vk.Error(ret))
	}

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{f.commandBuffer},
	}
	if f.acquired {
		submit.WaitSemaphoreCount = 1
		submit.PWaitSemaphores = []vk.Semaphore{f.acquireSemaphore}
		submit.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
		submit.SignalSemaphoreCount = 1
		submit.PSignalSemaphores = []vk.Semaphore{f.renderSemaphore}
	}
	if ret := f.driver.QueueSubmit(f.ctx.Queue(), []vk.SubmitInfo{submit}, f.fence); ret != vk.Success {
		abort("Failed to submit %s: %s", f.name, vk.Error(ret))
	}
	f.state = frameStateSubmitted

	if !f.acquired {
		return nil
	}
	switch ret := f.driver.QueuePresent(f.ctx.Queue(), &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.renderSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{f.ctx.Swapchain()},
		PImageIndices:      []uint32{f.imageIndex},
	}); ret {
	case vk.Success:
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return ErrSwapchainOutOfDate
	default:
		abort("Failed to present %s: %s", f.name, vk.Error(ret))
	}
	return nil
}

func (f *Frame) destroy() {
	f.noCopy.Check()
	f.runDestroyQueue()
	f.destroySwapchainTargets()
	f.allocator.destroy()
	f.driver.DestroySemaphore(f.renderSemaphore)
	f.driver.DestroySemaphore(f.acquireSemaphore)
	f.driver.DestroyFence(f.fence)
	f.driver.DestroyCommandPool(f.commandPool)
	f.noCopy.Close()
}
