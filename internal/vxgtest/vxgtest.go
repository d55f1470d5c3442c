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

/*
Package vxgtest provides a recording Driver and DeviceContext for testing the
renderer without a GPU. The fake device completes every submission the moment
it is made and reports misuse, like resetting a descriptor pool whose sets are
still in flight or waiting on a fence that can never signal, as test errors.
*/
package vxgtest

import (
	"slices"
	"strings"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg"
)

// ExpectAbort runs fn and fails the test unless it aborts.
func ExpectAbort(tb testing.TB, fn func()) {
	tb.Helper()
	defer func() {
		if r := recover(); r == nil {
			tb.Errorf("expected abort")
		}
	}()
	fn()
}

type Push struct {
	Stages vk.ShaderStageFlags
	Offset uint32
	Data   []byte
}

type Pool struct {
	MaxSets   uint32
	Sizes     []vk.DescriptorPoolSize
	Allocated uint32
}

/*
Driver records every call made through vxg.Driver. Live objects are kept in
maps keyed by handle so tests can check that everything created was destroyed.
*/
type Driver struct {
	tb   testing.TB
	ctx  *Context
	next uintptr

	// Log holds the name of every call in order, tests may append markers of their own.
	Log []string

	RenderPasses        map[vk.RenderPass]vk.RenderPassCreateInfo
	RenderPassesCreated int
	Framebuffers        map[vk.Framebuffer]vk.FramebufferCreateInfo
	FramebuffersCreated int
	Layouts             map[vk.DescriptorSetLayout][]vk.DescriptorSetLayoutBinding
	LayoutFlags         map[vk.DescriptorSetLayout][]vk.DescriptorBindingFlags
	LayoutsCreated      int
	Pools               map[vk.DescriptorPool]*Pool
	PoolsCreated        int
	PoolResets          int

	Fences       map[vk.Fence]bool
	Semaphores   map[vk.Semaphore]bool
	CommandPools map[vk.CommandPool]bool

	Writes          [][]vk.WriteDescriptorSet
	Barriers        []vk.ImageMemoryBarrier
	Pushes          []Push
	RenderPassBegin []vk.RenderPassBeginInfo
	Draws           int
	Dispatches      [][3]uint32
	Submits         int
	Presented       []uint32

	// AcquireResults and PresentResults are consumed one per call, Success is returned once they run out.
	AcquireResults []vk.Result
	PresentResults []vk.Result
	nextImage      uint32

	sets       map[vk.DescriptorSet]vk.DescriptorPool
	inFlight   map[vk.DescriptorSet]vk.Fence
	recorded   []vk.DescriptorSet
	recording  map[vk.CommandBuffer]bool
	renderPass bool
}

var _ vxg.Driver = (*Driver)(nil)

func (d *Driver) handle() unsafe.Pointer {
	d.next++
	return unsafe.Pointer(uintptr(0x10000 + d.next*0x10))
}

func (d *Driver) log(name string) {
	d.Log = append(d.Log, name)
}

// Count returns how many entries of the log equal name.
func (d *Driver) Count(name string) int {
	n := 0
	for _, l := range d.Log {
		if l == name {
			n++
		}
	}
	return n
}

// Filter returns the entries of the log starting with one of prefixes.
func (d *Driver) Filter(prefixes ...string) []string {
	var ret []string
	for _, l := range d.Log {
		for _, p := range prefixes {
			if strings.HasPrefix(l, p) {
				ret = append(ret, l)
				break
			}
		}
	}
	return ret
}

func (d *Driver) checkRecording(cb vk.CommandBuffer, fn string) {
	d.tb.Helper()
	if !d.recording[cb] {
		d.tb.Errorf("%s recorded into a command buffer that is not recording", fn)
	}
}

func (d *Driver) CreateRenderPass(info *vk.RenderPassCreateInfo, renderPass *vk.RenderPass) vk.Result {
	d.log("CreateRenderPass")
	*renderPass = vk.RenderPass(d.handle())
	d.RenderPasses[*renderPass] = *info
	d.RenderPassesCreated++
	return vk.Success
}

func (d *Driver) DestroyRenderPass(renderPass vk.RenderPass) {
	d.log("DestroyRenderPass")
	if _, ok := d.RenderPasses[renderPass]; !ok {
		d.tb.Errorf("DestroyRenderPass on a render pass that is not alive")
	}
	delete(d.RenderPasses, renderPass)
}

func (d *Driver) CreateFramebuffer(info *vk.FramebufferCreateInfo, framebuffer *vk.Framebuffer) vk.Result {
	d.log("CreateFramebuffer")
	if _, ok := d.RenderPasses[info.RenderPass]; !ok {
		d.tb.Errorf("CreateFramebuffer with a render pass that is not alive")
	}
	*framebuffer = vk.Framebuffer(d.handle())
	c := *info
	c.PAttachments = slices.Clone(info.PAttachments)
	d.Framebuffers[*framebuffer] = c
	d.FramebuffersCreated++
	return vk.Success
}

func (d *Driver) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	d.log("DestroyFramebuffer")
	if _, ok := d.Framebuffers[framebuffer]; !ok {
		d.tb.Errorf("DestroyFramebuffer on a framebuffer that is not alive")
	}
	delete(d.Framebuffers, framebuffer)
}

func (d *Driver) CreateDescriptorSetLayout(info *vk.DescriptorSetLayoutCreateInfo, layout *vk.DescriptorSetLayout) vk.Result {
	d.log("CreateDescriptorSetLayout")
	*layout = vk.DescriptorSetLayout(d.handle())
	d.Layouts[*layout] = slices.Clone(info.PBindings)
	if info.PNext != nil {
		flags := vk.NewDescriptorSetLayoutBindingFlagsCreateInfoRef(info.PNext)
		flags.Deref()
		if flags.SType != vk.StructureTypeDescriptorSetLayoutBindingFlagsCreateInfo {
			d.tb.Errorf("CreateDescriptorSetLayout chained an unexpected structure %d", flags.SType)
		} else if flags.BindingCount != info.BindingCount {
			d.tb.Errorf("CreateDescriptorSetLayout got %d binding flags for %d bindings", flags.BindingCount, info.BindingCount)
		} else {
			d.LayoutFlags[*layout] = slices.Clone(flags.PBindingFlags[:flags.BindingCount])
		}
	}
	d.LayoutsCreated++
	return vk.Success
}

func (d *Driver) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	d.log("DestroyDescriptorSetLayout")
	if _, ok := d.Layouts[layout]; !ok {
		d.tb.Errorf("DestroyDescriptorSetLayout on a layout that is not alive")
	}
	delete(d.Layouts, layout)
	delete(d.LayoutFlags, layout)
}

func (d *Driver) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo, pool *vk.DescriptorPool) vk.Result {
	d.log("CreateDescriptorPool")
	*pool = vk.DescriptorPool(d.handle())
	d.Pools[*pool] = &Pool{MaxSets: info.MaxSets, Sizes: slices.Clone(info.PPoolSizes)}
	d.PoolsCreated++
	return vk.Success
}

func (d *Driver) ResetDescriptorPool(pool vk.DescriptorPool) vk.Result {
	d.log("ResetDescriptorPool")
	p, ok := d.Pools[pool]
	if !ok {
		d.tb.Errorf("ResetDescriptorPool on a pool that is not alive")
		return vk.ErrorOutOfHostMemory
	}
	for set, owner := range d.sets {
		if owner != pool {
			continue
		}
		if _, busy := d.inFlight[set]; busy {
			d.tb.Errorf("ResetDescriptorPool while a set allocated from it is still in flight")
		}
		delete(d.sets, set)
		delete(d.inFlight, set)
	}
	p.Allocated = 0
	d.PoolResets++
	return vk.Success
}

func (d *Driver) DestroyDescriptorPool(pool vk.DescriptorPool) {
	d.log("DestroyDescriptorPool")
	if _, ok := d.Pools[pool]; !ok {
		d.tb.Errorf("DestroyDescriptorPool on a pool that is not alive")
	}
	for set, owner := range d.sets {
		if owner == pool {
			delete(d.sets, set)
			delete(d.inFlight, set)
		}
	}
	delete(d.Pools, pool)
}

func (d *Driver) AllocateDescriptorSets(info *vk.DescriptorSetAllocateInfo, set *vk.DescriptorSet) vk.Result {
	d.log("AllocateDescriptorSets")
	p, ok := d.Pools[info.DescriptorPool]
	if !ok {
		d.tb.Errorf("AllocateDescriptorSets from a pool that is not alive")
		return vk.ErrorOutOfHostMemory
	}
	for _, l := range info.PSetLayouts {
		if _, ok := d.Layouts[l]; !ok {
			d.tb.Errorf("AllocateDescriptorSets with a layout that is not alive")
		}
	}
	if p.Allocated >= p.MaxSets {
		d.tb.Errorf("AllocateDescriptorSets from a full pool of %d sets", p.MaxSets)
		return vk.ErrorOutOfHostMemory
	}
	p.Allocated++
	*set = vk.DescriptorSet(d.handle())
	d.sets[*set] = info.DescriptorPool
	return vk.Success
}

func (d *Driver) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	d.log("UpdateDescriptorSets")
	c := make([]vk.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		if _, ok := d.sets[w.DstSet]; !ok {
			d.tb.Errorf("UpdateDescriptorSets writes a set that is not alive")
		}
		c[i] = w
		c[i].PImageInfo = slices.Clone(w.PImageInfo)
		c[i].PBufferInfo = slices.Clone(w.PBufferInfo)
	}
	d.Writes = append(d.Writes, c)
}

func (d *Driver) WaitForFences(fences []vk.Fence, timeout uint64) vk.Result {
	d.log("WaitForFences")
	for _, f := range fences {
		signaled, ok := d.Fences[f]
		if !ok {
			d.tb.Errorf("WaitForFences on a fence that is not alive")
			return vk.ErrorDeviceLost
		}
		if !signaled {
			d.tb.Errorf("WaitForFences on a fence nothing will signal")
			return vk.Timeout
		}
		for set, fence := range d.inFlight {
			if fence == f {
				delete(d.inFlight, set)
			}
		}
	}
	return vk.Success
}

func (d *Driver) ResetFences(fences []vk.Fence) vk.Result {
	d.log("ResetFences")
	for _, f := range fences {
		if _, ok := d.Fences[f]; !ok {
			d.tb.Errorf("ResetFences on a fence that is not alive")
		}
		d.Fences[f] = false
	}
	return vk.Success
}

func (d *Driver) DestroyFence(fence vk.Fence) {
	d.log("DestroyFence")
	if _, ok := d.Fences[fence]; !ok {
		d.tb.Errorf("DestroyFence on a fence that is not alive")
	}
	delete(d.Fences, fence)
}

func (d *Driver) DestroySemaphore(semaphore vk.Semaphore) {
	d.log("DestroySemaphore")
	if !d.Semaphores[semaphore] {
		d.tb.Errorf("DestroySemaphore on a semaphore that is not alive")
	}
	delete(d.Semaphores, semaphore)
}

func (d *Driver) DestroyCommandPool(pool vk.CommandPool) {
	d.log("DestroyCommandPool")
	if !d.CommandPools[pool] {
		d.tb.Errorf("DestroyCommandPool on a pool that is not alive")
	}
	delete(d.CommandPools, pool)
}

func (d *Driver) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, imageIndex *uint32) vk.Result {
	d.log("AcquireNextImage")
	if swapchain != d.ctx.swapchain {
		d.tb.Errorf("AcquireNextImage on a stale swapchain")
	}
	ret := vk.Success
	if len(d.AcquireResults) > 0 {
		ret, d.AcquireResults = d.AcquireResults[0], d.AcquireResults[1:]
	}
	if ret == vk.Success || ret == vk.Suboptimal {
		*imageIndex = d.nextImage
		d.nextImage = (d.nextImage + 1) % uint32(len(d.ctx.images))
	}
	return ret
}

func (d *Driver) QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) vk.Result {
	d.log("QueueSubmit")
	for _, s := range submits {
		for _, cb := range s.PCommandBuffers {
			if d.recording[cb] {
				d.tb.Errorf("QueueSubmit of a command buffer that is still recording")
			}
		}
	}
	if signaled, ok := d.Fences[fence]; !ok || signaled {
		d.tb.Errorf("QueueSubmit with a fence that is not alive and unsignaled")
	}
	for _, set := range d.recorded {
		d.inFlight[set] = fence
	}
	d.recorded = d.recorded[:0]
	d.Fences[fence] = true
	d.Submits++
	return vk.Success
}

func (d *Driver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	d.log("QueuePresent")
	d.Presented = append(d.Presented, info.PImageIndices...)
	ret := vk.Success
	if len(d.PresentResults) > 0 {
		ret, d.PresentResults = d.PresentResults[0], d.PresentResults[1:]
	}
	return ret
}

func (d *Driver) BeginCommandBuffer(cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
	d.log("BeginCommandBuffer")
	if d.recording[cb] {
		d.tb.Errorf("BeginCommandBuffer on a command buffer that is already recording")
	}
	d.recording[cb] = true
	return vk.Success
}

func (d *Driver) EndCommandBuffer(cb vk.CommandBuffer) vk.Result {
	d.log("EndCommandBuffer")
	d.checkRecording(cb, "EndCommandBuffer")
	if d.renderPass {
		d.tb.Errorf("EndCommandBuffer inside a render pass")
	}
	d.recording[cb] = false
	return vk.Success
}

func (d *Driver) CmdPipelineBarrier(cb vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	d.log("CmdPipelineBarrier")
	d.checkRecording(cb, "CmdPipelineBarrier")
	if d.renderPass {
		d.tb.Errorf("CmdPipelineBarrier inside a render pass")
	}
	if srcStage == 0 || dstStage == 0 {
		d.tb.Errorf("CmdPipelineBarrier with an empty stage mask")
	}
	d.Barriers = append(d.Barriers, barriers...)
}

func (d *Driver) CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	d.log("CmdBeginRenderPass")
	d.checkRecording(cb, "CmdBeginRenderPass")
	if d.renderPass {
		d.tb.Errorf("CmdBeginRenderPass inside a render pass")
	}
	if _, ok := d.Framebuffers[info.Framebuffer]; !ok {
		d.tb.Errorf("CmdBeginRenderPass with a framebuffer that is not alive")
	}
	d.renderPass = true
	d.RenderPassBegin = append(d.RenderPassBegin, *info)
}

func (d *Driver) CmdEndRenderPass(cb vk.CommandBuffer) {
	d.log("CmdEndRenderPass")
	d.checkRecording(cb, "CmdEndRenderPass")
	if !d.renderPass {
		d.tb.Errorf("CmdEndRenderPass outside of a render pass")
	}
	d.renderPass = false
}

func (d *Driver) CmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport) {
	d.log("CmdSetViewport")
	d.checkRecording(cb, "CmdSetViewport")
}

func (d *Driver) CmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D) {
	d.log("CmdSetScissor")
	d.checkRecording(cb, "CmdSetScissor")
}

func (d *Driver) CmdSetDepthBias(cb vk.CommandBuffer, constantFactor, clamp, slopeFactor float32) {
	d.log("CmdSetDepthBias")
	d.checkRecording(cb, "CmdSetDepthBias")
}

func (d *Driver) CmdBindDescriptorSets(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	d.log("CmdBindDescriptorSets")
	d.checkRecording(cb, "CmdBindDescriptorSets")
	for _, s := range sets {
		if _, ok := d.sets[s]; !ok {
			d.tb.Errorf("CmdBindDescriptorSets binds a set that is not alive")
		}
	}
	d.recorded = append(d.recorded, sets...)
}

func (d *Driver) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	d.log("CmdPushConstants")
	d.checkRecording(cb, "CmdPushConstants")
	d.Pushes = append(d.Pushes, Push{Stages: stages, Offset: offset, Data: slices.Clone(data)})
}

func (d *Driver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.log("CmdDraw")
	d.checkRecording(cb, "CmdDraw")
	if !d.renderPass {
		d.tb.Errorf("CmdDraw outside of a render pass")
	}
	d.Draws++
}

func (d *Driver) CmdDispatch(cb vk.CommandBuffer, x, y, z uint32) {
	d.log("CmdDispatch")
	d.checkRecording(cb, "CmdDispatch")
	if d.renderPass {
		d.tb.Errorf("CmdDispatch inside a render pass")
	}
	d.Dispatches = append(d.Dispatches, [3]uint32{x, y, z})
}

// Recording reports whether cb is between BeginCommandBuffer and EndCommandBuffer.
func (d *Driver) Recording(cb vk.CommandBuffer) bool {
	return d.recording[cb]
}

// Context is a fake vxg.DeviceContext whose swapchain images are Images.
type Context struct {
	driver    *Driver
	device    vk.Device
	queue     vk.Queue
	swapchain vk.Swapchain
	format    vk.Format
	extent    vk.Extent2D
	images    []vxg.Image

	// Textures holds every texture created through CreateTexture.
	Textures []*Texture
	// NextExtent, when not zero, is the extent the swapchain has after the next recreation.
	NextExtent       vk.Extent2D
	Recreations      int
	WaitIdles        int
	ImmediateSubmits int
}

var _ vxg.DeviceContext = (*Context)(nil)

/*
NewContext returns a context with imageCount swapchain images of 640x480
BGRA8. Problems the fake device detects are reported through tb.
*/
func NewContext(tb testing.TB, imageCount int) *Context {
	d := &Driver{
		tb:           tb,
		RenderPasses: map[vk.RenderPass]vk.RenderPassCreateInfo{},
		Framebuffers: map[vk.Framebuffer]vk.FramebufferCreateInfo{},
		Layouts:      map[vk.DescriptorSetLayout][]vk.DescriptorSetLayoutBinding{},
		LayoutFlags:  map[vk.DescriptorSetLayout][]vk.DescriptorBindingFlags{},
		Pools:        map[vk.DescriptorPool]*Pool{},
		Fences:       map[vk.Fence]bool{},
		Semaphores:   map[vk.Semaphore]bool{},
		CommandPools: map[vk.CommandPool]bool{},
		sets:         map[vk.DescriptorSet]vk.DescriptorPool{},
		inFlight:     map[vk.DescriptorSet]vk.Fence{},
		recording:    map[vk.CommandBuffer]bool{},
	}
	c := &Context{
		driver: d,
		format: vk.FormatB8g8r8a8Unorm,
		extent: vk.Extent2D{Width: 640, Height: 480},
	}
	d.ctx = c
	c.device = vk.Device(d.handle())
	c.queue = vk.Queue(d.handle())
	c.createSwapchain(imageCount)
	return c
}

func (c *Context) createSwapchain(imageCount int) {
	c.swapchain = vk.Swapchain(c.driver.handle())
	c.images = make([]vxg.Image, imageCount)
	for i := range c.images {
		c.images[i] = NewImage(c.driver, "swapchain", c.format, c.extent)
	}
	c.driver.nextImage = 0
}

// FakeDriver returns the recording driver, Driver returns the same value as a vxg.Driver.
func (c *Context) FakeDriver() *Driver {
	return c.driver
}

func (c *Context) Driver() vxg.Driver           { return c.driver }
func (c *Context) Device() vk.Device            { return c.device }
func (c *Context) Queue() vk.Queue              { return c.queue }
func (c *Context) Swapchain() vk.Swapchain      { return c.swapchain }
func (c *Context) SwapchainFormat() vk.Format   { return c.format }
func (c *Context) SwapchainImages() []vxg.Image { return slices.Clone(c.images) }
func (c *Context) Extent() vk.Extent2D          { return c.extent }

func (c *Context) CreateCommandPool() (vk.CommandPool, error) {
	p := vk.CommandPool(c.driver.handle())
	c.driver.CommandPools[p] = true
	return p, nil
}

func (c *Context) CreateCommandBuffer(pool vk.CommandPool) (vk.CommandBuffer, error) {
	if !c.driver.CommandPools[pool] {
		c.driver.tb.Errorf("CreateCommandBuffer from a pool that is not alive")
	}
	return vk.CommandBuffer(c.driver.handle()), nil
}

func (c *Context) CreateFence(signaled bool) (vk.Fence, error) {
	f := vk.Fence(c.driver.handle())
	c.driver.Fences[f] = signaled
	return f, nil
}

func (c *Context) CreateSemaphore() (vk.Semaphore, error) {
	s := vk.Semaphore(c.driver.handle())
	c.driver.Semaphores[s] = true
	return s, nil
}

func (c *Context) CreateTexture(desc vxg.ImageDescription) (vxg.Texture, error) {
	t := NewTexture(c.driver, desc.Name, desc.Format, desc.Extent)
	c.Textures = append(c.Textures, t)
	return t, nil
}

func (c *Context) RecreateSwapchain() error {
	c.Recreations++
	if c.NextExtent.Width != 0 && c.NextExtent.Height != 0 {
		c.extent = c.NextExtent
		c.NextExtent = vk.Extent2D{}
	}
	c.createSwapchain(len(c.images))
	return nil
}

func (c *Context) WaitIdle() {
	c.WaitIdles++
	c.driver.log("WaitIdle")
}

func (c *Context) ImmediateSubmit(record func(cb vk.CommandBuffer)) error {
	c.ImmediateSubmits++
	cb := vk.CommandBuffer(c.driver.handle())
	c.driver.recording[cb] = true
	record(cb)
	delete(c.driver.recording, cb)
	return nil
}

// Image is a fake vxg.Image, its layout only changes through SetLayout.
type Image struct {
	Name    string
	handle  vk.Image
	view    vk.ImageView
	format  vk.Format
	extent  vk.Extent2D
	aspect  vxg.ImageAspectFlags
	layout  vxg.ImageLayout
	samples vk.SampleCountFlagBits
}

var _ vxg.Image = (*Image)(nil)

// NewImage returns a single sampled color image in the undefined layout.
func NewImage(d *Driver, name string, format vk.Format, extent vk.Extent2D) *Image {
	return &Image{
		Name:    name,
		handle:  vk.Image(d.handle()),
		view:    vk.ImageView(d.handle()),
		format:  format,
		extent:  extent,
		aspect:  vxg.ImageAspectColor,
		layout:  vxg.ImageLayoutUndefined,
		samples: vk.SampleCount1Bit,
	}
}

// NewDepthImage returns a depth only image in the undefined layout.
func NewDepthImage(d *Driver, name string, extent vk.Extent2D) *Image {
	img := NewImage(d, name, vk.FormatD32Sfloat, extent)
	img.aspect = vxg.ImageAspectDepth
	return img
}

func (i *Image) Handle() vk.Image                 { return i.handle }
func (i *Image) View() vk.ImageView               { return i.view }
func (i *Image) Format() vk.Format                { return i.format }
func (i *Image) Samples() vk.SampleCountFlagBits  { return i.samples }
func (i *Image) Extent() vk.Extent2D              { return i.extent }
func (i *Image) Aspect() vxg.ImageAspectFlags     { return i.aspect }
func (i *Image) Layout() vxg.ImageLayout          { return i.layout }
func (i *Image) SetLayout(layout vxg.ImageLayout) { i.layout = layout }

// Texture is a fake vxg.Texture that counts how often it was destroyed.
type Texture struct {
	*Image
	sampler   vk.Sampler
	Destroyed int
}

var _ vxg.Texture = (*Texture)(nil)

func NewTexture(d *Driver, name string, format vk.Format, extent vk.Extent2D) *Texture {
	return &Texture{Image: NewImage(d, name, format, extent), sampler: vk.Sampler(d.handle())}
}

// NewSampledTexture returns a texture already in the shader read only layout.
func NewSampledTexture(d *Driver, name string) *Texture {
	t := NewTexture(d, name, vk.FormatR8g8b8a8Unorm, vk.Extent2D{Width: 1, Height: 1})
	t.SetLayout(vxg.ImageLayoutShaderReadOnlyOptimal)
	return t
}

func (t *Texture) Sampler() vk.Sampler {
	return t.sampler
}

func (t *Texture) Destroy() {
	t.Destroyed++
}

// Buffer is a fake vxg.Buffer.
type Buffer struct {
	handle vk.Buffer
	size   uint64
}

var _ vxg.Buffer = (*Buffer)(nil)

func NewBuffer(d *Driver, size uint64) *Buffer {
	return &Buffer{handle: vk.Buffer(d.handle()), size: size}
}

func (b *Buffer) Handle() vk.Buffer { return b.handle }
func (b *Buffer) Size() uint64      { return b.size }

/*
Shader is a fake vxg.Shader recording every PipelineInfo it is generated
with. Binds are logged as "Bind:<name>".
*/
type Shader struct {
	Name      string
	Generated []vxg.PipelineInfo
	// Err is returned from Generate when set.
	Err    error
	driver *Driver
	layout vk.PipelineLayout
}

var _ vxg.Shader = (*Shader)(nil)

func NewShader(d *Driver, name string) *Shader {
	return &Shader{Name: name, driver: d, layout: vk.PipelineLayout(d.handle())}
}

func (s *Shader) Generate(info vxg.PipelineInfo) error {
	if s.Err != nil {
		return s.Err
	}
	s.Generated = append(s.Generated, info)
	return nil
}

func (s *Shader) Bind(cb vk.CommandBuffer) {
	s.driver.log("Bind:" + s.Name)
	s.driver.checkRecording(cb, "Bind")
	if len(s.Generated) == 0 {
		s.driver.tb.Errorf("Shader %q bound before a pipeline was generated", s.Name)
	}
}

func (s *Shader) PipelineLayout() vk.PipelineLayout {
	return s.layout
}

// Mesh is a fake vxg.Mesh, draws are logged as "Draw:<name>".
type Mesh struct {
	Name   string
	Model  mgl32.Mat4
	Draws  int
	driver *Driver
}

var _ vxg.Mesh = (*Mesh)(nil)

func NewMesh(d *Driver, name string, model mgl32.Mat4) *Mesh {
	return &Mesh{Name: name, Model: model, driver: d}
}

func (m *Mesh) ModelMatrix() mgl32.Mat4 {
	return m.Model
}

func (m *Mesh) Draw(cb vk.CommandBuffer) {
	m.driver.log("Draw:" + m.Name)
	m.driver.checkRecording(cb, "Draw")
	if !m.driver.renderPass {
		m.driver.tb.Errorf("Mesh %q drawn outside of a render pass", m.Name)
	}
	m.Draws++
}

// Overlay is a fake vxg.Overlay remembering the render pass it was created for.
type Overlay struct {
	RenderPass vk.RenderPass
	Draws      int
	driver     *Driver
}

var _ vxg.Overlay = (*Overlay)(nil)

// OverlayFactory returns a factory storing the overlay it creates in *out.
func OverlayFactory(d *Driver, out **Overlay) vxg.OverlayFactory {
	return func(renderPass vk.RenderPass) vxg.Overlay {
		*out = &Overlay{RenderPass: renderPass, driver: d}
		return *out
	}
}

func (o *Overlay) Draw(cb vk.CommandBuffer) {
	o.driver.log("DrawOverlay")
	o.driver.checkRecording(cb, "DrawOverlay")
	if !o.driver.renderPass {
		o.driver.tb.Errorf("Overlay drawn outside of a render pass")
	}
	o.Draws++
}
