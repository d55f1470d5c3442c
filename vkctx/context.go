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

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/util"
)

/*
Context is a single queue Vulkan device presenting to a glfw window. The
queue family is required to support graphics, compute and presentation so
every submission of the renderer goes through the one queue.
*/
type Context struct {
	noCopy util.NoCopy
	cfg    Config
	window *glfw.Window

	instance       vk.Instance
	debugCallback  vk.DebugReportCallback
	surface        vk.Surface
	physicalDevice vk.PhysicalDevice
	memory         vk.PhysicalDeviceMemoryProperties
	queueFamily    uint32
	device         vk.Device
	queue          vk.Queue
	driver         *driver

	swapchain swapchain

	immediatePool  vk.CommandPool
	immediateFence vk.Fence
}

var _ vxg.DeviceContext = (*Context)(nil)

/*
New creates the instance, device and swapchain for window. The window must
have been created with the glfw.NoAPI client hint and glfw must stay
initialized until Destroy.
*/
func New(window *glfw.Window, cfg Config) (*Context, error) {
	if cfg.AppName == "" {
		cfg.AppName = "vxg"
	}
	c := &Context{cfg: cfg, window: window}
	c.noCopy.Init()
	instance.logger.IPrintf("Creating context with config: %s", mustJSON(&c.cfg))

	steps := []struct {
		name string
		f    func() error
	}{
		{"instance", c.createInstance},
		{"debug callback", c.createDebugCallback},
		{"surface", c.createSurface},
		{"physical device", c.pickPhysicalDevice},
		{"device", c.createDevice},
		{"swapchain", func() error { return c.createSwapchain(vk.Swapchain(vk.NullHandle)) }},
		{"immediate submit", c.createImmediate},
	}
	for _, s := range steps {
		if err := s.f(); err != nil {
			c.release()
			return nil, debug.ErrorWrapf(err, "Failed to create %s", s.name)
		}
		instance.logger.VPrintf("Created %s", s.name)
	}
	return c, nil
}

func (c *Context) createInstance() error {
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return err
	}
	if !glfw.VulkanSupported() {
		return debug.Errorf("glfw did not find a Vulkan loader")
	}
	if c.cfg.EnableValidation && !validationLayersSupported() {
		instance.logger.WPrintf("Validation layers requested but not available, continuing without them")
		c.cfg.EnableValidation = false
	}

	extensions := c.window.GetRequiredInstanceExtensions()
	if c.cfg.EnableValidation {
		extensions = append(extensions, "VK_EXT_debug_report\x00")
	}
	info := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   c.cfg.AppName + "\x00",
			ApplicationVersion: vk.MakeVersion(0, 1, 0),
			PEngineName:        "vxg\x00",
			EngineVersion:      vk.MakeVersion(0, 1, 0),
			ApiVersion:         vk.MakeVersion(1, 1, 0),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if c.cfg.EnableValidation {
		info.EnabledLayerCount = uint32(len(validationLayers))
		info.PpEnabledLayerNames = validationLayers
	}
	if ret := vk.CreateInstance(&info, nil, &c.instance); ret != vk.Success {
		return vkError(ret, "vkCreateInstance")
	}
	return vk.InitInstance(c.instance)
}

func validationLayersSupported() bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	props := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, props) != vk.Success {
		return false
	}
	supported := map[string]bool{}
	for i := range props {
		props[i].Deref()
		supported[vk.ToString(props[i].LayerName[:])] = true
	}
	for _, l := range validationLayers {
		if !supported[l[:len(l)-1]] {
			return false
		}
	}
	return true
}

func (c *Context) createDebugCallback() error {
	if !c.cfg.EnableValidation {
		return nil
	}
	info := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint,
			messageCode int32, layerPrefix string, message string, userData unsafe.Pointer,
		) vk.Bool32 {
			switch {
			case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
				instance.logger.EPrintf("[%s] %s", layerPrefix, message)
			case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
				instance.logger.WPrintf("[%s] %s", layerPrefix, message)
			default:
				instance.logger.VPrintf("[%s] %s", layerPrefix, message)
			}
			return vk.False
		},
	}
	if ret := vk.CreateDebugReportCallback(c.instance, &info, nil, &c.debugCallback); ret != vk.Success {
		return vkError(ret, "vkCreateDebugReportCallbackEXT")
	}
	return nil
}

func (c *Context) createSurface() error {
	surface, err := c.window.CreateWindowSurface(c.instance, nil)
	if err != nil {
		return err
	}
	c.surface = vk.SurfaceFromPointer(surface)
	return nil
}

func (c *Context) findQueueFamily(device vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, props)

	want := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit)
	for i := range props {
		props[i].Deref()
		if props[i].QueueFlags&want != want {
			continue
		}
		var present vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), c.surface, &present)
		if present == vk.True {
			return uint32(i), true
		}
	}
	return 0, false
}

func deviceExtensionsSupported(device vk.PhysicalDevice) bool {
	var count uint32
	if vk.EnumerateDeviceExtensionProperties(device, "", &count, nil) != vk.Success {
		return false
	}
	props := make([]vk.ExtensionProperties, count)
	if vk.EnumerateDeviceExtensionProperties(device, "", &count, props) != vk.Success {
		return false
	}
	supported := map[string]bool{}
	for i := range props {
		props[i].Deref()
		supported[vk.ToString(props[i].ExtensionName[:])] = true
	}
	for _, e := range deviceExtensions {
		if !supported[e[:len(e)-1]] {
			return false
		}
	}
	return true
}

func deviceScore(device vk.PhysicalDevice) int {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &props)
	props.Deref()

	switch props.DeviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 500
	default:
		return 100
	}
}

func (c *Context) pickPhysicalDevice() error {
	var count uint32
	if ret := vk.EnumeratePhysicalDevices(c.instance, &count, nil); ret != vk.Success {
		return vkError(ret, "vkEnumeratePhysicalDevices")
	}
	devices := make([]vk.PhysicalDevice, count)
	if ret := vk.EnumeratePhysicalDevices(c.instance, &count, devices); ret != vk.Success {
		return vkError(ret, "vkEnumeratePhysicalDevices")
	}

	best := -1
	for _, d := range devices {
		family, ok := c.findQueueFamily(d)
		if !ok || !deviceExtensionsSupported(d) {
			continue
		}
		if s := querySurfaceSupport(d, c.surface); len(s.formats) == 0 || len(s.presentModes) == 0 {
			continue
		}
		if score := deviceScore(d); score > best {
			best = score
			c.physicalDevice = d
			c.queueFamily = family
		}
	}
	if best < 0 {
		return debug.Errorf("No suitable GPU found among %d devices", count)
	}

	vk.GetPhysicalDeviceMemoryProperties(c.physicalDevice, &c.memory)
	c.memory.Deref()
	return nil
}

func (c *Context) createDevice() error {
	// SamplerArray bindings are partially bound.
	indexing := vk.PhysicalDeviceDescriptorIndexingFeatures{
		SType:                           vk.StructureTypePhysicalDeviceDescriptorIndexingFeatures,
		DescriptorBindingPartiallyBound: vk.True,
	}
	indexing.PassRef()
	defer indexing.Free()

	info := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		PNext:                unsafe.Pointer(indexing.Ref()),
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: c.queueFamily,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	if c.cfg.EnableValidation {
		info.EnabledLayerCount = uint32(len(validationLayers))
		info.PpEnabledLayerNames = validationLayers
	}
	if ret := vk.CreateDevice(c.physicalDevice, &info, nil, &c.device); ret != vk.Success {
		return vkError(ret, "vkCreateDevice")
	}
	vk.GetDeviceQueue(c.device, c.queueFamily, 0, &c.queue)
	c.driver = &driver{device: c.device}
	return nil
}

func (c *Context) createImmediate() error {
	var err error
	if c.immediatePool, err = c.CreateCommandPool(); err != nil {
		return err
	}
	c.immediateFence, err = c.CreateFence(false)
	return err
}

func (c *Context) Driver() vxg.Driver {
	c.noCopy.Check()
	return c.driver
}

func (c *Context) Device() vk.Device {
	c.noCopy.Check()
	return c.device
}

func (c *Context) Queue() vk.Queue {
	c.noCopy.Check()
	return c.queue
}

func (c *Context) CreateCommandPool() (vk.CommandPool, error) {
	var pool vk.CommandPool
	if ret := vk.CreateCommandPool(c.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: c.queueFamily,
	}, nil, &pool); ret != vk.Success {
		return pool, vkError(ret, "vkCreateCommandPool")
	}
	return pool, nil
}

func (c *Context) CreateCommandBuffer(pool vk.CommandPool) (vk.CommandBuffer, error) {
	cbs := make([]vk.CommandBuffer, 1)
	if ret := vk.AllocateCommandBuffers(c.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cbs); ret != vk.Success {
		return nil, vkError(ret, "vkAllocateCommandBuffers")
	}
	return cbs[0], nil
}

func (c *Context) CreateFence(signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if ret := vk.CreateFence(c.device, &info, nil, &fence); ret != vk.Success {
		return fence, vkError(ret, "vkCreateFence")
	}
	return fence, nil
}

func (c *Context) CreateSemaphore() (vk.Semaphore, error) {
	var semaphore vk.Semaphore
	if ret := vk.CreateSemaphore(c.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &semaphore); ret != vk.Success {
		return semaphore, vkError(ret, "vkCreateSemaphore")
	}
	return semaphore, nil
}

func (c *Context) WaitIdle() {
	c.noCopy.Check()
	if ret := vk.DeviceWaitIdle(c.device); ret != vk.Success {
		instance.logger.EPrintf("vkDeviceWaitIdle failed: %s", vk.Error(ret))
	}
}

/*
ImmediateSubmit records into a one time command buffer, submits it and
blocks until the queue has executed it.
*/
func (c *Context) ImmediateSubmit(record func(cb vk.CommandBuffer)) error {
	c.noCopy.Check()
	cb, err := c.CreateCommandBuffer(c.immediatePool)
	if err != nil {
		return err
	}
	cbs := []vk.CommandBuffer{cb}
	defer vk.FreeCommandBuffers(c.device, c.immediatePool, 1, cbs)

	if ret := vk.BeginCommandBuffer(cb, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); ret != vk.Success {
		return vkError(ret, "vkBeginCommandBuffer")
	}
	record(cb)
	if ret := vk.EndCommandBuffer(cb); ret != vk.Success {
		return vkError(ret, "vkEndCommandBuffer")
	}

	if ret := vk.QueueSubmit(c.queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cbs,
	}}, c.immediateFence); ret != vk.Success {
		return vkError(ret, "vkQueueSubmit")
	}
	fences := []vk.Fence{c.immediateFence}
	if ret := vk.WaitForFences(c.device, 1, fences, vk.True, vk.MaxUint64); ret != vk.Success {
		return vkError(ret, "vkWaitForFences")
	}
	if ret := vk.ResetFences(c.device, 1, fences); ret != vk.Success {
		return vkError(ret, "vkResetFences")
	}
	return nil
}

func (c *Context) findMemoryType(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < c.memory.MemoryTypeCount; i++ {
		t := c.memory.MemoryTypes[i]
		t.Deref()
		if typeBits&(1<<i) != 0 && t.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, debug.Errorf("No memory type matches bits 0x%X with properties 0x%X", typeBits, properties)
}

// DepthFormat returns the first depth format usable as an optimal tiling depth attachment.
func (c *Context) DepthFormat() (vxg.DataType, error) {
	for _, t := range []vxg.DataType{vxg.DataTypeDepth32, vxg.DataTypeDepth32Stencil8, vxg.DataTypeDepth24Stencil8} {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(c.physicalDevice, t.Format(), &props)
		props.Deref()
		want := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit | vk.FormatFeatureSampledImageBit)
		if props.OptimalTilingFeatures&want == want {
			return t, nil
		}
	}
	return vxg.DataTypeNone, debug.Errorf("No sampled depth format supported")
}

func (c *Context) release() {
	if c.device != vk.Device(vk.NullHandle) {
		vk.DeviceWaitIdle(c.device)
	}
	if c.immediateFence != vk.Fence(vk.NullHandle) {
		vk.DestroyFence(c.device, c.immediateFence, nil)
		c.immediateFence = vk.Fence(vk.NullHandle)
	}
	if c.immediatePool != vk.CommandPool(vk.NullHandle) {
		vk.DestroyCommandPool(c.device, c.immediatePool, nil)
		c.immediatePool = vk.CommandPool(vk.NullHandle)
	}
	c.destroySwapchain(&c.swapchain)
	if c.device != vk.Device(vk.NullHandle) {
		vk.DestroyDevice(c.device, nil)
		c.device = vk.Device(vk.NullHandle)
	}
	if c.debugCallback != vk.DebugReportCallback(vk.NullHandle) {
		vk.DestroyDebugReportCallback(c.instance, c.debugCallback, nil)
		c.debugCallback = vk.DebugReportCallback(vk.NullHandle)
	}
	if c.surface != vk.Surface(vk.NullHandle) {
		vk.DestroySurface(c.instance, c.surface, nil)
		c.surface = vk.Surface(vk.NullHandle)
	}
	if c.instance != vk.Instance(vk.NullHandle) {
		vk.DestroyInstance(c.instance, nil)
		c.instance = vk.Instance(vk.NullHandle)
	}
}

/*
Destroy waits for the device to go idle and destroys the context. Every
texture, buffer, mesh, shader and renderer created from it must have been
destroyed already.
*/
func (c *Context) Destroy() {
	c.noCopy.Check()
	c.release()
	instance.logger.IPrintf("Context destroyed")
	c.noCopy.Close()
}
