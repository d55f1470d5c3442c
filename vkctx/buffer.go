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
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/util"
)

/*
Buffer is a device buffer of one of the vxg buffer types. Uniform and staging
buffers are host visible and written through a mapping, every other type is
device local and written through a staging copy.
*/
type Buffer struct {
	noCopy     util.NoCopy
	ctx        *Context
	name       string
	bufferType vxg.BufferType
	handle     vk.Buffer
	memory     vk.DeviceMemory
	size       uint64
}

var _ vxg.Buffer = (*Buffer)(nil)

func (c *Context) NewBuffer(name string, t vxg.BufferType, size uint64) (*Buffer, error) {
	c.noCopy.Check()
	if size == 0 {
		return nil, debug.Errorf("Buffer %q: size must be > 0", name)
	}
	properties := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	if t.HostVisible() {
		properties = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}
	handle, memory, err := c.createBuffer(size, t.Usage(), properties)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create %s buffer %q", t, name)
	}
	b := &Buffer{ctx: c, name: name, bufferType: t, handle: handle, memory: memory, size: size}
	b.noCopy.Init()
	instance.logger.VPrintf("Created %s buffer %q of %d bytes", t, name, size)
	return b, nil
}

func (b *Buffer) Handle() vk.Buffer {
	b.noCopy.Check()
	return b.handle
}

func (b *Buffer) Size() uint64 {
	b.noCopy.Check()
	return b.size
}

func (b *Buffer) Type() vxg.BufferType {
	return b.bufferType
}

func (b *Buffer) writeMapped(offset uint64, data []byte) error {
	var ptr unsafe.Pointer
	if ret := vk.MapMemory(b.ctx.device, b.memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &ptr); ret != vk.Success {
		return vkError(ret, "vkMapMemory of buffer %q", b.name)
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(b.ctx.device, b.memory)
	return nil
}

/*
Write copies data into the buffer at offset. Writes to device local buffers
wait for the copy to finish on the queue, so they should not be used while a
frame that reads the buffer may still be in flight.
*/
func (b *Buffer) Write(offset uint64, data []byte) error {
	b.noCopy.Check()
	if len(data) == 0 {
		return nil
	}
	if offset+uint64(len(data)) > b.size {
		return debug.Errorf("Write(%d, size: %d) will overflow buffer %q of size %d", offset, len(data), b.name, b.size)
	}
	if b.bufferType.HostVisible() {
		return b.writeMapped(offset, data)
	}

	staging, err := b.ctx.NewBuffer(b.name+"_staging", vxg.BufferTypeStaging, uint64(len(data)))
	if err != nil {
		return err
	}
	defer staging.Destroy()
	if err := staging.writeMapped(0, data); err != nil {
		return err
	}
	return b.ctx.ImmediateSubmit(func(cb vk.CommandBuffer) {
		vk.CmdCopyBuffer(cb, staging.handle, b.handle, 1, []vk.BufferCopy{{
			SrcOffset: 0,
			DstOffset: vk.DeviceSize(offset),
			Size:      vk.DeviceSize(len(data)),
		}})
	})
}

// WriteSlice writes the in memory representation of data into b at offset.
func WriteSlice[T comparable](b *Buffer, offset uint64, data []T) error {
	return b.Write(offset, util.BytesSlice(data))
}

func (b *Buffer) Destroy() {
	b.noCopy.Check()
	vk.DestroyBuffer(b.ctx.device, b.handle, nil)
	vk.FreeMemory(b.ctx.device, b.memory, nil)
	b.noCopy.Close()
}
