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

	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg/internal/container"
)

type DescriptorType vk.DescriptorType

const (
	DescriptorTypeUniformBuffer        = DescriptorType(vk.DescriptorTypeUniformBuffer)
	DescriptorTypeStorageBuffer        = DescriptorType(vk.DescriptorTypeStorageBuffer)
	DescriptorTypeCombinedImageSampler = DescriptorType(vk.DescriptorTypeCombinedImageSampler)
)

func (t DescriptorType) String() string {
	switch t {
	case DescriptorTypeUniformBuffer:
		return "UniformBuffer"
	case DescriptorTypeStorageBuffer:
		return "StorageBuffer"
	case DescriptorTypeCombinedImageSampler:
		return "CombinedImageSampler"
	}
	return fmt.Sprintf("DescriptorType(%d)", int32(t))
}

// descriptorScratch is the per stage memory writes are built in, it is reset after every bind.
type descriptorScratch struct {
	writes  container.Arena[vk.WriteDescriptorSet]
	images  container.Arena[vk.DescriptorImageInfo]
	buffers container.Arena[vk.DescriptorBufferInfo]
}

func (s *descriptorScratch) reset() {
	s.writes.Reset()
	s.images.Reset()
	s.buffers.Reset()
}

/*
descriptorBuilder collects the writes of one descriptor set. Nothing reaches
the device until build, which allocates the set and issues every write in a
single update.
*/
type descriptorBuilder struct {
	scratch *descriptorScratch
	writes  []vk.WriteDescriptorSet
}

func newDescriptorBuilder(scratch *descriptorScratch, capacity int) descriptorBuilder {
	return descriptorBuilder{scratch: scratch, writes: scratch.writes.Alloc(capacity)[:0]}
}

func (b *descriptorBuilder) bindBuffer(binding uint32, t DescriptorType, buffer Buffer) {
	info := b.scratch.buffers.Alloc(1)
	info[0] = vk.DescriptorBufferInfo{
		Buffer: buffer.Handle(),
		Offset: 0,
		Range:  vk.DeviceSize(vk.WholeSize),
	}
	b.writes = append(b.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorType(t),
		PBufferInfo:     info,
	})
}

func (b *descriptorBuilder) bindTextures(binding uint32, textures []Texture) {
	if len(textures) == 0 {
		return
	}
	infos := b.scratch.images.Alloc(len(textures))
	for i, t := range textures {
		infos[i] = vk.DescriptorImageInfo{
			Sampler:     t.Sampler(),
			ImageView:   t.View(),
			ImageLayout: vk.ImageLayout(t.Layout()),
		}
	}
	b.writes = append(b.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: uint32(len(textures)),
		DescriptorType:  vk.DescriptorType(DescriptorTypeCombinedImageSampler),
		PImageInfo:      infos,
	})
}

func (b *descriptorBuilder) build(driver Driver, allocator *DescriptorAllocator, layout *DescriptorLayout) vk.DescriptorSet {
	set := allocator.Allocate(layout)
	for i := range b.writes {
		b.writes[i].DstSet = set
	}
	if len(b.writes) > 0 {
		driver.UpdateDescriptorSets(b.writes)
	}
	return set
}
