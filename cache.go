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
	"bytes"
	"fmt"
	"slices"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg/internal/util"
)

/*
DescriptorLayout is a cached descriptor set layout together with the bindings
it was created from, the bindings size the pools sets are allocated from.
*/
type DescriptorLayout struct {
	id       string
	handle   vk.DescriptorSetLayout
	bindings []vk.DescriptorSetLayoutBinding
	flags    []vk.DescriptorBindingFlags
}

func (l *DescriptorLayout) ID() string {
	return l.id
}

func (l *DescriptorLayout) Handle() vk.DescriptorSetLayout {
	return l.handle
}

func (l *DescriptorLayout) Bindings() []vk.DescriptorSetLayoutBinding {
	return slices.Clone(l.bindings)
}

// BindingFlags returns the flags of each binding, in the order of Bindings.
func (l *DescriptorLayout) BindingFlags() []vk.DescriptorBindingFlags {
	return slices.Clone(l.flags)
}

func descriptorLayoutID(bindings []vk.DescriptorSetLayoutBinding, flags []vk.DescriptorBindingFlags) string {
	items := make([]any, 0, len(bindings))
	for i, b := range bindings {
		items = append(items, genID(b.Binding, DescriptorType(b.DescriptorType), b.DescriptorCount, ShaderStage(b.StageFlags), flags[i]))
	}
	return genID(items...)
}

/*
DescriptorLayoutCache deduplicates descriptor set layouts by their structure.
It only grows, every layout lives until Cleanup.
*/
type DescriptorLayoutCache struct {
	noCopy util.NoCopy
	driver Driver
	cache  map[string]*DescriptorLayout
}

func newDescriptorLayoutCache(driver Driver) *DescriptorLayoutCache {
	c := &DescriptorLayoutCache{driver: driver, cache: map[string]*DescriptorLayout{}}
	c.noCopy.Init()
	return c
}

func (c *DescriptorLayoutCache) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	{
		err := mapRunFuncSorted(c.cache, func(k string, v *DescriptorLayout) error {
			buff.WriteString(fmt.Sprintf("%q: %q,", k, toHex(v.handle)))
			return nil
		})
		if err == nil {
			buff.Truncate(buff.Len() - 1)
		}
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *DescriptorLayoutCache) Len() int {
	c.noCopy.Check()
	return len(c.cache)
}

/*
CreateDescriptorLayout returns the layout for bindings, creating it on first
request. flags is either nil or holds the flags of each binding. Bindings are
compared by slot, type, count, stage and flags regardless of the order they
are passed in.
*/
func (c *DescriptorLayoutCache) CreateDescriptorLayout(bindings []vk.DescriptorSetLayoutBinding, flags []vk.DescriptorBindingFlags) *DescriptorLayout {
	c.noCopy.Check()

	if flags != nil && len(flags) != len(bindings) {
		abort("Got %d binding flags for %d descriptor bindings", len(flags), len(bindings))
	}

	order := make([]int, len(bindings))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return int(bindings[a].Binding) - int(bindings[b].Binding)
	})
	sorted := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	sortedFlags := make([]vk.DescriptorBindingFlags, len(bindings))
	for i, j := range order {
		sorted[i] = bindings[j]
		if flags != nil {
			sortedFlags[i] = flags[j]
		}
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Binding == sorted[i-1].Binding {
			abort("Descriptor binding %d declared more than once", sorted[i].Binding)
		}
	}

	id := descriptorLayoutID(sorted, sortedFlags)
	if layout, ok := c.cache[id]; ok {
		return layout
	}

	layout := &DescriptorLayout{id: id, bindings: sorted, flags: sortedFlags}
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(sorted)),
		PBindings:    sorted,
	}
	if slices.ContainsFunc(sortedFlags, func(f vk.DescriptorBindingFlags) bool { return f != 0 }) {
		flagsInfo := vk.DescriptorSetLayoutBindingFlagsCreateInfo{
			SType:         vk.StructureTypeDescriptorSetLayoutBindingFlagsCreateInfo,
			BindingCount:  uint32(len(sortedFlags)),
			PBindingFlags: sortedFlags,
		}
		flagsInfo.PassRef()
		defer flagsInfo.Free()
		info.PNext = unsafe.Pointer(flagsInfo.Ref())
	}
	if ret := c.driver.CreateDescriptorSetLayout(&info, &layout.handle); ret != vk.Success {
		abort("Failed to create descriptor set layout %s: %s", id, vk.Error(ret))
	}
	instance.logger.VPrintf("Created descriptor set layout: %s", id)
	c.cache[id] = layout
	return layout
}

func (c *DescriptorLayoutCache) destroy() {
	c.noCopy.Check()
	instance.logger.VPrintf("DescriptorLayoutCache: %s", prettyString(c))
	_ = mapRunFuncSorted(c.cache, func(_ string, v *DescriptorLayout) error {
		c.driver.DestroyDescriptorSetLayout(v.handle)
		return nil
	})
	c.cache = nil
	c.noCopy.Close()
}
