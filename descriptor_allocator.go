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

	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg/internal/util"
)

type descriptorPoolBank struct {
	name             string
	vkDescriptorPool vk.DescriptorPool
	len              int32
	cap              int32
}

func (b *descriptorPoolBank) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"name\": %q,", b.name))
	buff.WriteString(fmt.Sprintf("\"vkDescriptorPool\": %q,", toHex(b.vkDescriptorPool)))
	buff.WriteString(fmt.Sprintf("\"len\": %d,", b.len))
	buff.WriteString(fmt.Sprintf("\"cap\": %d", b.cap))

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (b *descriptorPoolBank) canAllocate() bool {
	return b.len < b.cap
}

type descriptorPool struct {
	banks []*descriptorPoolBank
}

func (p *descriptorPool) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("[")

	if len(p.banks) > 0 {
		for _, b := range p.banks {
			buff.WriteString(jsonString(b))
			buff.WriteString(",")
		}
		buff.Truncate(buff.Len() - 1)
	}

	buff.WriteString("]")
	return buff.Bytes(), nil
}

/*
DescriptorAllocator hands out descriptor sets for one frame slot. Sets come
from banks of pools created per layout and sized for bankSize sets, a full bank
causes a new one to be created. ResetPools recycles every set at once, it must
only be called once the frame's previous submission has completed.
*/
type DescriptorAllocator struct {
	noCopy   util.NoCopy
	name     string
	driver   Driver
	bankSize int32
	pools    map[string]*descriptorPool
	resets   uint64
}

func newDescriptorAllocator(name string, driver Driver, bankSize int32) *DescriptorAllocator {
	a := &DescriptorAllocator{name: name, driver: driver, bankSize: bankSize, pools: map[string]*descriptorPool{}}
	a.noCopy.Init()
	return a
}

func (a *DescriptorAllocator) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"resets\": %d,", a.resets))
	{
		buff.WriteString("\"descriptorPools\": {")
		{
			err := mapRunFuncSorted(a.pools, func(k string, v *descriptorPool) error {
				buff.WriteString(fmt.Sprintf("%q: %s,", k, jsonString(v)))
				return nil
			})
			if err == nil {
				buff.Truncate(buff.Len() - 1)
			}
		}
		buff.WriteString("}")
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (a *DescriptorAllocator) createBank(layout *DescriptorLayout, p *descriptorPool) *descriptorPoolBank {
	bank := &descriptorPoolBank{name: fmt.Sprintf("%s_bank_%d", a.name, len(p.banks)), cap: a.bankSize}
	poolSizes := make([]vk.DescriptorPoolSize, 0, len(layout.bindings))
	for _, b := range layout.bindings {
		if b.DescriptorCount > 0 {
			poolSizes = append(poolSizes, vk.DescriptorPoolSize{
				Type:            b.DescriptorType,
				DescriptorCount: b.DescriptorCount * uint32(a.bankSize),
			})
		}
	}
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(a.bankSize),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	if ret := a.driver.CreateDescriptorPool(&info, &bank.vkDescriptorPool); ret != vk.Success {
		abort("Failed to create descriptor pool %s for layout %s: %s", bank.name, layout.id, vk.Error(ret))
	}
	instance.logger.VPrintf("Created descriptor pool %s_maxSets_%d for layout %s", bank.name, info.MaxSets, layout.id)
	p.banks = append(p.banks, bank)
	return bank
}

func (a *DescriptorAllocator) retrieveBank(layout *DescriptorLayout) *descriptorPoolBank {
	p, ok := a.pools[layout.id]
	if !ok {
		p = &descriptorPool{}
		a.pools[layout.id] = p
	}
	for _, b := range p.banks {
		if b.canAllocate() {
			return b
		}
	}
	return a.createBank(layout, p)
}

// Allocate returns a new descriptor set of layout, valid until the next ResetPools.
func (a *DescriptorAllocator) Allocate(layout *DescriptorLayout) vk.DescriptorSet {
	a.noCopy.Check()

	bank := a.retrieveBank(layout)
	var set vk.DescriptorSet
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     bank.vkDescriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.handle},
	}
	if ret := a.driver.AllocateDescriptorSets(&info, &set); ret != vk.Success {
		abort("Failed to allocate descriptor set from %s_set_%d: %s", bank.name, bank.len, vk.Error(ret))
	}
	bank.len++
	return set
}

// ResetPools returns every set allocated since the last reset to its pool.
func (a *DescriptorAllocator) ResetPools() {
	a.noCopy.Check()
	_ = mapRunFuncSorted(a.pools, func(_ string, p *descriptorPool) error {
		for _, b := range p.banks {
			if ret := a.driver.ResetDescriptorPool(b.vkDescriptorPool); ret != vk.Success {
				abort("Failed to reset descriptor pool %s: %s", b.name, vk.Error(ret))
			}
			b.len = 0
		}
		return nil
	})
	a.resets++
}

// Allocated is the number of sets handed out since the last reset.
func (a *DescriptorAllocator) Allocated() int {
	a.noCopy.Check()
	n := 0
	for _, p := range a.pools {
		for _, b := range p.banks {
			n += int(b.len)
		}
	}
	return n
}

func (a *DescriptorAllocator) destroy() {
	a.noCopy.Check()
	_ = mapRunFuncSorted(a.pools, func(_ string, p *descriptorPool) error {
		for _, b := range p.banks {
			a.driver.DestroyDescriptorPool(b.vkDescriptorPool)
		}
		return nil
	})
	a.pools = nil
	a.noCopy.Close()
}
