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
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

type ShaderStage vk.ShaderStageFlags

const (
	ShaderStageVertex   = ShaderStage(vk.ShaderStageVertexBit)
	ShaderStageFragment = ShaderStage(vk.ShaderStageFragmentBit)
	ShaderStageCompute  = ShaderStage(vk.ShaderStageComputeBit)
	ShaderStageGraphics = ShaderStageVertex | ShaderStageFragment
)

func (s ShaderStage) HasBits(want ShaderStage) bool {
	return hasBits(s, want)
}

func (s ShaderStage) String() string {
	str := ""

	if hasBits(s, ShaderStageVertex) {
		str += "Vertex|"
	}
	if hasBits(s, ShaderStageFragment) {
		str += "Fragment|"
	}
	if hasBits(s, ShaderStageCompute) {
		str += "Compute|"
	}

	return strings.TrimSuffix(str, "|")
}

/*
SpecializationBlock is the packed form of a stage's specialization constants:
the raw bytes of every constant back to back, and one map entry per constant
pointing into Data.
*/
type SpecializationBlock struct {
	Entries []vk.SpecializationMapEntry
	Data    []byte
}

func (b *SpecializationBlock) Empty() bool {
	return len(b.Entries) == 0
}

func (b *SpecializationBlock) add(constantID uint32, data []byte) {
	b.Entries = append(b.Entries, vk.SpecializationMapEntry{
		ConstantID: constantID,
		Offset:     uint32(len(b.Data)),
		Size:       uint(len(data)),
	})
	b.Data = append(b.Data, data...)
}

/*
PipelineInfo is everything a stage derives for its shader before the pipeline
is built. RenderPass is null for compute stages.
*/
type PipelineInfo struct {
	Name                 string
	BindPoint            vk.PipelineBindPoint
	RenderPass           vk.RenderPass
	ColorAttachmentCount uint32
	DepthAttachment      bool
	VertexLayout         VertexLayout
	DescriptorSetLayout  vk.DescriptorSetLayout
	PushConstantRanges   []vk.PushConstantRange
	Specialization       SpecializationBlock
}

// Shader owns a pipeline built from precompiled SPIR-V.
type Shader interface {
	Generate(info PipelineInfo) error
	Bind(cb vk.CommandBuffer)
	PipelineLayout() vk.PipelineLayout
}
