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
	"encoding/binary"
	"os"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/util"
)

const spirvMagic = 0x07230203

// LoadSPIRV reads a compiled SPIR-V module from disk.
func LoadSPIRV(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to read SPIR-V")
	}
	if _, err := spirvWords(code); err != nil {
		return nil, debug.ErrorWrapf(err, "%q", path)
	}
	return code, nil
}

func spirvWords(code []byte) ([]uint32, error) {
	if len(code) < 4 || len(code)%4 != 0 {
		return nil, debug.Errorf("Invalid SPIR-V size: %d", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, debug.Errorf("Invalid SPIR-V magic: 0x%08X", words[0])
	}
	return words, nil
}

type shaderModule struct {
	stage  vk.ShaderStageFlagBits
	handle vk.ShaderModule
}

/*
Shader is a pipeline built from SPIR-V modules, either a vertex and fragment
pair or a single compute module. Every Generate replaces the previous pipeline,
the caller must make sure the old one is no longer in use.
*/
type Shader struct {
	noCopy    util.NoCopy
	ctx       *Context
	name      string
	modules   []shaderModule
	bindPoint vk.PipelineBindPoint
	layout    vk.PipelineLayout
	pipeline  vk.Pipeline

	// CullBackFaces enables back face culling of counter clockwise front faces.
	CullBackFaces bool
	// AlphaBlend enables source alpha blending on every color attachment.
	AlphaBlend bool
}

var _ vxg.Shader = (*Shader)(nil)

func (c *Context) newShader(name string, bindPoint vk.PipelineBindPoint, stages map[vk.ShaderStageFlagBits][]byte) (*Shader, error) {
	s := &Shader{ctx: c, name: name, bindPoint: bindPoint}
	for _, stage := range []vk.ShaderStageFlagBits{vk.ShaderStageVertexBit, vk.ShaderStageFragmentBit, vk.ShaderStageComputeBit} {
		code, ok := stages[stage]
		if !ok {
			continue
		}
		words, err := spirvWords(code)
		if err != nil {
			s.destroyModules()
			return nil, debug.ErrorWrapf(err, "Shader %q", name)
		}
		var module vk.ShaderModule
		if ret := vk.CreateShaderModule(c.device, &vk.ShaderModuleCreateInfo{
			SType:    vk.StructureTypeShaderModuleCreateInfo,
			CodeSize: uint(len(code)),
			PCode:    words,
		}, nil, &module); ret != vk.Success {
			s.destroyModules()
			return nil, vkError(ret, "vkCreateShaderModule(%q)", name)
		}
		s.modules = append(s.modules, shaderModule{stage: stage, handle: module})
	}
	s.noCopy.Init()
	return s, nil
}

func (c *Context) NewGraphicsShader(name string, vertex, fragment []byte) (*Shader, error) {
	c.noCopy.Check()
	return c.newShader(name, vk.PipelineBindPointGraphics, map[vk.ShaderStageFlagBits][]byte{
		vk.ShaderStageVertexBit:   vertex,
		vk.ShaderStageFragmentBit: fragment,
	})
}

func (c *Context) NewComputeShader(name string, compute []byte) (*Shader, error) {
	c.noCopy.Check()
	return c.newShader(name, vk.PipelineBindPointCompute, map[vk.ShaderStageFlagBits][]byte{
		vk.ShaderStageComputeBit: compute,
	})
}

func (s *Shader) destroyModules() {
	for _, m := range s.modules {
		vk.DestroyShaderModule(s.ctx.device, m.handle, nil)
	}
	s.modules = nil
}

func (s *Shader) destroyPipeline() {
	if s.pipeline != vk.Pipeline(vk.NullHandle) {
		vk.DestroyPipeline(s.ctx.device, s.pipeline, nil)
		s.pipeline = vk.Pipeline(vk.NullHandle)
	}
	if s.layout != vk.PipelineLayout(vk.NullHandle) {
		vk.DestroyPipelineLayout(s.ctx.device, s.layout, nil)
		s.layout = vk.PipelineLayout(vk.NullHandle)
	}
}

func (s *Shader) stageInfos(specialization *vxg.SpecializationBlock) []vk.PipelineShaderStageCreateInfo {
	var spec []vk.SpecializationInfo
	if !specialization.Empty() {
		spec = []vk.SpecializationInfo{{
			MapEntryCount: uint32(len(specialization.Entries)),
			PMapEntries:   specialization.Entries,
			DataSize:      uint(len(specialization.Data)),
			PData:         unsafe.Pointer(unsafe.SliceData(specialization.Data)),
		}}
	}
	infos := make([]vk.PipelineShaderStageCreateInfo, len(s.modules))
	for i, m := range s.modules {
		infos[i] = vk.PipelineShaderStageCreateInfo{
			SType:               vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:               m.stage,
			Module:              m.handle,
			PName:               "main\x00",
			PSpecializationInfo: spec,
		}
	}
	return infos
}

func (s *Shader) createLayout(info *vxg.PipelineInfo) error {
	var setLayouts []vk.DescriptorSetLayout
	if info.DescriptorSetLayout != vk.DescriptorSetLayout(vk.NullHandle) {
		setLayouts = []vk.DescriptorSetLayout{info.DescriptorSetLayout}
	}
	if ret := vk.CreatePipelineLayout(s.ctx.device, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(info.PushConstantRanges)),
		PPushConstantRanges:    info.PushConstantRanges,
	}, nil, &s.layout); ret != vk.Success {
		return vkError(ret, "vkCreatePipelineLayout(%q)", info.Name)
	}
	return nil
}

func (s *Shader) createComputePipeline(info *vxg.PipelineInfo) error {
	stages := s.stageInfos(&info.Specialization)
	if len(stages) != 1 {
		return debug.Errorf("Compute pipeline %q needs exactly one stage, have %d", info.Name, len(stages))
	}
	pipelines := make([]vk.Pipeline, 1)
	if ret := vk.CreateComputePipelines(s.ctx.device, vk.PipelineCache(vk.NullHandle), 1, []vk.ComputePipelineCreateInfo{{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  stages[0],
		Layout: s.layout,
	}}, nil, pipelines); ret != vk.Success {
		return vkError(ret, "vkCreateComputePipelines(%q)", info.Name)
	}
	s.pipeline = pipelines[0]
	return nil
}

func (s *Shader) createGraphicsPipeline(info *vxg.PipelineInfo) error {
	if info.RenderPass == vk.RenderPass(vk.NullHandle) {
		return debug.Errorf("Graphics pipeline %q without a render pass", info.Name)
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if len(info.VertexLayout) > 0 {
		attributes := info.VertexLayout.Attributes(0)
		vertexInput.VertexBindingDescriptionCount = 1
		vertexInput.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{info.VertexLayout.Binding(0)}
		vertexInput.VertexAttributeDescriptionCount = uint32(len(attributes))
		vertexInput.PVertexAttributeDescriptions = attributes
	}

	cullMode := vk.CullModeFlags(vk.CullModeNone)
	if s.CullBackFaces {
		cullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}

	blend := make([]vk.PipelineColorBlendAttachmentState, info.ColorAttachmentCount)
	for i := range blend {
		blend[i] = vk.PipelineColorBlendAttachmentState{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		}
		if s.AlphaBlend {
			blend[i].BlendEnable = vk.True
			blend[i].SrcColorBlendFactor = vk.BlendFactorSrcAlpha
			blend[i].DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
			blend[i].ColorBlendOp = vk.BlendOpAdd
			blend[i].SrcAlphaBlendFactor = vk.BlendFactorOne
			blend[i].DstAlphaBlendFactor = vk.BlendFactorZero
			blend[i].AlphaBlendOp = vk.BlendOpAdd
		}
	}

	depthTest := vk.Bool32(vk.False)
	if info.DepthAttachment {
		depthTest = vk.True
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor, vk.DynamicStateDepthBias}
	pipelines := make([]vk.Pipeline, 1)
	if ret := vk.CreateGraphicsPipelines(s.ctx.device, vk.PipelineCache(vk.NullHandle), 1, []vk.GraphicsPipelineCreateInfo{{
		SType:             vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:        uint32(len(s.modules)),
		PStages:           s.stageInfos(&info.Specialization),
		PVertexInputState: &vertexInput,
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:           vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode:     vk.PolygonModeFill,
			CullMode:        cullMode,
			FrontFace:       vk.FrontFaceCounterClockwise,
			DepthBiasEnable: vk.True,
			LineWidth:       1,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  depthTest,
			DepthWriteEnable: depthTest,
			DepthCompareOp:   vk.CompareOpLessOrEqual,
			MaxDepthBounds:   1,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: uint32(len(blend)),
			PAttachments:    blend,
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		},
		Layout:     s.layout,
		RenderPass: info.RenderPass,
		Subpass:    0,
	}}, nil, pipelines); ret != vk.Success {
		return vkError(ret, "vkCreateGraphicsPipelines(%q)", info.Name)
	}
	s.pipeline = pipelines[0]
	return nil
}

func (s *Shader) Generate(info vxg.PipelineInfo) error {
	s.noCopy.Check()
	if info.BindPoint != s.bindPoint {
		return debug.Errorf("Shader %q cannot build a pipeline for bind point %d", s.name, info.BindPoint)
	}
	s.destroyPipeline()

	if err := s.createLayout(&info); err != nil {
		return err
	}
	var err error
	if s.bindPoint == vk.PipelineBindPointCompute {
		err = s.createComputePipeline(&info)
	} else {
		err = s.createGraphicsPipeline(&info)
	}
	if err != nil {
		s.destroyPipeline()
		return err
	}
	instance.logger.VPrintf("Generated pipeline %q for shader %q", info.Name, s.name)
	return nil
}

func (s *Shader) Bind(cb vk.CommandBuffer) {
	s.noCopy.Check()
	if s.pipeline == vk.Pipeline(vk.NullHandle) {
		abort("Shader %q bound before Generate", s.name)
	}
	vk.CmdBindPipeline(cb, s.bindPoint, s.pipeline)
}

func (s *Shader) PipelineLayout() vk.PipelineLayout {
	s.noCopy.Check()
	return s.layout
}

func (s *Shader) Destroy() {
	s.noCopy.Check()
	s.destroyPipeline()
	s.destroyModules()
	s.noCopy.Close()
}
