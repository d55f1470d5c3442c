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
	"time"

	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg/internal/util"
)

type pushConstant struct {
	stages  vk.ShaderStageFlags
	offset  uint32
	scratch []byte
}

/*
Stage is the executable form of a StageInfo: the native render pass and
framebuffer derived from its attachments plus everything its shader was
generated with. It is created by Renderer.Initialize and lives until Cleanup.
*/
type Stage struct {
	noCopy util.NoCopy
	ctx    DeviceContext
	driver Driver
	info   StageInfo
	pass   stagePass

	renderPass  vk.RenderPass
	framebuffer vk.Framebuffer
	extent      vk.Extent2D
	clearValues []vk.ClearValue

	layout         *DescriptorLayout
	pushConstants  []pushConstant
	specialization SpecializationBlock
	scratch        descriptorScratch

	stats StageStats
}

type StageStats struct {
	Name            string
	CPUTime         time.Duration
	DrawCalls       uint32
	Dispatches      uint32
	PushConstants   uint32
	DescriptorSets  uint32
	BarriersApplied uint32
}

func (s *Stage) Name() string {
	return s.info.Name
}

func (s *Stage) Type() StageType {
	return s.info.Type
}

func (s *Stage) Info() *StageInfo {
	return &s.info
}

func (s *Stage) RenderPass() vk.RenderPass {
	s.noCopy.Check()
	return s.renderPass
}

func (s *Stage) Framebuffer() vk.Framebuffer {
	s.noCopy.Check()
	return s.framebuffer
}

func (s *Stage) Extent() vk.Extent2D {
	s.noCopy.Check()
	return s.extent
}

func (s *Stage) ClearValues() []vk.ClearValue {
	s.noCopy.Check()
	return s.clearValues
}

func (s *Stage) DescriptorLayout() *DescriptorLayout {
	s.noCopy.Check()
	return s.layout
}

func (s *Stage) Specialization() SpecializationBlock {
	s.noCopy.Check()
	return s.specialization
}

func (s *Stage) hasRenderPass() bool {
	return s.renderPass != vk.RenderPass(vk.NullHandle)
}

func newStage(ctx DeviceContext, info StageInfo) *Stage {
	s := &Stage{
		ctx:    ctx,
		driver: ctx.Driver(),
		info:   info,
		pass:   newStagePass(info.Type),
		stats:  StageStats{Name: info.Name},
	}
	s.noCopy.Init()
	return s
}

/*
descriptorBindings returns the layout bindings of the stage and their flags.
SamplerArray bindings are partially bound, BindResources only writes the
textures the array currently holds.
*/
func (s *Stage) descriptorBindings() ([]vk.DescriptorSetLayoutBinding, []vk.DescriptorBindingFlags) {
	var bindings []vk.DescriptorSetLayoutBinding
	var flags []vk.DescriptorBindingFlags
	for _, r := range s.info.Resources {
		if !r.Kind.hasDescriptor() {
			continue
		}
		count := uint32(1)
		flag := vk.DescriptorBindingFlags(0)
		if r.Kind == ResourceKindSamplerArray {
			count = r.ArrayCapacity
			flag = vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit)
		}
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         r.Binding,
			DescriptorType:  vk.DescriptorType(r.Kind.descriptorType()),
			DescriptorCount: count,
			StageFlags:      vk.ShaderStageFlags(r.Stage),
		})
		flags = append(flags, flag)
	}
	return bindings, flags
}

/*
init creates the native objects of the stage: the render pass for every
non compute stage, the shader pipeline and the framebuffer for every stage
that renders into its own attachments. Blit stages render into the frame's
swapchain framebuffer instead.
*/
func (s *Stage) init(cache *DescriptorLayoutCache) {
	s.noCopy.Check()

	if !s.info.Type.IsCompute() {
		d := DeriveRenderPass(&s.info, s.ctx.SwapchainFormat())
		info := d.createInfo()
		if ret := s.driver.CreateRenderPass(&info, &s.renderPass); ret != vk.Success {
			abort("Failed to create render pass for stage %q: %s", s.info.Name, vk.Error(ret))
		}
		s.clearValues = d.ClearValues
		instance.logger.VPrintf("Stage %q render pass: %s", s.info.Name, prettyString(&d))
	}

	offset := uint32(0)
	var ranges []vk.PushConstantRange
	for _, r := range s.info.Resources {
		switch r.Kind {
		case ResourceKindSpecializationConstant:
			s.specialization.add(r.ConstantID, r.Data)
		case ResourceKindPushConstant:
			s.pushConstants = append(s.pushConstants, pushConstant{
				stages: vk.ShaderStageFlags(r.Stage), offset: offset, scratch: make([]byte, r.Size),
			})
			ranges = append(ranges, vk.PushConstantRange{
				StageFlags: vk.ShaderStageFlags(r.Stage), Offset: offset, Size: r.Size,
			})
			offset += r.Size
		}
	}

	if bindings, flags := s.descriptorBindings(); len(bindings) > 0 {
		s.layout = cache.CreateDescriptorLayout(bindings, flags)
	}

	if s.info.Shader != nil {
		info := PipelineInfo{
			Name:               s.info.Name,
			BindPoint:          s.info.Type.bindPoint(),
			RenderPass:         s.renderPass,
			VertexLayout:       s.info.VertexLayout,
			PushConstantRanges: ranges,
			Specialization:     s.specialization,
		}
		if s.layout != nil {
			info.DescriptorSetLayout = s.layout.handle
		}
		for _, a := range s.info.Attachments {
			if a.Kind.isDepth() {
				info.DepthAttachment = true
			} else {
				info.ColorAttachmentCount++
			}
		}
		if err := s.info.Shader.Generate(info); err != nil {
			abort("Failed to generate pipeline for stage %q: %s", s.info.Name, err)
		}
	}

	if s.hasRenderPass() && s.info.Type != StageTypeBlit {
		s.createFramebuffer()
	}
}

func (s *Stage) createFramebuffer() {
	views := make([]vk.ImageView, len(s.info.Attachments))
	for i, a := range s.info.Attachments {
		views[i] = a.Image.View()
	}
	s.extent = s.info.Attachments[0].Image.Extent()
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      s.renderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           s.extent.Width,
		Height:          s.extent.Height,
		Layers:          1,
	}
	if ret := s.driver.CreateFramebuffer(&info, &s.framebuffer); ret != vk.Success {
		abort("Failed to create framebuffer for stage %q: %s", s.info.Name, vk.Error(ret))
	}
}

/*
Execute records the stage into the frame's command buffer: attachments are
moved into their declared starting layouts, the stage's pass is recorded and
the tracked layouts are set to the layouts the pass leaves them in.
*/
func (s *Stage) Execute(f *Frame) {
	s.noCopy.Check()
	start := hrtime.Now()
	cb := f.CommandBuffer()

	for _, a := range s.info.Attachments {
		if a.Image == nil {
			continue
		}
		if a.Image.Layout() != a.Barrier.OldLayout && a.Barrier.OldLayout != ImageLayoutUndefined {
			CmdImageBarrier(s.driver, cb, TransitionImage(a.Image, a.Barrier.OldLayout))
			s.stats.BarriersApplied++
		}
	}

	s.pass.record(s, f)

	for _, a := range s.info.Attachments {
		switch {
		case a.Image != nil:
			a.Image.SetLayout(a.Barrier.NewLayout)
		case a.Kind == AttachmentKindSwapchainColor && f.SwapchainImage() != nil:
			f.SwapchainImage().SetLayout(a.Barrier.NewLayout)
		}
	}

	s.stats.CPUTime = hrtime.Since(start)
}

/*
BindResources builds one descriptor set from the stage's resources, allocates
it from the frame and binds it at set 0. Scratch memory used to build the
writes is released before returning.
*/
func (s *Stage) BindResources(f *Frame) {
	s.noCopy.Check()
	if s.layout == nil {
		return
	}
	defer s.scratch.reset()

	b := newDescriptorBuilder(&s.scratch, len(s.layout.bindings))
	for _, r := range s.info.Resources {
		switch r.Kind {
		case ResourceKindUniform, ResourceKindStorage:
			b.bindBuffer(r.Binding, r.Kind.descriptorType(), r.Buffer)
		case ResourceKindSampler:
			b.bindTextures(r.Binding, []Texture{r.Texture})
		case ResourceKindSamplerArray:
			if r.Textures == nil {
				continue
			}
			textures := r.Textures.Textures()
			if uint32(len(textures)) > r.ArrayCapacity {
				abort("Stage %q resource %q binds %d textures, capacity is %d", s.info.Name, r.Name, len(textures), r.ArrayCapacity)
			}
			b.bindTextures(r.Binding, textures)
		}
	}

	set := b.build(s.driver, f.DescriptorAllocator(), s.layout)
	s.driver.CmdBindDescriptorSets(f.CommandBuffer(), s.info.Type.bindPoint(), s.info.Shader.PipelineLayout(), 0, []vk.DescriptorSet{set})
	s.stats.DescriptorSets++
}

func (s *Stage) pushMeshConstants(cb vk.CommandBuffer, m Mesh) {
	if len(s.pushConstants) == 0 {
		return
	}
	model := m.ModelMatrix()
	for i := range s.pushConstants {
		p := &s.pushConstants[i]
		clear(p.scratch)
		copyMatrix(p.scratch, &model)
		s.driver.CmdPushConstants(cb, s.info.Shader.PipelineLayout(), p.stages, p.offset, p.scratch)
		s.stats.PushConstants++
	}
}

func (s *Stage) resetStats() {
	s.stats = StageStats{Name: s.info.Name}
}

func (s *Stage) destroy() {
	s.noCopy.Check()
	if s.framebuffer != vk.Framebuffer(vk.NullHandle) {
		s.driver.DestroyFramebuffer(s.framebuffer)
	}
	if s.hasRenderPass() {
		s.driver.DestroyRenderPass(s.renderPass)
	}
	s.noCopy.Close()
}
