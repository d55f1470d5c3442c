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
	"goarrg.com/gmath"

	"goarrg.com/rhi/vxg/internal/util"
)

type StageType uint32

const (
	StageTypeForwardGraphics StageType = iota
	StageTypeDeferredGraphics
	StageTypeForwardCompute
	StageTypeDeferredCompute
	StageTypeBlit
	StageTypeOverlay
)

func (t StageType) String() string {
	switch t {
	case StageTypeForwardGraphics:
		return "ForwardGraphics"
	case StageTypeDeferredGraphics:
		return "DeferredGraphics"
	case StageTypeForwardCompute:
		return "ForwardCompute"
	case StageTypeDeferredCompute:
		return "DeferredCompute"
	case StageTypeBlit:
		return "Blit"
	case StageTypeOverlay:
		return "Overlay"
	}
	return fmt.Sprintf("StageType(%d)", uint32(t))
}

func (t StageType) IsCompute() bool {
	return t == StageTypeForwardCompute || t == StageTypeDeferredCompute
}

func (t StageType) bindPoint() vk.PipelineBindPoint {
	if t.IsCompute() {
		return vk.PipelineBindPointCompute
	}
	return vk.PipelineBindPointGraphics
}

type ResourceKind uint32

const (
	ResourceKindUniform ResourceKind = iota
	ResourceKindStorage
	ResourceKindSampler
	ResourceKindSamplerArray
	ResourceKindPushConstant
	ResourceKindSpecializationConstant
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindUniform:
		return "Uniform"
	case ResourceKindStorage:
		return "Storage"
	case ResourceKindSampler:
		return "Sampler"
	case ResourceKindSamplerArray:
		return "SamplerArray"
	case ResourceKindPushConstant:
		return "PushConstant"
	case ResourceKindSpecializationConstant:
		return "SpecializationConstant"
	}
	return fmt.Sprintf("ResourceKind(%d)", uint32(k))
}

// hasDescriptor reports whether resources of this kind occupy a descriptor slot.
func (k ResourceKind) hasDescriptor() bool {
	switch k {
	case ResourceKindUniform, ResourceKindStorage, ResourceKindSampler, ResourceKindSamplerArray:
		return true
	}
	return false
}

func (k ResourceKind) descriptorType() DescriptorType {
	switch k {
	case ResourceKindUniform:
		return DescriptorTypeUniformBuffer
	case ResourceKindStorage:
		return DescriptorTypeStorageBuffer
	case ResourceKindSampler, ResourceKindSamplerArray:
		return DescriptorTypeCombinedImageSampler
	}
	abort("ResourceKind [%s] has no descriptor type", k)
	return 0
}

/*
ResourceBinding is one resource a stage's shader reads. Descriptor resources
live in set 0 at Binding, SamplerArray bindings are sized by ArrayCapacity
regardless of how many textures are currently in the list. Push constants
receive each mesh's model matrix, Size bytes of it, before the mesh is drawn.
*/
type ResourceBinding struct {
	Name  string
	Kind  ResourceKind
	Stage ShaderStage

	Binding       uint32
	Buffer        Buffer
	Texture       Texture
	Textures      TextureList
	ArrayCapacity uint32

	ConstantID uint32
	Data       []byte

	Size uint32
}

func UniformResource(name string, binding uint32, stage ShaderStage, buffer Buffer) ResourceBinding {
	return ResourceBinding{Name: name, Kind: ResourceKindUniform, Binding: binding, Stage: stage, Buffer: buffer}
}

func StorageResource(name string, binding uint32, stage ShaderStage, buffer Buffer) ResourceBinding {
	return ResourceBinding{Name: name, Kind: ResourceKindStorage, Binding: binding, Stage: stage, Buffer: buffer}
}

func SamplerResource(name string, binding uint32, stage ShaderStage, texture Texture) ResourceBinding {
	return ResourceBinding{Name: name, Kind: ResourceKindSampler, Binding: binding, Stage: stage, Texture: texture}
}

func SamplerArrayResource(name string, binding uint32, stage ShaderStage, capacity uint32, textures TextureList) ResourceBinding {
	return ResourceBinding{
		Name: name, Kind: ResourceKindSamplerArray, Binding: binding, Stage: stage,
		ArrayCapacity: capacity, Textures: textures,
	}
}

func PushConstantResource(name string, stage ShaderStage, size uint32) ResourceBinding {
	return ResourceBinding{Name: name, Kind: ResourceKindPushConstant, Stage: stage, Size: size}
}

func SpecializationConstant[T comparable](name string, constantID uint32, stage ShaderStage, value T) ResourceBinding {
	return ResourceBinding{
		Name: name, Kind: ResourceKindSpecializationConstant, Stage: stage,
		ConstantID: constantID, Data: util.Bytes(value),
	}
}

func (r *ResourceBinding) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"Name\": %q,", r.Name))
	buff.WriteString(fmt.Sprintf("\"Kind\": %q,", r.Kind.String()))
	buff.WriteString(fmt.Sprintf("\"Stage\": %q", r.Stage.String()))
	switch r.Kind {
	case ResourceKindSamplerArray:
		buff.WriteString(fmt.Sprintf(",\"Binding\": %d,\"ArrayCapacity\": %d", r.Binding, r.ArrayCapacity))
	case ResourceKindPushConstant:
		buff.WriteString(fmt.Sprintf(",\"Size\": %d", r.Size))
	case ResourceKindSpecializationConstant:
		buff.WriteString(fmt.Sprintf(",\"ConstantID\": %d,\"Size\": %d", r.ConstantID, len(r.Data)))
	default:
		buff.WriteString(fmt.Sprintf(",\"Binding\": %d", r.Binding))
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}

type AttachmentKind uint32

const (
	AttachmentKindColor AttachmentKind = iota
	AttachmentKindDepth
	AttachmentKindDepthStencil
	AttachmentKindSwapchainColor
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentKindColor:
		return "Color"
	case AttachmentKindDepth:
		return "Depth"
	case AttachmentKindDepthStencil:
		return "DepthStencil"
	case AttachmentKindSwapchainColor:
		return "SwapchainColor"
	}
	return fmt.Sprintf("AttachmentKind(%d)", uint32(k))
}

func (k AttachmentKind) isDepth() bool {
	return k == AttachmentKindDepth || k == AttachmentKindDepthStencil
}

/*
Barrier declares the layout an attachment is expected in when the stage starts
(OldLayout) and the layout the stage leaves it in (NewLayout), together with
the synchronization scopes of the external dependency into the render pass.
*/
type Barrier struct {
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcStage  PipelineStage
	DstStage  PipelineStage
	SrcAccess AccessFlags
	DstAccess AccessFlags
}

type Attachment struct {
	Name    string
	Kind    AttachmentKind
	Image   Image
	Clear   bool
	Barrier Barrier
}

/*
StageInfo declares one stage of a render graph. A stage built from it keeps a
reference to the declaration, it must not be changed afterwards.
*/
type StageInfo struct {
	Name         string
	Shader       Shader
	Type         StageType
	VertexLayout VertexLayout
	Resources    []ResourceBinding
	Meshes       []Mesh
	Attachments  []Attachment
	GroupCounts  gmath.Extent3u32
}

func (info *StageInfo) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"Name\": %q,", info.Name))
	buff.WriteString(fmt.Sprintf("\"Type\": %q,", info.Type.String()))
	buff.WriteString(fmt.Sprintf("\"Meshes\": %d,", len(info.Meshes)))

	{
		buff.WriteString("\"Resources\": [")
		if len(info.Resources) > 0 {
			for i := range info.Resources {
				buff.WriteString(jsonString(&info.Resources[i]))
				buff.WriteString(",")
			}
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("],")
	}
	{
		buff.WriteString("\"Attachments\": [")
		if len(info.Attachments) > 0 {
			for _, a := range info.Attachments {
				buff.WriteString(fmt.Sprintf("{\"Name\": %q, \"Kind\": %q, \"Clear\": %t, \"OldLayout\": %q, \"NewLayout\": %q},",
					a.Name, a.Kind.String(), a.Clear, a.Barrier.OldLayout.String(), a.Barrier.NewLayout.String()))
			}
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("]")
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}
