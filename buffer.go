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
)

type DataType uint32

const (
	DataTypeNone DataType = iota
	DataTypeFloat
	DataTypeFloat2
	DataTypeFloat3
	DataTypeFloat4
	DataTypeMat3
	DataTypeMat4
	DataTypeInt
	DataTypeInt2
	DataTypeInt3
	DataTypeInt4
	DataTypeBool
	DataTypeDepth32
	DataTypeDepth32Stencil8
	DataTypeDepth24Stencil8
	DataTypeRGBA8
	DataTypeBGRA8
)

var dataTypeInfo = [...]struct {
	name   string
	format vk.Format
	size   uint32
}{
	DataTypeNone:            {"None", vk.FormatUndefined, 0},
	DataTypeFloat:           {"Float", vk.FormatR32Sfloat, 4},
	DataTypeFloat2:          {"Float2", vk.FormatR32g32Sfloat, 8},
	DataTypeFloat3:          {"Float3", vk.FormatR32g32b32Sfloat, 12},
	DataTypeFloat4:          {"Float4", vk.FormatR32g32b32a32Sfloat, 16},
	DataTypeMat3:            {"Mat3", vk.FormatR32g32b32Sfloat, 36},
	DataTypeMat4:            {"Mat4", vk.FormatR32g32b32a32Sfloat, 64},
	DataTypeInt:             {"Int", vk.FormatR32Sint, 4},
	DataTypeInt2:            {"Int2", vk.FormatR32g32Sint, 8},
	DataTypeInt3:            {"Int3", vk.FormatR32g32b32Sint, 12},
	DataTypeInt4:            {"Int4", vk.FormatR32g32b32a32Sint, 16},
	DataTypeBool:            {"Bool", vk.FormatR8Uint, 1},
	DataTypeDepth32:         {"Depth32", vk.FormatD32Sfloat, 4},
	DataTypeDepth32Stencil8: {"Depth32Stencil8", vk.FormatD32SfloatS8Uint, 5},
	DataTypeDepth24Stencil8: {"Depth24Stencil8", vk.FormatD24UnormS8Uint, 4},
	DataTypeRGBA8:           {"RGBA8", vk.FormatR8g8b8a8Unorm, 4},
	DataTypeBGRA8:           {"BGRA8", vk.FormatB8g8r8a8Unorm, 4},
}

func (t DataType) valid() bool {
	return int(t) < len(dataTypeInfo)
}

func (t DataType) String() string {
	if !t.valid() {
		return fmt.Sprintf("DataType(%d)", uint32(t))
	}
	return dataTypeInfo[t].name
}

// Format returns the native format of a single attribute or texel of this type.
// Matrix types map to the format of one column.
func (t DataType) Format() vk.Format {
	if !t.valid() {
		abort("Invalid DataType: %d", t)
	}
	return dataTypeInfo[t].format
}

func (t DataType) Size() uint32 {
	if !t.valid() {
		abort("Invalid DataType: %d", t)
	}
	return dataTypeInfo[t].size
}

// columns is the number of vertex attribute locations the type occupies.
func (t DataType) columns() uint32 {
	switch t {
	case DataTypeMat3:
		return 3
	case DataTypeMat4:
		return 4
	}
	return 1
}

type VertexAttribute struct {
	Type DataType
	Name string
}

// VertexLayout is the ordered list of per vertex attributes of a stage's meshes.
type VertexLayout []VertexAttribute

func (l VertexLayout) Stride() uint32 {
	stride := uint32(0)
	for _, a := range l {
		stride += a.Type.Size()
	}
	return stride
}

/*
Attributes returns the vertex input attribute descriptions for binding, locations
follow declaration order and matrices take one location per column.
*/
func (l VertexLayout) Attributes(binding uint32) []vk.VertexInputAttributeDescription {
	attributes := make([]vk.VertexInputAttributeDescription, 0, len(l))
	location := uint32(0)
	offset := uint32(0)
	for _, a := range l {
		if a.Type == DataTypeNone {
			abort("Vertex attribute %q has no type", a.Name)
		}
		columnSize := a.Type.Size() / a.Type.columns()
		for c := uint32(0); c < a.Type.columns(); c++ {
			attributes = append(attributes, vk.VertexInputAttributeDescription{
				Location: location,
				Binding:  binding,
				Format:   a.Type.Format(),
				Offset:   offset + c*columnSize,
			})
			location++
		}
		offset += a.Type.Size()
	}
	return attributes
}

func (l VertexLayout) Binding(binding uint32) vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   binding,
		Stride:    l.Stride(),
		InputRate: vk.VertexInputRateVertex,
	}
}

type BufferType uint32

const (
	BufferTypeVertex BufferType = iota
	BufferTypeIndex
	BufferTypeUniform
	BufferTypeStorage
	BufferTypeStaging
)

func (t BufferType) String() string {
	switch t {
	case BufferTypeVertex:
		return "Vertex"
	case BufferTypeIndex:
		return "Index"
	case BufferTypeUniform:
		return "Uniform"
	case BufferTypeStorage:
		return "Storage"
	case BufferTypeStaging:
		return "Staging"
	}
	return fmt.Sprintf("BufferType(%d)", uint32(t))
}

func (t BufferType) Usage() vk.BufferUsageFlags {
	switch t {
	case BufferTypeVertex:
		return vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit | vk.BufferUsageTransferDstBit)
	case BufferTypeIndex:
		return vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit | vk.BufferUsageTransferDstBit)
	case BufferTypeUniform:
		return vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	case BufferTypeStorage:
		return vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit | vk.BufferUsageTransferDstBit)
	case BufferTypeStaging:
		return vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	abort("Invalid BufferType: %d", t)
	return 0
}

// HostVisible reports whether buffers of this type are written directly from the host.
func (t BufferType) HostVisible() bool {
	return t == BufferTypeUniform || t == BufferTypeStaging
}
