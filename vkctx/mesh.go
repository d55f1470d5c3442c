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
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/util"
	"goarrg.com/rhi/vxg/shapes"
)

/*
Mesh is indexed geometry in device local buffers, laid out as
shapes.VertexLayout. Transform is read every time the mesh is drawn.
*/
type Mesh struct {
	noCopy     util.NoCopy
	Transform  shapes.Transform
	name       string
	vertices   *Buffer
	indices    *Buffer
	indexCount uint32
}

var _ vxg.Mesh = (*Mesh)(nil)

func (c *Context) NewMesh(name string, g shapes.Geometry) (*Mesh, error) {
	c.noCopy.Check()
	if len(g.Vertices) == 0 || len(g.Indices) == 0 {
		return nil, debug.Errorf("Mesh %q: empty geometry", name)
	}

	vertexBytes := util.BytesSlice(g.Vertices)
	vertices, err := c.NewBuffer(name+"_vertices", vxg.BufferTypeVertex, uint64(len(vertexBytes)))
	if err != nil {
		return nil, err
	}
	if err := vertices.Write(0, vertexBytes); err != nil {
		vertices.Destroy()
		return nil, debug.ErrorWrapf(err, "Failed to upload vertices of mesh %q", name)
	}

	indexBytes := util.BytesSlice(g.Indices)
	indices, err := c.NewBuffer(name+"_indices", vxg.BufferTypeIndex, uint64(len(indexBytes)))
	if err != nil {
		vertices.Destroy()
		return nil, err
	}
	if err := indices.Write(0, indexBytes); err != nil {
		vertices.Destroy()
		indices.Destroy()
		return nil, debug.ErrorWrapf(err, "Failed to upload indices of mesh %q", name)
	}

	m := &Mesh{
		Transform:  shapes.NewTransform(),
		name:       name,
		vertices:   vertices,
		indices:    indices,
		indexCount: uint32(len(g.Indices)),
	}
	m.noCopy.Init()
	return m, nil
}

func (m *Mesh) ModelMatrix() mgl32.Mat4 {
	m.noCopy.Check()
	return m.Transform.ModelMatrix()
}

func (m *Mesh) Draw(cb vk.CommandBuffer) {
	m.noCopy.Check()
	vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{m.vertices.handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb, m.indices.handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cb, m.indexCount, 1, 0, 0, 0)
}

func (m *Mesh) Destroy() {
	m.noCopy.Check()
	m.vertices.Destroy()
	m.indices.Destroy()
	m.noCopy.Close()
}
