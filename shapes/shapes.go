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

package shapes

import (
	"github.com/go-gl/mathgl/mgl32"
	"goarrg.com"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

var instance = struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger
}{
	platform: platform{},
	logger:   debug.NewLogger("vxg", "shapes"),
}

func Init(platform goarrg.PlatformInterface) {
	instance.platform = platform
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

// Vertex is the vertex format of every shape in this package, it matches VertexLayout.
type Vertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2
}

var VertexLayout = vxg.VertexLayout{
	{Type: vxg.DataTypeFloat3, Name: "inPosition"},
	{Type: vxg.DataTypeFloat3, Name: "inNormal"},
	{Type: vxg.DataTypeFloat2, Name: "inUV"},
}

// Geometry is an indexed triangle list with counter clockwise front faces.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

/*
Cube returns a unit cube centered at the origin, every face has its own four
vertices so normals and texture coordinates are per face.
*/
func Cube() Geometry {
	faces := [6]struct {
		normal, u, v mgl32.Vec3
	}{
		{normal: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
		{normal: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
	}

	g := Geometry{
		Vertices: make([]Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for _, f := range faces {
		center := f.normal.Mul(0.5)
		base := uint32(len(g.Vertices))
		for _, c := range [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
			pos := center.Add(f.u.Mul(c.X() - 0.5)).Add(f.v.Mul(c.Y() - 0.5))
			g.Vertices = append(g.Vertices, Vertex{Pos: pos, Normal: f.normal, UV: mgl32.Vec2{c.X(), 1 - c.Y()}})
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// Quad returns a unit quad in the XY plane facing +Z.
func Quad() Geometry {
	n := mgl32.Vec3{0, 0, 1}
	return Geometry{
		Vertices: []Vertex{
			{Pos: mgl32.Vec3{-0.5, -0.5, 0}, Normal: n, UV: mgl32.Vec2{0, 1}},
			{Pos: mgl32.Vec3{0.5, -0.5, 0}, Normal: n, UV: mgl32.Vec2{1, 1}},
			{Pos: mgl32.Vec3{0.5, 0.5, 0}, Normal: n, UV: mgl32.Vec2{1, 0}},
			{Pos: mgl32.Vec3{-0.5, 0.5, 0}, Normal: n, UV: mgl32.Vec2{0, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

/*
Fullscreen returns the single triangle covering clip space that Blit stages
draw with three vertices and no vertex buffer, it is here for shaders that
want it as real geometry.
*/
func Fullscreen() Geometry {
	n := mgl32.Vec3{0, 0, 1}
	return Geometry{
		Vertices: []Vertex{
			{Pos: mgl32.Vec3{-1, -1, 0}, Normal: n, UV: mgl32.Vec2{0, 0}},
			{Pos: mgl32.Vec3{3, -1, 0}, Normal: n, UV: mgl32.Vec2{2, 0}},
			{Pos: mgl32.Vec3{-1, 3, 0}, Normal: n, UV: mgl32.Vec2{0, 2}},
		},
		Indices: []uint32{0, 1, 2},
	}
}
