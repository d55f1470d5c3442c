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
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func checkGeometry(t *testing.T, name string, g Geometry) {
	t.Helper()
	if len(g.Indices)%3 != 0 {
		t.Fatalf("%s: len(Indices) = %d, want a multiple of 3", name, len(g.Indices))
	}
	for _, i := range g.Indices {
		if int(i) >= len(g.Vertices) {
			t.Fatalf("%s: index %d out of range of %d vertices", name, i, len(g.Vertices))
		}
	}
	for i := 0; i < len(g.Indices); i += 3 {
		a, b, c := g.Vertices[g.Indices[i]], g.Vertices[g.Indices[i+1]], g.Vertices[g.Indices[i+2]]
		n := b.Pos.Sub(a.Pos).Cross(c.Pos.Sub(a.Pos))
		if n.Dot(a.Normal) <= 0 {
			t.Errorf("%s: triangle %d is not counter clockwise around its normal", name, i/3)
		}
	}
}

func TestCube(t *testing.T) {
	g := Cube()
	if len(g.Vertices) != 24 || len(g.Indices) != 36 {
		t.Errorf("Cube() has %d vertices and %d indices, want 24, 36", len(g.Vertices), len(g.Indices))
	}
	checkGeometry(t, "Cube", g)
	for i, v := range g.Vertices {
		for _, c := range v.Pos {
			if !mgl32.FloatEqual(c, 0.5) && !mgl32.FloatEqual(c, -0.5) {
				t.Errorf("vertex %d = %v is not a corner of the unit cube", i, v.Pos)
				break
			}
		}
		if !mgl32.FloatEqual(v.Normal.Len(), 1) {
			t.Errorf("vertex %d normal %v is not unit length", i, v.Normal)
		}
	}
}

func TestQuad(t *testing.T) {
	g := Quad()
	if len(g.Vertices) != 4 || len(g.Indices) != 6 {
		t.Errorf("Quad() has %d vertices and %d indices, want 4, 6", len(g.Vertices), len(g.Indices))
	}
	checkGeometry(t, "Quad", g)
}

func TestFullscreen(t *testing.T) {
	g := Fullscreen()
	if len(g.Vertices) != 3 {
		t.Errorf("Fullscreen() has %d vertices, want 3", len(g.Vertices))
	}
	checkGeometry(t, "Fullscreen", g)
}

func TestVertexLayout(t *testing.T) {
	if got, want := VertexLayout.Stride(), uint32(32); got != want {
		t.Errorf("VertexLayout.Stride() = %d, want %d", got, want)
	}
}

func TestTransform_Identity(t *testing.T) {
	tr := NewTransform()
	if m := tr.ModelMatrix(); !m.ApproxEqual(mgl32.Ident4()) {
		t.Errorf("ModelMatrix() of NewTransform() = %v, want identity", m)
	}
}

func TestTransform_Order(t *testing.T) {
	tr := NewTransform()
	tr.Pos = mgl32.Vec3{1, 2, 3}
	tr.Size = mgl32.Vec3{2, 1, 1}
	tr.Rotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 5})
	p := mgl32.Vec4{1, 0, 0, 1}

	tests := []struct {
		order TransformOrder
		want  mgl32.Vec4
	}{
		{TransformTRS, mgl32.Vec4{1, 4, 3, 1}},
		{TransformTSR, mgl32.Vec4{1, 3, 3, 1}},
	}
	for _, test := range tests {
		tr.TransformOrder = test.order
		if got := tr.ModelMatrix().Mul4x1(p); !got.ApproxEqualThreshold(test.want, 1e-5) {
			t.Errorf("%s: ModelMatrix() * %v = %v, want %v", test.order, p, got, test.want)
		}
	}

	tr.TransformOrder = TransformOrder(9)
	defer func() {
		if recover() == nil {
			t.Errorf("ModelMatrix() with an invalid order did not abort")
		}
	}()
	tr.ModelMatrix()
}
