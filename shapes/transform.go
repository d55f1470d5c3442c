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
)

type TransformOrder uint32

const (
	// TransformTRS will create a model matrix by effectively doing
	// translation * rotation * scale
	TransformTRS TransformOrder = iota
	// TransformTSR will create a model matrix by effectively doing
	// translation * scale * rotation
	TransformTSR
)

func (o TransformOrder) String() string {
	switch o {
	case TransformTRS:
		return "TRS"
	case TransformTSR:
		return "TSR"
	}
	return "Unknown"
}

type Transform struct {
	Pos            mgl32.Vec3
	Rot            mgl32.Quat
	Size           mgl32.Vec3
	TransformOrder TransformOrder
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{
		Rot:  mgl32.QuatIdent(),
		Size: mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) Rotate(angle float32, axis mgl32.Vec3) {
	t.Rot = mgl32.QuatRotate(angle, axis.Normalize()).Mul(t.Rot).Normalize()
}

func (t *Transform) ModelMatrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Pos.X(), t.Pos.Y(), t.Pos.Z())
	rotate := t.Rot.Mat4()
	scale := mgl32.Scale3D(t.Size.X(), t.Size.Y(), t.Size.Z())

	switch t.TransformOrder {
	case TransformTRS:
		return translate.Mul4(rotate).Mul4(scale)
	case TransformTSR:
		return translate.Mul4(scale).Mul4(rotate)
	default:
		abort("invalid TransformOrder: %d", t.TransformOrder)
		return mgl32.Ident4()
	}
}
