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

package vxg_test

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/vxgtest"
)

func TestTransitionImage(t *testing.T) {
	ctx := vxgtest.NewContext(t, swapchainImages)
	d := ctx.FakeDriver()
	img := vxgtest.NewDepthImage(d, "depth", vk.Extent2D{Width: 8, Height: 8})

	b := vxg.TransitionImage(img, vxg.ImageLayoutDepthStencilAttachmentOptimal)
	if b.Src.Layout != vxg.ImageLayoutUndefined || b.Dst.Layout != vxg.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("TransitionImage() layouts = %s -> %s, want %s -> %s",
			b.Src.Layout, b.Dst.Layout, vxg.ImageLayoutUndefined, vxg.ImageLayoutDepthStencilAttachmentOptimal)
	}
	if b.Src.Stage != vxg.PipelineStageTopOfPipe || b.Src.Access != vxg.AccessFlagNone {
		t.Errorf("TransitionImage() from Undefined does not start at the top of the pipe")
	}
	if b.Dst.Stage != vxg.PipelineStageEarlyFragmentTests|vxg.PipelineStageLateFragmentTests {
		t.Errorf("TransitionImage() Dst.Stage = %#x, want the fragment test stages", b.Dst.Stage)
	}
	if img.Layout() != vxg.ImageLayoutUndefined {
		t.Errorf("TransitionImage() changed the tracked layout")
	}

	err := ctx.ImmediateSubmit(func(cb vk.CommandBuffer) {
		vxg.CmdImageBarrier(d, cb, b)
	})
	if err != nil {
		t.Fatal(err)
	}
	if img.Layout() != vxg.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("tracked layout after CmdImageBarrier() = %s, want %s", img.Layout(), vxg.ImageLayoutDepthStencilAttachmentOptimal)
	}
	if len(d.Barriers) != 1 {
		t.Fatalf("len(Barriers) = %d, want 1", len(d.Barriers))
	}
	got := d.Barriers[0]
	if got.Image != img.Handle() {
		t.Errorf("barrier image is not the transitioned image")
	}
	if got.OldLayout != vk.ImageLayoutUndefined || got.NewLayout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("barrier layouts = %d -> %d", got.OldLayout, got.NewLayout)
	}
	if got.SubresourceRange.AspectMask != vk.ImageAspectFlags(vk.ImageAspectDepthBit) {
		t.Errorf("barrier aspect = %#x, want depth", got.SubresourceRange.AspectMask)
	}

	vxgtest.ExpectAbort(t, func() {
		_ = ctx.ImmediateSubmit(func(cb vk.CommandBuffer) {
			vxg.CmdImageBarrier(d, cb, vxg.ImageBarrier{})
		})
	})
}

func TestVertexLayout(t *testing.T) {
	l := vxg.VertexLayout{
		{Type: vxg.DataTypeFloat3, Name: "position"},
		{Type: vxg.DataTypeMat4, Name: "instance"},
		{Type: vxg.DataTypeFloat2, Name: "uv"},
	}
	if got := l.Stride(); got != 12+64+8 {
		t.Errorf("Stride() = %d, want %d", got, 12+64+8)
	}

	attributes := l.Attributes(0)
	if len(attributes) != 6 {
		t.Fatalf("len(Attributes()) = %d, want 6", len(attributes))
	}
	want := []struct {
		offset uint32
		format vk.Format
	}{
		{0, vk.FormatR32g32b32Sfloat},
		{12, vk.FormatR32g32b32a32Sfloat},
		{28, vk.FormatR32g32b32a32Sfloat},
		{44, vk.FormatR32g32b32a32Sfloat},
		{60, vk.FormatR32g32b32a32Sfloat},
		{76, vk.FormatR32g32Sfloat},
	}
	for i, w := range want {
		a := attributes[i]
		if a.Location != uint32(i) {
			t.Errorf("Attributes()[%d].Location = %d, want %d", i, a.Location, i)
		}
		if a.Offset != w.offset || a.Format != w.format {
			t.Errorf("Attributes()[%d] = offset %d format %d, want %d, %d", i, a.Offset, a.Format, w.offset, w.format)
		}
	}

	if b := l.Binding(0); b.Stride != l.Stride() || b.InputRate != vk.VertexInputRateVertex {
		t.Errorf("Binding() = stride %d rate %d", b.Stride, b.InputRate)
	}

	vxgtest.ExpectAbort(t, func() {
		vxg.VertexLayout{{Name: "missing"}}.Attributes(0)
	})
}
