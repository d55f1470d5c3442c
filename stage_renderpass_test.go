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
	"encoding/json"
	"reflect"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/vxgtest"
)

func TestDeriveRenderPass_LoadOps(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	color := vxgtest.NewImage(d, "color", vk.FormatR8g8b8a8Unorm, vk.Extent2D{Width: 4, Height: 4})

	tests := []struct {
		name      string
		clear     bool
		oldLayout vxg.ImageLayout
		want      vk.AttachmentLoadOp
	}{
		{"UndefinedIsDontCare", false, vxg.ImageLayoutUndefined, vk.AttachmentLoadOpDontCare},
		{"UndefinedClearIsDontCare", true, vxg.ImageLayoutUndefined, vk.AttachmentLoadOpDontCare},
		{"Clear", true, vxg.ImageLayoutShaderReadOnlyOptimal, vk.AttachmentLoadOpClear},
		{"Load", false, vxg.ImageLayoutShaderReadOnlyOptimal, vk.AttachmentLoadOpLoad},
		{"LoadGeneral", false, vxg.ImageLayoutGeneral, vk.AttachmentLoadOpLoad},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			info := vxg.StageInfo{Attachments: []vxg.Attachment{{
				Name: "color", Kind: vxg.AttachmentKindColor, Image: color, Clear: test.clear,
				Barrier: vxg.Barrier{OldLayout: test.oldLayout, NewLayout: vxg.ImageLayoutShaderReadOnlyOptimal},
			}}}
			desc := vxg.DeriveRenderPass(&info, vk.FormatB8g8r8a8Unorm)
			a := desc.Attachments[0]
			if a.LoadOp != test.want {
				t.Errorf("LoadOp = %d, want %d", a.LoadOp, test.want)
			}
			if a.StoreOp != vk.AttachmentStoreOpStore {
				t.Errorf("StoreOp = %d, want %d", a.StoreOp, vk.AttachmentStoreOpStore)
			}
			if a.StencilLoadOp != vk.AttachmentLoadOpDontCare {
				t.Errorf("StencilLoadOp of a color attachment = %d, want %d", a.StencilLoadOp, vk.AttachmentLoadOpDontCare)
			}
			if a.InitialLayout != vk.ImageLayout(test.oldLayout) || a.FinalLayout != vk.ImageLayoutShaderReadOnlyOptimal {
				t.Errorf("layouts = %d -> %d, want %d -> %d", a.InitialLayout, a.FinalLayout, test.oldLayout, vk.ImageLayoutShaderReadOnlyOptimal)
			}
		})
	}
}

func TestDeriveRenderPass_Attachments(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	depth := vxgtest.NewDepthImage(d, "depth", vk.Extent2D{Width: 4, Height: 4})
	info := vxg.StageInfo{Attachments: []vxg.Attachment{
		{
			Name: "swapchain", Kind: vxg.AttachmentKindSwapchainColor, Clear: true,
			Barrier: vxg.Barrier{OldLayout: vxg.ImageLayoutColorAttachmentOptimal, NewLayout: vxg.ImageLayoutPresent},
		},
		{
			Name: "depth", Kind: vxg.AttachmentKindDepthStencil, Image: depth, Clear: true,
			Barrier: vxg.Barrier{OldLayout: vxg.ImageLayoutDepthStencilAttachmentOptimal, NewLayout: vxg.ImageLayoutDepthStencilAttachmentOptimal},
		},
	}}
	desc := vxg.DeriveRenderPass(&info, vk.FormatB8g8r8a8Srgb)

	if len(desc.Attachments) != 2 {
		t.Fatalf("len(Attachments) = %d, want 2", len(desc.Attachments))
	}
	if a := desc.Attachments[0]; a.Format != vk.FormatB8g8r8a8Srgb || a.Samples != vk.SampleCount1Bit {
		t.Errorf("swapchain attachment format = %d samples = %d, want %d, %d", a.Format, a.Samples, vk.FormatB8g8r8a8Srgb, vk.SampleCount1Bit)
	}
	if a := desc.Attachments[1]; a.Format != depth.Format() {
		t.Errorf("depth attachment format = %d, want %d", a.Format, depth.Format())
	}
	if a := desc.Attachments[1]; a.StencilLoadOp != vk.AttachmentLoadOpClear || a.StencilStoreOp != vk.AttachmentStoreOpStore {
		t.Errorf("depth stencil ops = %d, %d, want %d, %d", a.StencilLoadOp, a.StencilStoreOp, vk.AttachmentLoadOpClear, vk.AttachmentStoreOpStore)
	}

	if len(desc.ColorReferences) != 1 || desc.ColorReferences[0].Attachment != 0 ||
		desc.ColorReferences[0].Layout != vk.ImageLayoutColorAttachmentOptimal {
		t.Errorf("ColorReferences do not reference attachment 0 in ColorAttachmentOptimal")
	}
	if desc.DepthReference == nil {
		t.Fatal("DepthReference is nil")
	}
	if desc.DepthReference.Attachment != 1 || desc.DepthReference.Layout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("DepthReference does not reference attachment 1 in DepthStencilAttachmentOptimal")
	}

	if !reflect.DeepEqual(desc.ClearValues[0], vk.NewClearValue([]float32{0, 0, 0, 1})) {
		t.Errorf("color clear value = %v, want opaque black", desc.ClearValues[0])
	}
	if !reflect.DeepEqual(desc.ClearValues[1], vk.NewClearDepthStencil(1, 0)) {
		t.Errorf("depth clear value = %v, want depth 1 stencil 0", desc.ClearValues[1])
	}

	j, err := json.Marshal(&desc)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(j) {
		t.Errorf("RenderPassDescription json is invalid: %s", j)
	}
}

func TestDeriveRenderPass_NoClearValue(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	color := vxgtest.NewImage(d, "color", vk.FormatR8g8b8a8Unorm, vk.Extent2D{Width: 4, Height: 4})
	info := vxg.StageInfo{Attachments: []vxg.Attachment{{
		Name: "color", Kind: vxg.AttachmentKindColor, Image: color,
		Barrier: vxg.Barrier{OldLayout: vxg.ImageLayoutUndefined, NewLayout: vxg.ImageLayoutShaderReadOnlyOptimal},
	}}}
	desc := vxg.DeriveRenderPass(&info, vk.FormatB8g8r8a8Unorm)
	if !reflect.DeepEqual(desc.ClearValues[0], vk.ClearValue{}) {
		t.Errorf("clear value of an attachment that is not cleared = %v, want zero", desc.ClearValues[0])
	}
	if desc.DepthReference != nil {
		t.Errorf("DepthReference of a color only pass is not nil")
	}
}

func TestDeriveRenderPass_Dependencies(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	color := vxgtest.NewImage(d, "color", vk.FormatR8g8b8a8Unorm, vk.Extent2D{Width: 4, Height: 4})
	depth := vxgtest.NewDepthImage(d, "depth", vk.Extent2D{Width: 4, Height: 4})
	info := vxg.StageInfo{Attachments: []vxg.Attachment{
		{Name: "color", Kind: vxg.AttachmentKindColor, Image: color},
		{Name: "depth", Kind: vxg.AttachmentKindDepth, Image: depth},
		{
			Name: "explicit", Kind: vxg.AttachmentKindColor, Image: color,
			Barrier: vxg.Barrier{
				SrcStage:  vxg.PipelineStageComputeShader,
				DstStage:  vxg.PipelineStageFragmentShader,
				SrcAccess: vxg.AccessFlagShaderWrite,
				DstAccess: vxg.AccessFlagShaderRead,
			},
		},
	}}
	desc := vxg.DeriveRenderPass(&info, vk.FormatB8g8r8a8Unorm)
	if len(desc.Dependencies) != 3 {
		t.Fatalf("len(Dependencies) = %d, want 3", len(desc.Dependencies))
	}

	tests := []struct {
		name      string
		srcStage  vxg.PipelineStage
		dstStage  vxg.PipelineStage
		srcAccess vxg.AccessFlags
		dstAccess vxg.AccessFlags
	}{
		{
			"color",
			vxg.PipelineStageColorAttachmentOutput, vxg.PipelineStageColorAttachmentOutput,
			vxg.AccessFlagNone, vxg.AccessFlagColorAttachmentWrite,
		},
		{
			"depth",
			vxg.PipelineStageEarlyFragmentTests | vxg.PipelineStageLateFragmentTests,
			vxg.PipelineStageEarlyFragmentTests | vxg.PipelineStageLateFragmentTests,
			vxg.AccessFlagNone, vxg.AccessFlagDepthStencilAttachmentWrite,
		},
		{
			"explicit",
			vxg.PipelineStageComputeShader, vxg.PipelineStageFragmentShader,
			vxg.AccessFlagShaderWrite, vxg.AccessFlagShaderRead,
		},
	}
	for i, test := range tests {
		dep := desc.Dependencies[i]
		if dep.SrcSubpass != vk.SubpassExternal || dep.DstSubpass != 0 {
			t.Errorf("%s: dependency is not external -> 0", test.name)
		}
		if dep.SrcStageMask != vk.PipelineStageFlags(test.srcStage) || dep.DstStageMask != vk.PipelineStageFlags(test.dstStage) {
			t.Errorf("%s: stage masks = %#x -> %#x, want %#x -> %#x", test.name, dep.SrcStageMask, dep.DstStageMask, test.srcStage, test.dstStage)
		}
		if dep.SrcAccessMask != vk.AccessFlags(test.srcAccess) || dep.DstAccessMask != vk.AccessFlags(test.dstAccess) {
			t.Errorf("%s: access masks = %#x -> %#x, want %#x -> %#x", test.name, dep.SrcAccessMask, dep.DstAccessMask, test.srcAccess, test.dstAccess)
		}
	}
}

func TestDeriveRenderPass_DoesNotTouchDevice(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	color := vxgtest.NewImage(d, "color", vk.FormatR8g8b8a8Unorm, vk.Extent2D{Width: 4, Height: 4})
	info := vxg.StageInfo{Attachments: []vxg.Attachment{{Name: "color", Kind: vxg.AttachmentKindColor, Image: color}}}
	mark := len(d.Log)
	vxg.DeriveRenderPass(&info, vk.FormatB8g8r8a8Unorm)
	if len(d.Log) != mark || d.RenderPassesCreated != 0 {
		t.Errorf("DeriveRenderPass() called the device: %v", d.Log[mark:])
	}
}
