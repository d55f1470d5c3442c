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
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/vxgtest"
)

func TestRenderGraph_Order(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	g := vxg.NewRenderGraph()

	a := g.AddStage(vxg.RootNode, vxg.StageInfo{Name: "a", Type: vxg.StageTypeForwardCompute, Shader: vxgtest.NewShader(d, "a")})
	b := g.AddStage(vxg.RootNode, vxg.StageInfo{Name: "b", Type: vxg.StageTypeForwardCompute, Shader: vxgtest.NewShader(d, "b")})
	c := g.AddStage(a, vxg.StageInfo{Name: "c", Type: vxg.StageTypeDeferredCompute, Shader: vxgtest.NewShader(d, "c")})

	if a != 0 || b != 1 || c != 2 {
		t.Errorf("AddStage() = %d, %d, %d, want 0, 1, 2", a, b, c)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
	if got := g.Parent(c); got != a {
		t.Errorf("Parent(%d) = %d, want %d", c, got, a)
	}
	if got := g.Parent(b); got != vxg.RootNode {
		t.Errorf("Parent(%d) = %d, want %d", b, got, vxg.RootNode)
	}

	// parents never reorder stages
	for i, n := range g.Stages() {
		if want := []string{"a", "b", "c"}[i]; n.StageInfo.Name != want {
			t.Errorf("Stages()[%d] = %q, want %q", i, n.StageInfo.Name, want)
		}
	}

	j, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(j) {
		t.Errorf("RenderGraph json is invalid: %s", j)
	}

	g.Cleanup()
	if g.Len() != 0 {
		t.Errorf("Len() after Cleanup = %d, want 0", g.Len())
	}
}

func TestRenderGraph_InvalidParentAborts(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	g := vxg.NewRenderGraph()
	info := vxg.StageInfo{Name: "a", Type: vxg.StageTypeForwardCompute, Shader: vxgtest.NewShader(d, "a")}

	vxgtest.ExpectAbort(t, func() { g.AddStage(0, info) })
	vxgtest.ExpectAbort(t, func() { g.AddStage(-2, info) })
	h := g.AddStage(vxg.RootNode, info)
	vxgtest.ExpectAbort(t, func() { g.AddStage(h+1, info) })
	vxgtest.ExpectAbort(t, func() { g.Parent(h + 1) })
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestRenderGraph_ValidationAborts(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	shader := vxgtest.NewShader(d, "shader")
	color := vxgtest.NewImage(d, "color", vk.FormatR8g8b8a8Unorm, vk.Extent2D{Width: 4, Height: 4})
	depth := vxgtest.NewDepthImage(d, "depth", vk.Extent2D{Width: 4, Height: 4})
	buffer := vxgtest.NewBuffer(d, 16)
	colorAttachment := vxg.Attachment{Name: "color", Kind: vxg.AttachmentKindColor, Image: color}

	tests := []struct {
		name string
		info vxg.StageInfo
	}{
		{"InvalidType", vxg.StageInfo{Type: vxg.StageType(99), Shader: shader}},
		{"GraphicsWithoutAttachments", vxg.StageInfo{Type: vxg.StageTypeForwardGraphics, Shader: shader}},
		{"GraphicsWithoutShader", vxg.StageInfo{Type: vxg.StageTypeDeferredGraphics, Attachments: []vxg.Attachment{colorAttachment}}},
		{"BlitWithoutAttachments", vxg.StageInfo{Type: vxg.StageTypeBlit, Shader: shader}},
		{"ComputeWithoutShader", vxg.StageInfo{Type: vxg.StageTypeForwardCompute}},
		{"OverlayWithoutAttachments", vxg.StageInfo{Type: vxg.StageTypeOverlay}},
		{"OverlayWithResources", vxg.StageInfo{
			Type:        vxg.StageTypeOverlay,
			Attachments: []vxg.Attachment{colorAttachment},
			Resources:   []vxg.ResourceBinding{vxg.UniformResource("u", 0, vxg.ShaderStageVertex, buffer)},
		}},
		{"OverlayWithMeshes", vxg.StageInfo{
			Type:        vxg.StageTypeOverlay,
			Attachments: []vxg.Attachment{colorAttachment},
			Meshes:      []vxg.Mesh{vxgtest.NewMesh(d, "m", mgl32.Ident4())},
		}},
		{"AttachmentWithoutImage", vxg.StageInfo{
			Type: vxg.StageTypeForwardGraphics, Shader: shader,
			Attachments: []vxg.Attachment{{Name: "color", Kind: vxg.AttachmentKindColor}},
		}},
		{"InvalidAttachmentKind", vxg.StageInfo{
			Type: vxg.StageTypeForwardGraphics, Shader: shader,
			Attachments: []vxg.Attachment{{Name: "color", Kind: vxg.AttachmentKind(42), Image: color}},
		}},
		{"SwapchainOutsideBlit", vxg.StageInfo{
			Type: vxg.StageTypeForwardGraphics, Shader: shader,
			Attachments: []vxg.Attachment{{Name: "swapchain", Kind: vxg.AttachmentKindSwapchainColor}},
		}},
		{"TwoDepthAttachments", vxg.StageInfo{
			Type: vxg.StageTypeForwardGraphics, Shader: shader,
			Attachments: []vxg.Attachment{
				{Name: "depth", Kind: vxg.AttachmentKindDepth, Image: depth},
				{Name: "stencil", Kind: vxg.AttachmentKindDepthStencil, Image: depth},
			},
		}},
		{"UniformWithoutBuffer", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{{Name: "u", Kind: vxg.ResourceKindUniform}},
		}},
		{"StorageWithoutBuffer", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{{Name: "s", Kind: vxg.ResourceKindStorage}},
		}},
		{"SamplerWithoutTexture", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{{Name: "t", Kind: vxg.ResourceKindSampler}},
		}},
		{"SamplerArrayWithoutCapacity", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{vxg.SamplerArrayResource("t", 0, vxg.ShaderStageCompute, 0, vxg.Textures{})},
		}},
		{"EmptyPushConstant", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{vxg.PushConstantResource("p", vxg.ShaderStageCompute, 0)},
		}},
		{"UnalignedPushConstant", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{vxg.PushConstantResource("p", vxg.ShaderStageCompute, 6)},
		}},
		{"EmptySpecializationConstant", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{{Name: "c", Kind: vxg.ResourceKindSpecializationConstant}},
		}},
		{"InvalidResourceKind", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{{Name: "x", Kind: vxg.ResourceKind(77)}},
		}},
		{"SharedBinding", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{
				vxg.UniformResource("a", 3, vxg.ShaderStageCompute, buffer),
				vxg.StorageResource("b", 3, vxg.ShaderStageCompute, buffer),
			},
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := vxg.NewRenderGraph()
			vxgtest.ExpectAbort(t, func() { g.AddStage(vxg.RootNode, test.info) })
			if g.Len() != 0 {
				t.Errorf("Len() = %d, want 0", g.Len())
			}
		})
	}
}

func TestRenderGraph_Valid(t *testing.T) {
	d := vxgtest.NewContext(t, swapchainImages).FakeDriver()
	shader := vxgtest.NewShader(d, "shader")
	buffer := vxgtest.NewBuffer(d, 16)
	color := vxgtest.NewImage(d, "color", vk.FormatR8g8b8a8Unorm, vk.Extent2D{Width: 4, Height: 4})

	tests := []struct {
		name string
		info vxg.StageInfo
	}{
		{"OverlayWithoutShader", vxg.StageInfo{
			Type:        vxg.StageTypeOverlay,
			Attachments: []vxg.Attachment{{Name: "color", Kind: vxg.AttachmentKindColor, Image: color}},
		}},
		{"BlitToSwapchain", vxg.StageInfo{
			Type: vxg.StageTypeBlit, Shader: shader,
			Attachments: []vxg.Attachment{{Name: "swapchain", Kind: vxg.AttachmentKindSwapchainColor}},
		}},
		// push and specialization constants have no binding slot to collide on
		{"ConstantsShareBindingZero", vxg.StageInfo{
			Type: vxg.StageTypeForwardCompute, Shader: shader,
			Resources: []vxg.ResourceBinding{
				vxg.StorageResource("s", 0, vxg.ShaderStageCompute, buffer),
				vxg.PushConstantResource("p", vxg.ShaderStageCompute, 16),
				vxg.SpecializationConstant("c", 0, vxg.ShaderStageCompute, uint32(1)),
			},
		}},
		{"ComputeWithoutResources", vxg.StageInfo{Type: vxg.StageTypeDeferredCompute, Shader: shader}},
	}

	g := vxg.NewRenderGraph()
	for _, test := range tests {
		g.AddStage(vxg.RootNode, test.info)
	}
	if g.Len() != len(tests) {
		t.Errorf("Len() = %d, want %d", g.Len(), len(tests))
	}
}
