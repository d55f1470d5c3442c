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

package main

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/managed"
	"goarrg.com/rhi/vxg/shapes"
	"goarrg.com/rhi/vxg/vkctx"
)

const textureCapacity = 16

type scene struct {
	ctx      *vkctx.Context
	renderer *vxg.Renderer

	forward *vkctx.Shader
	blit    *vkctx.Shader
	cube    *vkctx.Mesh
	camera  *vkctx.Buffer
	depth   *vkctx.Texture

	white    *vkctx.Texture
	loaded   *vkctx.Texture
	textures *managed.TextureArray
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to open image")
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to decode %q", path)
	}
	return img, nil
}

func (s *scene) loadShaders(dir string) error {
	load := func(name string) ([]byte, error) {
		return vkctx.LoadSPIRV(filepath.Join(dir, name))
	}
	forwardVert, err := load("forward.vert.spv")
	if err != nil {
		return err
	}
	forwardFrag, err := load("forward.frag.spv")
	if err != nil {
		return err
	}
	blitVert, err := load("blit.vert.spv")
	if err != nil {
		return err
	}
	blitFrag, err := load("blit.frag.spv")
	if err != nil {
		return err
	}

	s.forward, err = s.ctx.NewGraphicsShader("forward", forwardVert, forwardFrag)
	if err != nil {
		return err
	}
	s.forward.CullBackFaces = true
	s.blit, err = s.ctx.NewGraphicsShader("blit", blitVert, blitFrag)
	return err
}

func (s *scene) loadTextures(path string) (uint32, error) {
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.Set(0, 0, color.White)
	var err error
	s.white, err = s.ctx.LoadTexture("white", white)
	if err != nil {
		return 0, err
	}
	s.textures = managed.NewTextureArray(textureCapacity, s.white)
	if path == "" {
		return uint32(s.textures.Push(s.white)), nil
	}

	img, err := loadImage(path)
	if err != nil {
		return 0, err
	}
	s.loaded, err = s.ctx.LoadTexture(filepath.Base(path), img)
	if err != nil {
		return 0, err
	}
	return uint32(s.textures.Push(s.loaded)), nil
}

func newScene(ctx *vkctx.Context, opts options) (*scene, error) {
	s := &scene{ctx: ctx}
	if err := s.loadShaders(opts.shaderDir); err != nil {
		s.destroyResources()
		return nil, err
	}
	textureIndex, err := s.loadTextures(opts.texture)
	if err != nil {
		s.destroyResources()
		return nil, err
	}
	if s.cube, err = ctx.NewMesh("cube", shapes.Cube()); err != nil {
		s.destroyResources()
		return nil, err
	}
	if s.camera, err = ctx.NewBuffer("camera", vxg.BufferTypeUniform, uint64(vxg.DataTypeMat4.Size())); err != nil {
		s.destroyResources()
		return nil, err
	}

	s.renderer = vxg.NewRenderer(ctx)
	target := s.renderer.FinalRenderTarget()

	depthType, err := ctx.DepthFormat()
	if err != nil {
		s.destroyResources()
		return nil, err
	}
	if s.depth, err = ctx.NewTexture(vxg.ImageDescription{
		Name:      "depth",
		Extent:    target.Extent(),
		Format:    depthType.Format(),
		Usage:     vxg.ImageUsageSampledDepthAttachment,
		MipLevels: 1,
	}); err != nil {
		s.destroyResources()
		return nil, err
	}
	depthKind := vxg.AttachmentKindDepth
	if depthType != vxg.DataTypeDepth32 {
		depthKind = vxg.AttachmentKindDepthStencil
	}

	graph := vxg.NewRenderGraph()
	forward := graph.AddStage(vxg.RootNode, vxg.StageInfo{
		Name:         "forward",
		Shader:       s.forward,
		Type:         vxg.StageTypeForwardGraphics,
		VertexLayout: shapes.VertexLayout,
		Resources: []vxg.ResourceBinding{
			vxg.UniformResource("camera", 0, vxg.ShaderStageVertex, s.camera),
			vxg.SamplerArrayResource("textures", 1, vxg.ShaderStageFragment, textureCapacity, s.textures),
			vxg.PushConstantResource("model", vxg.ShaderStageVertex, vxg.DataTypeMat4.Size()),
			vxg.SpecializationConstant("textureIndex", 0, vxg.ShaderStageFragment, textureIndex),
		},
		Meshes: []vxg.Mesh{s.cube},
		Attachments: []vxg.Attachment{
			{
				Name:  "color",
				Kind:  vxg.AttachmentKindColor,
				Image: target,
				Clear: true,
				Barrier: vxg.Barrier{
					OldLayout: vxg.ImageLayoutUndefined,
					NewLayout: vxg.ImageLayoutShaderReadOnlyOptimal,
				},
			},
			{
				Name:  "depth",
				Kind:  depthKind,
				Image: s.depth,
				Clear: true,
				Barrier: vxg.Barrier{
					OldLayout: vxg.ImageLayoutUndefined,
					NewLayout: vxg.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
	})
	graph.AddStage(forward, vxg.StageInfo{
		Name:   "blit",
		Shader: s.blit,
		Type:   vxg.StageTypeBlit,
		Resources: []vxg.ResourceBinding{
			vxg.SamplerResource("target", 0, vxg.ShaderStageFragment, target),
		},
		Attachments: []vxg.Attachment{
			{
				Name:  "swapchain",
				Kind:  vxg.AttachmentKindSwapchainColor,
				Clear: true,
				Barrier: vxg.Barrier{
					OldLayout: vxg.ImageLayoutUndefined,
					NewLayout: vxg.ImageLayoutPresent,
				},
			},
		},
	})

	s.renderer.Initialize(graph)
	return s, nil
}

func (s *scene) update(t float32) error {
	s.cube.Transform.Rot = mgl32.QuatRotate(t, mgl32.Vec3{0.3, 1, 0}.Normalize())

	extent := s.depth.Extent()
	aspect := float32(extent.Width) / float32(extent.Height)
	proj := mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 100)
	// clip space y points down
	proj[5] *= -1
	view := mgl32.LookAtV(mgl32.Vec3{0, 1.5, 3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return vkctx.WriteSlice(s.camera, 0, []mgl32.Mat4{proj.Mul4(view)})
}

func (s *scene) destroyResources() {
	if s.depth != nil {
		s.depth.Destroy()
		s.depth = nil
	}
	if s.camera != nil {
		s.camera.Destroy()
		s.camera = nil
	}
	if s.cube != nil {
		s.cube.Destroy()
		s.cube = nil
	}
	if s.loaded != nil {
		s.loaded.Destroy()
		s.loaded = nil
	}
	if s.white != nil {
		s.white.Destroy()
		s.white = nil
	}
	if s.blit != nil {
		s.blit.Destroy()
		s.blit = nil
	}
	if s.forward != nil {
		s.forward.Destroy()
		s.forward = nil
	}
}

func (s *scene) destroy() {
	if s.renderer != nil {
		s.renderer.Cleanup()
		s.renderer = nil
	}
	s.ctx.WaitIdle()
	s.destroyResources()
}
