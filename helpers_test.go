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

	"github.com/go-gl/mathgl/mgl32"
	"goarrg.com/gmath"

	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/vxgtest"
)

const swapchainImages = 3

// useConfig sets the process wide config for the duration of the test.
func useConfig(t *testing.T, c vxg.Config) {
	t.Helper()
	vxg.SetConfig(c)
	t.Cleanup(func() {
		vxg.SetConfig(vxg.DefaultConfig())
	})
}

func withFrameCount(n int32) vxg.Config {
	c := vxg.DefaultConfig()
	c.FrameCount = n
	return c
}

/*
scene is the graph most tests run: a forward stage drawing two meshes into the
final render target and a depth image, followed by a blit of the target into
the swapchain.
*/
type scene struct {
	ctx      *vxgtest.Context
	d        *vxgtest.Driver
	r        *vxg.Renderer
	graph    *vxg.RenderGraph
	target   vxg.Texture
	depth    *vxgtest.Image
	camera   *vxgtest.Buffer
	textures vxg.Textures
	meshes   []*vxgtest.Mesh
	forward  *vxgtest.Shader
	blit     *vxgtest.Shader
}

type sceneOptions struct {
	// colorOldLayout is the layout the forward stage expects the final target in.
	colorOldLayout vxg.ImageLayout
	clear          bool
}

func newScene(t *testing.T, opts sceneOptions) *scene {
	t.Helper()
	ctx := vxgtest.NewContext(t, swapchainImages)
	d := ctx.FakeDriver()
	s := &scene{
		ctx:     ctx,
		d:       d,
		r:       vxg.NewRenderer(ctx),
		graph:   vxg.NewRenderGraph(),
		camera:  vxgtest.NewBuffer(d, 64),
		forward: vxgtest.NewShader(d, "forward"),
		blit:    vxgtest.NewShader(d, "blit"),
		meshes: []*vxgtest.Mesh{
			vxgtest.NewMesh(d, "first", mgl32.Translate3D(1, 2, 3)),
			vxgtest.NewMesh(d, "second", mgl32.Scale3D(4, 5, 6)),
		},
	}
	s.target = s.r.FinalRenderTarget()
	s.depth = vxgtest.NewDepthImage(d, "depth", ctx.Extent())
	for _, name := range []string{"a", "b", "c"} {
		s.textures = append(s.textures, vxgtest.NewSampledTexture(d, name))
	}

	forward := s.graph.AddStage(vxg.RootNode, vxg.StageInfo{
		Name:   "forward",
		Shader: s.forward,
		Type:   vxg.StageTypeForwardGraphics,
		VertexLayout: vxg.VertexLayout{
			{Type: vxg.DataTypeFloat3, Name: "position"},
			{Type: vxg.DataTypeFloat2, Name: "uv"},
		},
		Resources: []vxg.ResourceBinding{
			vxg.UniformResource("camera", 0, vxg.ShaderStageVertex, s.camera),
			vxg.SamplerArrayResource("textures", 1, vxg.ShaderStageFragment, 16, s.textures),
			vxg.PushConstantResource("model", vxg.ShaderStageVertex, 64),
		},
		Meshes: []vxg.Mesh{s.meshes[0], s.meshes[1]},
		Attachments: []vxg.Attachment{
			{
				Name:  "color",
				Kind:  vxg.AttachmentKindColor,
				Image: s.target,
				Clear: opts.clear,
				Barrier: vxg.Barrier{
					OldLayout: opts.colorOldLayout,
					NewLayout: vxg.ImageLayoutShaderReadOnlyOptimal,
				},
			},
			{
				Name:  "depth",
				Kind:  vxg.AttachmentKindDepth,
				Image: s.depth,
				Clear: opts.clear,
				Barrier: vxg.Barrier{
					OldLayout: vxg.ImageLayoutUndefined,
					NewLayout: vxg.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
	})
	s.graph.AddStage(forward, vxg.StageInfo{
		Name:   "blit",
		Shader: s.blit,
		Type:   vxg.StageTypeBlit,
		Resources: []vxg.ResourceBinding{
			vxg.SamplerResource("target", 0, vxg.ShaderStageFragment, s.target),
		},
		Attachments: []vxg.Attachment{
			{
				Name:  "swapchain",
				Kind:  vxg.AttachmentKindSwapchainColor,
				Clear: opts.clear,
				Barrier: vxg.Barrier{
					OldLayout: vxg.ImageLayoutUndefined,
					NewLayout: vxg.ImageLayoutPresent,
				},
			},
		},
	})
	return s
}

func (s *scene) initialize() *scene {
	s.r.Initialize(s.graph)
	return s
}

// computeGraph returns a graph of one compute stage per shader, in order.
func computeGraph(shaders ...*vxgtest.Shader) *vxg.RenderGraph {
	g := vxg.NewRenderGraph()
	parent := vxg.RootNode
	for i, sh := range shaders {
		parent = g.AddStage(parent, vxg.StageInfo{
			Name:        sh.Name,
			Shader:      sh,
			Type:        vxg.StageTypeForwardCompute,
			GroupCounts: gmath.Extent3u32{X: uint32(i + 1), Y: 2, Z: 1},
		})
	}
	return g
}

func expectEmpty[K comparable, V any](t *testing.T, what string, m map[K]V) {
	t.Helper()
	if len(m) != 0 {
		t.Errorf("%d %s still alive, want 0", len(m), what)
	}
}

// expectReleased fails the test if the renderer left any device object alive.
func expectReleased(t *testing.T, d *vxgtest.Driver) {
	t.Helper()
	expectEmpty(t, "render passes", d.RenderPasses)
	expectEmpty(t, "framebuffers", d.Framebuffers)
	expectEmpty(t, "descriptor set layouts", d.Layouts)
	expectEmpty(t, "descriptor pools", d.Pools)
	expectEmpty(t, "fences", d.Fences)
	expectEmpty(t, "semaphores", d.Semaphores)
	expectEmpty(t, "command pools", d.CommandPools)
}

func indexOf(log []string, name string, from int) int {
	for i := from; i < len(log); i++ {
		if log[i] == name {
			return i
		}
	}
	return -1
}
