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
	"errors"
	"slices"

	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg/internal/util"
)

type rendererState uint32

const (
	rendererStateCreated rendererState = iota
	rendererStateInitialized
	rendererStateDestroyed
)

/*
Renderer executes a RenderGraph once per Draw over a ring of frames in
flight. Every method must be called from the thread that records, the
renderer does no locking of its own.
*/
type Renderer struct {
	noCopy util.NoCopy
	ctx    DeviceContext
	driver Driver
	config config
	state  rendererState

	graph       *RenderGraph
	stages      []*Stage
	frames      []*Frame
	frameIndex  int
	layoutCache *DescriptorLayoutCache

	finalTarget    Texture
	ownsTarget     bool
	blitRenderPass vk.RenderPass
	overlayFactory OverlayFactory
	overlay        Overlay

	resizePending bool
	stats         statsRecorder
}

func NewRenderer(ctx DeviceContext) *Renderer {
	if ctx == nil {
		abort("NewRenderer called with a nil DeviceContext")
	}
	r := &Renderer{ctx: ctx, driver: ctx.Driver()}
	r.noCopy.Init()
	return r
}

func (r *Renderer) checkInitialized(fn string) {
	r.noCopy.Check()
	if r.state != rendererStateInitialized {
		abort("%s called on a renderer that is not initialized", fn)
	}
}

/*
SetFinalRenderTarget sets the image the graph's Blit stage reads from and
enables presentation. It has to be called before Initialize.
*/
func (r *Renderer) SetFinalRenderTarget(target Texture) {
	r.noCopy.Check()
	if r.state != rendererStateCreated {
		abort("SetFinalRenderTarget called after Initialize")
	}
	r.finalTarget = target
}

/*
FinalRenderTarget returns the final render target, creating a sampled color
target of the swapchain's extent and format if none was set.
*/
func (r *Renderer) FinalRenderTarget() Texture {
	r.noCopy.Check()
	if r.finalTarget != nil {
		return r.finalTarget
	}
	if r.state != rendererStateCreated {
		abort("FinalRenderTarget cannot create a target after Initialize")
	}
	target, err := r.ctx.CreateTexture(ImageDescription{
		Name:      "final_render_target",
		Extent:    r.ctx.Extent(),
		Format:    r.ctx.SwapchainFormat(),
		Usage:     ImageUsageSampledColorAttachment,
		MipLevels: 1,
	})
	if err != nil {
		abort("Failed to create final render target: %s", err)
	}
	r.finalTarget = target
	r.ownsTarget = true
	return r.finalTarget
}

// SetOverlay sets the factory creating the overlay of the graph's Overlay stage.
func (r *Renderer) SetOverlay(factory OverlayFactory) {
	r.noCopy.Check()
	if r.state != rendererStateCreated {
		abort("SetOverlay called after Initialize")
	}
	r.overlayFactory = factory
}

func (r *Renderer) Overlay() Overlay {
	r.noCopy.Check()
	return r.overlay
}

func (r *Renderer) DescriptorLayoutCache() *DescriptorLayoutCache {
	r.checkInitialized("DescriptorLayoutCache")
	return r.layoutCache
}

func (r *Renderer) FrameIndex() int {
	r.noCopy.Check()
	return r.frameIndex
}

// Frame returns the frame slot the next Draw records into.
func (r *Renderer) Frame() *Frame {
	r.checkInitialized("Frame")
	return r.frames[r.frameIndex]
}

func (r *Renderer) Stages() []*Stage {
	r.noCopy.Check()
	return slices.Clone(r.stages)
}

// Config returns the configuration the renderer was initialized with.
func (r *Renderer) Config() Config {
	r.checkInitialized("Config")
	return r.config.export()
}

/*
Initialize builds the stages of graph in order and the frames in flight. The
configuration is read from the process wide store at this point. Any failure
is fatal.
*/
func (r *Renderer) Initialize(graph *RenderGraph) {
	r.noCopy.Check()
	if r.state != rendererStateCreated {
		abort("Initialize called more than once")
	}
	if graph == nil || graph.Len() == 0 {
		abort("Initialize called with an empty render graph")
	}

	user := CurrentConfig()
	r.config.use(user)
	instance.logger.IPrintf("Initializing renderer with config: %s", prettyString(&user))
	instance.logger.VPrintf("Render graph: %s", prettyString(graph))

	r.graph = graph
	r.layoutCache = newDescriptorLayoutCache(r.driver)

	for _, node := range graph.Stages() {
		s := newStage(r.ctx, node.StageInfo)
		s.init(r.layoutCache)
		switch node.StageInfo.Type {
		case StageTypeBlit:
			if r.finalTarget == nil {
				abort("Blit stage %q requires a final render target", s.Name())
			}
			r.blitRenderPass = s.renderPass
		case StageTypeOverlay:
			if r.overlay != nil {
				abort("Render graph declares more than one overlay stage")
			}
			if r.overlayFactory == nil {
				abort("Overlay stage %q declared without an overlay factory", s.Name())
			}
			r.overlay = r.overlayFactory(s.renderPass)
			s.pass.(*overlayPass).overlay = r.overlay
		}
		r.stages = append(r.stages, s)
	}

	if r.finalTarget != nil && r.blitRenderPass == vk.RenderPass(vk.NullHandle) {
		abort("A final render target is set but the render graph has no Blit stage")
	}

	for i := 0; i < int(r.config.frameCount); i++ {
		f, err := newFrame(r.ctx, i, r.config.descriptorPoolBankSize)
		if err != nil {
			abort("%s", err)
		}
		if r.finalTarget != nil {
			f.createSwapchainTargets(r.blitRenderPass)
		}
		r.frames = append(r.frames, f)
	}

	r.frameIndex = 0
	r.stats.init(len(r.stages))
	r.state = rendererStateInitialized
	instance.logger.IPrintf("Renderer initialized with %d stages and %d frames", len(r.stages), len(r.frames))
}

/*
Resize requests the swapchain to be rebuilt before the next frame, it is
meant to be called from the window's resize handling.
*/
func (r *Renderer) Resize() {
	r.noCopy.Check()
	r.resizePending = true
}

func (r *Renderer) recreateSwapchain() {
	instance.logger.WPrintf("Recreating swapchain")
	r.ctx.WaitIdle()
	if err := r.ctx.RecreateSwapchain(); err != nil {
		abort("Failed to recreate swapchain: %s", err)
	}
	if r.finalTarget != nil {
		for _, f := range r.frames {
			f.destroySwapchainTargets()
			f.createSwapchainTargets(r.blitRenderPass)
		}
	}
	r.resizePending = false
	r.stats.recreations++
}

func (r *Renderer) advanceFrame() {
	r.frameIndex = (r.frameIndex + 1) % len(r.frames)
}

/*
Draw records and submits one frame: every stage is executed in graph order
into the current frame's command buffer. A stale swapchain is rebuilt, when
that happens before recording the frame is skipped without advancing.
*/
func (r *Renderer) Draw() {
	r.checkInitialized("Draw")
	start := hrtime.Now()

	if r.resizePending {
		r.recreateSwapchain()
	}

	f := r.frames[r.frameIndex]
	if err := f.BeginFrame(); err != nil {
		if errors.Is(err, ErrSwapchainOutOfDate) {
			r.recreateSwapchain()
			return
		}
		abort("%s", err)
	}

	for _, s := range r.stages {
		s.resetStats()
		s.Execute(f)
	}

	if err := f.EndFrame(); err != nil {
		if !errors.Is(err, ErrSwapchainOutOfDate) {
			abort("%s", err)
		}
		r.resizePending = true
	}

	r.stats.record(hrtime.Since(start), r.stages)
	r.advanceFrame()
}

/*
Cleanup waits for the device to go idle and destroys everything the renderer
created, in reverse order of dependency. The renderer is unusable afterwards.
*/
func (r *Renderer) Cleanup() {
	r.checkInitialized("Cleanup")
	r.ctx.WaitIdle()

	if d, ok := r.finalTarget.(interface{ Destroy() }); ok && r.ownsTarget {
		d.Destroy()
	}
	r.finalTarget = nil
	for _, f := range r.frames {
		f.destroy()
	}
	r.frames = nil
	for _, s := range r.stages {
		s.destroy()
	}
	r.stages = nil
	r.layoutCache.destroy()
	r.layoutCache = nil
	r.graph.Cleanup()
	r.graph = nil
	r.overlay = nil

	r.state = rendererStateDestroyed
	instance.logger.IPrintf("Renderer destroyed")
	r.noCopy.Close()
}
