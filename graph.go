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
	"bytes"
	"fmt"
	"slices"
)

// NodeHandle identifies a stage within the RenderGraph that returned it.
type NodeHandle int32

// RootNode is the parent of stages that do not depend on another stage.
const RootNode NodeHandle = -1

type RenderGraphNode struct {
	StageInfo StageInfo
	Parent    NodeHandle
}

/*
RenderGraph is the ordered list of stages the renderer executes every frame.
Stages run strictly in the order they were added. Parent links are recorded
for inspection and validated to point at an earlier stage, they never change
the execution order.
*/
type RenderGraph struct {
	nodes []RenderGraphNode
}

func NewRenderGraph() *RenderGraph {
	return &RenderGraph{}
}

func (g *RenderGraph) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("[")

	if len(g.nodes) > 0 {
		for i := range g.nodes {
			n := &g.nodes[i]
			buff.WriteString(fmt.Sprintf("{\"Handle\": %d, \"Parent\": %d, \"Stage\": %s},", i, n.Parent, jsonString(&n.StageInfo)))
		}
		buff.Truncate(buff.Len() - 1)
	}

	buff.WriteString("]")
	return buff.Bytes(), nil
}

/*
AddStage appends info to the graph and returns its handle. The declaration is
only checked for structural problems here, whether the images and resources
it names are used consistently across stages is up to the caller.
*/
func (g *RenderGraph) AddStage(parent NodeHandle, info StageInfo) NodeHandle {
	if parent != RootNode && (parent < 0 || int(parent) >= len(g.nodes)) {
		abort("Stage %q has parent %d which is not a stage of this graph", info.Name, parent)
	}
	validateStageInfo(&info)

	h := NodeHandle(len(g.nodes))
	g.nodes = append(g.nodes, RenderGraphNode{StageInfo: info, Parent: parent})
	instance.logger.VPrintf("Added stage %d %q [%s] with parent %d", h, info.Name, info.Type, parent)
	return h
}

// Stages returns the nodes in insertion order.
func (g *RenderGraph) Stages() []RenderGraphNode {
	return slices.Clone(g.nodes)
}

func (g *RenderGraph) Len() int {
	return len(g.nodes)
}

func (g *RenderGraph) Parent(h NodeHandle) NodeHandle {
	if h < 0 || int(h) >= len(g.nodes) {
		abort("Invalid stage handle: %d", h)
	}
	return g.nodes[h].Parent
}

func (g *RenderGraph) Cleanup() {
	clear(g.nodes)
	g.nodes = nil
}

func validateStageInfo(info *StageInfo) {
	switch info.Type {
	case StageTypeForwardGraphics, StageTypeDeferredGraphics, StageTypeBlit:
		if len(info.Attachments) == 0 {
			abort("Stage %q of type [%s] requires at least one attachment", info.Name, info.Type)
		}
		if info.Shader == nil {
			abort("Stage %q of type [%s] requires a shader", info.Name, info.Type)
		}
	case StageTypeOverlay:
		if len(info.Attachments) == 0 {
			abort("Stage %q of type [%s] requires at least one attachment", info.Name, info.Type)
		}
		if len(info.Resources) > 0 || len(info.Meshes) > 0 {
			abort("Stage %q of type [%s] cannot declare resources or meshes", info.Name, info.Type)
		}
	case StageTypeForwardCompute, StageTypeDeferredCompute:
		if info.Shader == nil {
			abort("Stage %q of type [%s] requires a shader", info.Name, info.Type)
		}
	default:
		abort("Stage %q has invalid type: %s", info.Name, info.Type)
	}

	depth := 0
	for _, a := range info.Attachments {
		switch a.Kind {
		case AttachmentKindColor, AttachmentKindDepth, AttachmentKindDepthStencil:
			if a.Image == nil {
				abort("Stage %q attachment %q of kind [%s] has no image", info.Name, a.Name, a.Kind)
			}
			if a.Kind.isDepth() {
				depth++
			}
		case AttachmentKindSwapchainColor:
			if info.Type != StageTypeBlit {
				abort("Stage %q attachment %q: swapchain attachments are only valid on Blit stages", info.Name, a.Name)
			}
		default:
			abort("Stage %q attachment %q has invalid kind: %s", info.Name, a.Name, a.Kind)
		}
	}
	if depth > 1 {
		abort("Stage %q declares %d depth attachments, at most one is allowed", info.Name, depth)
	}

	bindings := map[uint32]string{}
	for _, r := range info.Resources {
		switch r.Kind {
		case ResourceKindUniform, ResourceKindStorage:
			if r.Buffer == nil {
				abort("Stage %q resource %q of kind [%s] has no buffer", info.Name, r.Name, r.Kind)
			}
		case ResourceKindSampler:
			if r.Texture == nil {
				abort("Stage %q resource %q of kind [%s] has no texture", info.Name, r.Name, r.Kind)
			}
		case ResourceKindSamplerArray:
			if r.ArrayCapacity == 0 {
				abort("Stage %q resource %q: SamplerArray capacity must be >= 1", info.Name, r.Name)
			}
		case ResourceKindPushConstant:
			if r.Size == 0 || r.Size%4 != 0 {
				abort("Stage %q resource %q: push constant size [%d] must be a non zero multiple of 4", info.Name, r.Name, r.Size)
			}
		case ResourceKindSpecializationConstant:
			if len(r.Data) == 0 {
				abort("Stage %q resource %q: specialization constant has no data", info.Name, r.Name)
			}
		default:
			abort("Stage %q resource %q has invalid kind: %s", info.Name, r.Name, r.Kind)
		}
		if r.Kind.hasDescriptor() {
			if other, ok := bindings[r.Binding]; ok {
				abort("Stage %q resources %q and %q share binding %d", info.Name, other, r.Name, r.Binding)
			}
			bindings[r.Binding] = r.Name
		}
	}
}
