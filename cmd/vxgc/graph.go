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
	"encoding/json"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
)

func lookup[T fmt.Stringer](values []T, data []byte) (T, error) {
	for _, v := range values {
		if v.String() == string(data) {
			return v, nil
		}
	}
	var zero T
	return zero, debug.Errorf("Invalid value: %q", data)
}

type stageType struct{ vxg.StageType }

func (t *stageType) UnmarshalText(data []byte) (err error) {
	t.StageType, err = lookup([]vxg.StageType{
		vxg.StageTypeForwardGraphics, vxg.StageTypeDeferredGraphics,
		vxg.StageTypeForwardCompute, vxg.StageTypeDeferredCompute,
		vxg.StageTypeBlit, vxg.StageTypeOverlay,
	}, data)
	return err
}

type attachmentKind struct{ vxg.AttachmentKind }

func (k *attachmentKind) UnmarshalText(data []byte) (err error) {
	k.AttachmentKind, err = lookup([]vxg.AttachmentKind{
		vxg.AttachmentKindColor, vxg.AttachmentKindDepth,
		vxg.AttachmentKindDepthStencil, vxg.AttachmentKindSwapchainColor,
	}, data)
	return err
}

type imageLayout struct{ vxg.ImageLayout }

func (l *imageLayout) UnmarshalText(data []byte) (err error) {
	l.ImageLayout, err = lookup([]vxg.ImageLayout{
		vxg.ImageLayoutUndefined, vxg.ImageLayoutGeneral,
		vxg.ImageLayoutColorAttachmentOptimal, vxg.ImageLayoutDepthStencilAttachmentOptimal,
		vxg.ImageLayoutDepthStencilReadOnlyOptimal, vxg.ImageLayoutShaderReadOnlyOptimal,
		vxg.ImageLayoutTransferSrc, vxg.ImageLayoutTransferDst, vxg.ImageLayoutPresent,
	}, data)
	return err
}

type dataType struct{ vxg.DataType }

func (t *dataType) UnmarshalText(data []byte) (err error) {
	t.DataType, err = lookup([]vxg.DataType{
		vxg.DataTypeRGBA8, vxg.DataTypeBGRA8,
		vxg.DataTypeDepth32, vxg.DataTypeDepth32Stencil8, vxg.DataTypeDepth24Stencil8,
		vxg.DataTypeFloat, vxg.DataTypeFloat2, vxg.DataTypeFloat4,
	}, data)
	return err
}

func (t dataType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type attachmentFile struct {
	Name      string
	Kind      attachmentKind
	Format    dataType
	Clear     bool
	OldLayout imageLayout
	NewLayout imageLayout
}

type stageFile struct {
	Name        string
	Type        stageType
	Parent      *int32
	Attachments []attachmentFile
}

type graphFile struct {
	Stages []stageFile
}

// offlineImage stands in for a device image, only its format is ever read.
type offlineImage struct {
	format vk.Format
	layout vxg.ImageLayout
}

func (i *offlineImage) Handle() vk.Image                 { return vk.Image(vk.NullHandle) }
func (i *offlineImage) View() vk.ImageView               { return vk.ImageView(vk.NullHandle) }
func (i *offlineImage) Format() vk.Format                { return i.format }
func (i *offlineImage) Samples() vk.SampleCountFlagBits  { return vk.SampleCount1Bit }
func (i *offlineImage) Extent() vk.Extent2D              { return vk.Extent2D{} }
func (i *offlineImage) Aspect() vxg.ImageAspectFlags     { return vxg.ImageAspectColor }
func (i *offlineImage) Layout() vxg.ImageLayout          { return i.layout }
func (i *offlineImage) SetLayout(layout vxg.ImageLayout) { i.layout = layout }

type offlineShader struct{}

func (offlineShader) Generate(vxg.PipelineInfo) error   { return nil }
func (offlineShader) Bind(vk.CommandBuffer)             {}
func (offlineShader) PipelineLayout() vk.PipelineLayout { return vk.PipelineLayout(vk.NullHandle) }

func parseGraph(data []byte) (*graphFile, error) {
	g := &graphFile{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to parse graph")
	}
	if len(g.Stages) == 0 {
		return nil, debug.Errorf("Graph has no stages")
	}
	return g, nil
}

/*
buildGraph turns the file into a vxg.RenderGraph backed by offline images, so
the same validation the renderer runs applies to the file.
*/
func buildGraph(g *graphFile) *vxg.RenderGraph {
	graph := vxg.NewRenderGraph()
	for _, s := range g.Stages {
		info := vxg.StageInfo{
			Name: s.Name,
			Type: s.Type.StageType,
		}
		if s.Type.StageType != vxg.StageTypeOverlay {
			info.Shader = offlineShader{}
		}
		for _, a := range s.Attachments {
			attachment := vxg.Attachment{
				Name:  a.Name,
				Kind:  a.Kind.AttachmentKind,
				Clear: a.Clear,
				Barrier: vxg.Barrier{
					OldLayout: a.OldLayout.ImageLayout,
					NewLayout: a.NewLayout.ImageLayout,
				},
			}
			if a.Kind.AttachmentKind != vxg.AttachmentKindSwapchainColor {
				attachment.Image = &offlineImage{format: a.Format.Format()}
			}
			info.Attachments = append(info.Attachments, attachment)
		}
		parent := vxg.RootNode
		if s.Parent != nil {
			parent = vxg.NodeHandle(*s.Parent)
		}
		graph.AddStage(parent, info)
	}
	return graph
}

type derivedStage struct {
	Handle     int
	Parent     vxg.NodeHandle
	Name       string
	Type       string
	RenderPass json.RawMessage
}

func deriveStages(graph *vxg.RenderGraph, swapchainFormat vk.Format) ([]derivedStage, error) {
	var stages []derivedStage
	for i, n := range graph.Stages() {
		s := derivedStage{
			Handle:     i,
			Parent:     n.Parent,
			Name:       n.StageInfo.Name,
			Type:       n.StageInfo.Type.String(),
			RenderPass: json.RawMessage("null"),
		}
		if !n.StageInfo.Type.IsCompute() {
			desc := vxg.DeriveRenderPass(&n.StageInfo, swapchainFormat)
			j, err := json.Marshal(&desc)
			if err != nil {
				return nil, debug.ErrorWrapf(err, "Stage %q", s.Name)
			}
			s.RenderPass = j
		}
		stages = append(stages, s)
	}
	return stages, nil
}
