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

	vk "github.com/vulkan-go/vulkan"
)

/*
RenderPassDescription is the single subpass render pass derived from a
stage's attachments. ClearValues is indexed like Attachments, entries of
attachments that are not cleared are zero.
*/
type RenderPassDescription struct {
	Attachments     []vk.AttachmentDescription
	ColorReferences []vk.AttachmentReference
	DepthReference  *vk.AttachmentReference
	Dependencies    []vk.SubpassDependency
	ClearValues     []vk.ClearValue
}

func loadOp(clear bool, oldLayout ImageLayout) vk.AttachmentLoadOp {
	switch {
	case oldLayout == ImageLayoutUndefined:
		return vk.AttachmentLoadOpDontCare
	case clear:
		return vk.AttachmentLoadOpClear
	default:
		return vk.AttachmentLoadOpLoad
	}
}

// withDefaults fills in the scopes a zero Barrier leaves out, a dependency with empty stage masks is invalid.
func (b Barrier) withDefaults(kind AttachmentKind) Barrier {
	stage, access := PipelineStageColorAttachmentOutput, AccessFlagColorAttachmentWrite
	if kind.isDepth() {
		stage, access = PipelineStageEarlyFragmentTests|PipelineStageLateFragmentTests, AccessFlagDepthStencilAttachmentWrite
	}
	if b.SrcStage == PipelineStageNone {
		b.SrcStage = stage
	}
	if b.DstStage == PipelineStageNone {
		b.DstStage = stage
		if b.DstAccess == AccessFlagNone {
			b.DstAccess = access
		}
	}
	return b
}

/*
DeriveRenderPass computes the render pass of a stage without touching the
device. Swapchain attachments use swapchainFormat with a single sample.
*/
func DeriveRenderPass(info *StageInfo, swapchainFormat vk.Format) RenderPassDescription {
	d := RenderPassDescription{
		Attachments:  make([]vk.AttachmentDescription, len(info.Attachments)),
		Dependencies: make([]vk.SubpassDependency, len(info.Attachments)),
		ClearValues:  make([]vk.ClearValue, len(info.Attachments)),
	}

	for i, a := range info.Attachments {
		desc := vk.AttachmentDescription{
			Samples:        vk.SampleCount1Bit,
			LoadOp:         loadOp(a.Clear, a.Barrier.OldLayout),
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayout(a.Barrier.OldLayout),
			FinalLayout:    vk.ImageLayout(a.Barrier.NewLayout),
		}
		if a.Kind == AttachmentKindSwapchainColor {
			desc.Format = swapchainFormat
		} else {
			desc.Format = a.Image.Format()
			desc.Samples = a.Image.Samples()
		}

		switch a.Kind {
		case AttachmentKindColor, AttachmentKindSwapchainColor:
			d.ColorReferences = append(d.ColorReferences, vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			})
			if a.Clear {
				d.ClearValues[i] = vk.NewClearValue([]float32{0, 0, 0, 1})
			}
		case AttachmentKindDepth, AttachmentKindDepthStencil:
			desc.StencilLoadOp = desc.LoadOp
			desc.StencilStoreOp = vk.AttachmentStoreOpStore
			if d.DepthReference != nil {
				abort("Stage %q declares more than one depth attachment", info.Name)
			}
			d.DepthReference = &vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
			if a.Clear {
				d.ClearValues[i] = vk.NewClearDepthStencil(1.0, 0)
			}
		}
		d.Attachments[i] = desc

		b := a.Barrier.withDefaults(a.Kind)
		d.Dependencies[i] = vk.SubpassDependency{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(b.SrcStage),
			DstStageMask:  vk.PipelineStageFlags(b.DstStage),
			SrcAccessMask: vk.AccessFlags(b.SrcAccess),
			DstAccessMask: vk.AccessFlags(b.DstAccess),
		}
	}

	return d
}

func (d *RenderPassDescription) createInfo() vk.RenderPassCreateInfo {
	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(d.ColorReferences)),
		PColorAttachments:       d.ColorReferences,
		PDepthStencilAttachment: d.DepthReference,
	}
	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(d.Attachments)),
		PAttachments:    d.Attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(d.Dependencies)),
		PDependencies:   d.Dependencies,
	}
}

func loadOpString(op vk.AttachmentLoadOp) string {
	switch op {
	case vk.AttachmentLoadOpLoad:
		return "Load"
	case vk.AttachmentLoadOpClear:
		return "Clear"
	case vk.AttachmentLoadOpDontCare:
		return "DontCare"
	}
	return fmt.Sprintf("AttachmentLoadOp(%d)", op)
}

func storeOpString(op vk.AttachmentStoreOp) string {
	switch op {
	case vk.AttachmentStoreOpStore:
		return "Store"
	case vk.AttachmentStoreOpDontCare:
		return "DontCare"
	}
	return fmt.Sprintf("AttachmentStoreOp(%d)", op)
}

func (d *RenderPassDescription) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	{
		buff.WriteString("\"Attachments\": [")
		if len(d.Attachments) > 0 {
			for _, a := range d.Attachments {
				buff.WriteString(fmt.Sprintf("{\"Format\": %q, \"Samples\": %d, \"LoadOp\": %q, \"StoreOp\": %q, \"StencilLoadOp\": %q, \"StencilStoreOp\": %q, \"InitialLayout\": %q, \"FinalLayout\": %q},",
					toHex(a.Format), a.Samples, loadOpString(a.LoadOp), storeOpString(a.StoreOp),
					loadOpString(a.StencilLoadOp), storeOpString(a.StencilStoreOp),
					ImageLayout(a.InitialLayout).String(), ImageLayout(a.FinalLayout).String()))
			}
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("],")
	}
	{
		buff.WriteString("\"ColorReferences\": [")
		if len(d.ColorReferences) > 0 {
			for _, r := range d.ColorReferences {
				buff.WriteString(fmt.Sprintf("%d,", r.Attachment))
			}
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("],")
	}
	if d.DepthReference != nil {
		buff.WriteString(fmt.Sprintf("\"DepthReference\": %d,", d.DepthReference.Attachment))
	} else {
		buff.WriteString("\"DepthReference\": null,")
	}
	{
		buff.WriteString("\"Dependencies\": [")
		if len(d.Dependencies) > 0 {
			for _, dep := range d.Dependencies {
				buff.WriteString(fmt.Sprintf("{\"SrcStage\": %q, \"DstStage\": %q, \"SrcAccess\": %q, \"DstAccess\": %q},",
					PipelineStage(dep.SrcStageMask).String(), PipelineStage(dep.DstStageMask).String(),
					AccessFlags(dep.SrcAccessMask).String(), AccessFlags(dep.DstAccessMask).String()))
			}
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("]")
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}
