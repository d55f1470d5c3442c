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
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

type PipelineStage vk.PipelineStageFlags

const (
	PipelineStageNone                  PipelineStage = 0
	PipelineStageTopOfPipe                           = PipelineStage(vk.PipelineStageTopOfPipeBit)
	PipelineStageVertexInput                         = PipelineStage(vk.PipelineStageVertexInputBit)
	PipelineStageVertexShader                        = PipelineStage(vk.PipelineStageVertexShaderBit)
	PipelineStageFragmentShader                      = PipelineStage(vk.PipelineStageFragmentShaderBit)
	PipelineStageEarlyFragmentTests                  = PipelineStage(vk.PipelineStageEarlyFragmentTestsBit)
	PipelineStageLateFragmentTests                   = PipelineStage(vk.PipelineStageLateFragmentTestsBit)
	PipelineStageColorAttachmentOutput               = PipelineStage(vk.PipelineStageColorAttachmentOutputBit)
	PipelineStageComputeShader                       = PipelineStage(vk.PipelineStageComputeShaderBit)
	PipelineStageTransfer                            = PipelineStage(vk.PipelineStageTransferBit)
	PipelineStageBottomOfPipe                        = PipelineStage(vk.PipelineStageBottomOfPipeBit)
	PipelineStageAllGraphics                         = PipelineStage(vk.PipelineStageAllGraphicsBit)
	PipelineStageAllCommands                         = PipelineStage(vk.PipelineStageAllCommandsBit)
)

func (s PipelineStage) HasBits(want PipelineStage) bool {
	return hasBits(s, want)
}

func (s PipelineStage) String() string {
	str := ""
	for _, n := range []struct {
		bit  PipelineStage
		name string
	}{
		{PipelineStageTopOfPipe, "TopOfPipe"},
		{PipelineStageVertexInput, "VertexInput"},
		{PipelineStageVertexShader, "VertexShader"},
		{PipelineStageFragmentShader, "FragmentShader"},
		{PipelineStageEarlyFragmentTests, "EarlyFragmentTests"},
		{PipelineStageLateFragmentTests, "LateFragmentTests"},
		{PipelineStageColorAttachmentOutput, "ColorAttachmentOutput"},
		{PipelineStageComputeShader, "ComputeShader"},
		{PipelineStageTransfer, "Transfer"},
		{PipelineStageBottomOfPipe, "BottomOfPipe"},
		{PipelineStageAllGraphics, "AllGraphics"},
		{PipelineStageAllCommands, "AllCommands"},
	} {
		if s.HasBits(n.bit) {
			str += n.name + "|"
		}
	}
	if str == "" {
		return "None"
	}
	return strings.TrimSuffix(str, "|")
}

type AccessFlags vk.AccessFlags

const (
	AccessFlagNone                        AccessFlags = 0
	AccessFlagShaderRead                              = AccessFlags(vk.AccessShaderReadBit)
	AccessFlagShaderWrite                             = AccessFlags(vk.AccessShaderWriteBit)
	AccessFlagColorAttachmentRead                     = AccessFlags(vk.AccessColorAttachmentReadBit)
	AccessFlagColorAttachmentWrite                    = AccessFlags(vk.AccessColorAttachmentWriteBit)
	AccessFlagDepthStencilAttachmentRead              = AccessFlags(vk.AccessDepthStencilAttachmentReadBit)
	AccessFlagDepthStencilAttachmentWrite             = AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	AccessFlagTransferRead                            = AccessFlags(vk.AccessTransferReadBit)
	AccessFlagTransferWrite                           = AccessFlags(vk.AccessTransferWriteBit)
	AccessFlagMemoryRead                              = AccessFlags(vk.AccessMemoryReadBit)
	AccessFlagMemoryWrite                             = AccessFlags(vk.AccessMemoryWriteBit)
)

func (a AccessFlags) HasBits(want AccessFlags) bool {
	return hasBits(a, want)
}

func (a AccessFlags) String() string {
	str := ""
	for _, n := range []struct {
		bit  AccessFlags
		name string
	}{
		{AccessFlagShaderRead, "ShaderRead"},
		{AccessFlagShaderWrite, "ShaderWrite"},
		{AccessFlagColorAttachmentRead, "ColorAttachmentRead"},
		{AccessFlagColorAttachmentWrite, "ColorAttachmentWrite"},
		{AccessFlagDepthStencilAttachmentRead, "DepthStencilAttachmentRead"},
		{AccessFlagDepthStencilAttachmentWrite, "DepthStencilAttachmentWrite"},
		{AccessFlagTransferRead, "TransferRead"},
		{AccessFlagTransferWrite, "TransferWrite"},
		{AccessFlagMemoryRead, "MemoryRead"},
		{AccessFlagMemoryWrite, "MemoryWrite"},
	} {
		if a.HasBits(n.bit) {
			str += n.name + "|"
		}
	}
	if str == "" {
		return "None"
	}
	return strings.TrimSuffix(str, "|")
}

// layoutAccess returns the stage and access scope a layout is used with.
func layoutAccess(l ImageLayout) (PipelineStage, AccessFlags) {
	switch l {
	case ImageLayoutUndefined:
		return PipelineStageTopOfPipe, AccessFlagNone
	case ImageLayoutColorAttachmentOptimal:
		return PipelineStageColorAttachmentOutput, AccessFlagColorAttachmentRead | AccessFlagColorAttachmentWrite
	case ImageLayoutDepthStencilAttachmentOptimal:
		return PipelineStageEarlyFragmentTests | PipelineStageLateFragmentTests,
			AccessFlagDepthStencilAttachmentRead | AccessFlagDepthStencilAttachmentWrite
	case ImageLayoutDepthStencilReadOnlyOptimal:
		return PipelineStageEarlyFragmentTests | PipelineStageFragmentShader,
			AccessFlagDepthStencilAttachmentRead | AccessFlagShaderRead
	case ImageLayoutShaderReadOnlyOptimal:
		return PipelineStageFragmentShader | PipelineStageComputeShader, AccessFlagShaderRead
	case ImageLayoutTransferSrc:
		return PipelineStageTransfer, AccessFlagTransferRead
	case ImageLayoutTransferDst:
		return PipelineStageTransfer, AccessFlagTransferWrite
	case ImageLayoutPresent:
		return PipelineStageBottomOfPipe, AccessFlagNone
	}
	return PipelineStageAllCommands, AccessFlagMemoryRead | AccessFlagMemoryWrite
}
