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
	"os"
	"path/filepath"
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/rhi/vxg"
)

const testGraph = `{"Stages": [
	{"Name": "forward", "Type": "ForwardGraphics", "Attachments": [
		{"Name": "color", "Kind": "Color", "Format": "RGBA8", "Clear": true, "OldLayout": "ShaderReadOnlyOptimal", "NewLayout": "ShaderReadOnlyOptimal"},
		{"Name": "depth", "Kind": "Depth", "Format": "Depth32", "Clear": true, "OldLayout": "Undefined", "NewLayout": "DepthStencilAttachmentOptimal"}
	]},
	{"Name": "cull", "Type": "ForwardCompute"},
	{"Name": "blit", "Type": "Blit", "Parent": 0, "Attachments": [
		{"Name": "swapchain", "Kind": "SwapchainColor", "OldLayout": "Undefined", "NewLayout": "Present"}
	]}
]}`

func TestParseGraph(t *testing.T) {
	g, err := parseGraph([]byte(testGraph))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Stages) != 3 {
		t.Fatalf("len(Stages) = %d, want 3", len(g.Stages))
	}
	if g.Stages[0].Type.StageType != vxg.StageTypeForwardGraphics || g.Stages[1].Type.StageType != vxg.StageTypeForwardCompute {
		t.Errorf("stage types = %s, %s", g.Stages[0].Type, g.Stages[1].Type)
	}
	if g.Stages[2].Parent == nil || *g.Stages[2].Parent != 0 {
		t.Errorf("blit parent was not parsed")
	}
	if g.Stages[0].Parent != nil {
		t.Errorf("forward has a parent, want none")
	}
	depth := g.Stages[0].Attachments[1]
	if depth.Kind.AttachmentKind != vxg.AttachmentKindDepth || depth.Format.DataType != vxg.DataTypeDepth32 ||
		depth.NewLayout.ImageLayout != vxg.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("depth attachment = %+v", depth)
	}

	tests := []struct {
		name string
		data string
	}{
		{"Empty", `{"Stages": []}`},
		{"NotJSON", `Stages`},
		{"UnknownType", `{"Stages": [{"Name": "a", "Type": "Raytracing"}]}`},
		{"UnknownKind", `{"Stages": [{"Name": "a", "Type": "Blit", "Attachments": [{"Kind": "Stencil"}]}]}`},
		{"UnknownLayout", `{"Stages": [{"Name": "a", "Type": "Blit", "Attachments": [{"Kind": "SwapchainColor", "OldLayout": "Optimal"}]}]}`},
		{"UnknownFormat", `{"Stages": [{"Name": "a", "Type": "Blit", "Attachments": [{"Kind": "Color", "Format": "RGB565"}]}]}`},
	}
	for _, test := range tests {
		if _, err := parseGraph([]byte(test.data)); err == nil {
			t.Errorf("%s: parseGraph() = nil error, want error", test.name)
		}
	}
}

func TestDeriveStages(t *testing.T) {
	file, err := parseGraph([]byte(testGraph))
	if err != nil {
		t.Fatal(err)
	}
	graph := buildGraph(file)
	defer graph.Cleanup()
	if graph.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", graph.Len())
	}

	stages, err := deriveStages(graph, vk.FormatB8g8r8a8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) != 3 {
		t.Fatalf("len(deriveStages()) = %d, want 3", len(stages))
	}
	if stages[1].Name != "cull" || string(stages[1].RenderPass) != "null" {
		t.Errorf("compute stage render pass = %s, want null", stages[1].RenderPass)
	}
	if stages[2].Parent != 0 || stages[0].Parent != vxg.RootNode {
		t.Errorf("parents = %d, %d, want %d, 0", stages[0].Parent, stages[2].Parent, vxg.RootNode)
	}

	var pass struct {
		Attachments []struct {
			LoadOp      string
			FinalLayout string
		}
	}
	if err := json.Unmarshal(stages[0].RenderPass, &pass); err != nil {
		t.Fatal(err)
	}
	if len(pass.Attachments) != 2 {
		t.Fatalf("forward render pass has %d attachments, want 2", len(pass.Attachments))
	}
	if pass.Attachments[0].LoadOp != "Clear" || pass.Attachments[1].LoadOp != "DontCare" {
		t.Errorf("forward load ops = %s, %s, want Clear, DontCare", pass.Attachments[0].LoadOp, pass.Attachments[1].LoadOp)
	}
	if err := json.Unmarshal(stages[2].RenderPass, &pass); err != nil {
		t.Fatal(err)
	}
	if pass.Attachments[0].FinalLayout != vxg.ImageLayoutPresent.String() {
		t.Errorf("blit final layout = %s, want %s", pass.Attachments[0].FinalLayout, vxg.ImageLayoutPresent)
	}

	dir := t.TempDir()
	genJson(dir, "test", stages)
	data, err := os.ReadFile(filepath.Join(dir, "test.renderpass.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded []derivedStage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 3 || decoded[2].Name != "blit" {
		t.Errorf("genJson() wrote %d stages", len(decoded))
	}
}

func TestBuildGraph_InvalidAborts(t *testing.T) {
	file, err := parseGraph([]byte(`{"Stages": [{"Name": "a", "Type": "ForwardGraphics"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("buildGraph() of a graphics stage without attachments did not abort")
		}
	}()
	buildGraph(file)
}
