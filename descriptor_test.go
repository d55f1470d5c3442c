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

	vk "github.com/vulkan-go/vulkan"

	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/vxgtest"
)

func layoutBinding(binding uint32, t vk.DescriptorType, count uint32, stage vxg.ShaderStage) vk.DescriptorSetLayoutBinding {
	return vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  t,
		DescriptorCount: count,
		StageFlags:      vk.ShaderStageFlags(stage),
	}
}

func newComputeRenderer(t *testing.T) (*vxg.Renderer, *vxgtest.Driver) {
	t.Helper()
	ctx := vxgtest.NewContext(t, swapchainImages)
	r := vxg.NewRenderer(ctx)
	r.Initialize(computeGraph(vxgtest.NewShader(ctx.FakeDriver(), "a")))
	return r, ctx.FakeDriver()
}

func TestDescriptorLayoutCache_DedupesRegardlessOfOrder(t *testing.T) {
	r, d := newComputeRenderer(t)
	c := r.DescriptorLayoutCache()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}

	uniform := layoutBinding(0, vk.DescriptorTypeUniformBuffer, 1, vxg.ShaderStageVertex)
	samplers := layoutBinding(1, vk.DescriptorTypeCombinedImageSampler, 512, vxg.ShaderStageFragment)

	a := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{samplers, uniform}, nil)
	b := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{uniform, samplers}, nil)
	if a != b {
		t.Errorf("layouts of the same bindings in a different order differ")
	}
	if a.ID() != b.ID() {
		t.Errorf("ID() = %q and %q, want equal", a.ID(), b.ID())
	}
	if c.Len() != 1 || d.LayoutsCreated != 1 {
		t.Errorf("Len() = %d, LayoutsCreated = %d, want 1, 1", c.Len(), d.LayoutsCreated)
	}
	if got := a.Bindings(); got[0].Binding != 0 || got[1].Binding != 1 || got[1].DescriptorCount != 512 {
		t.Errorf("Bindings() are not sorted by binding")
	}
	if got := d.Layouts[a.Handle()]; len(got) != 2 || got[0].Binding != 0 {
		t.Errorf("layout created from unsorted bindings")
	}

	other := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{
		uniform,
		layoutBinding(1, vk.DescriptorTypeCombinedImageSampler, 512, vxg.ShaderStageGraphics),
	}, nil)
	if other == a {
		t.Errorf("layouts with different stages are shared")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	j, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(j) {
		t.Errorf("DescriptorLayoutCache json is invalid: %s", j)
	}

	r.Cleanup()
	expectReleased(t, d)
}

func TestDescriptorLayoutCache_DuplicateBindingAborts(t *testing.T) {
	r, _ := newComputeRenderer(t)
	c := r.DescriptorLayoutCache()
	vxgtest.ExpectAbort(t, func() {
		c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{
			layoutBinding(2, vk.DescriptorTypeUniformBuffer, 1, vxg.ShaderStageVertex),
			layoutBinding(2, vk.DescriptorTypeStorageBuffer, 1, vxg.ShaderStageVertex),
		}, nil)
	})
}

func TestDescriptorLayoutCache_BindingFlags(t *testing.T) {
	r, d := newComputeRenderer(t)
	c := r.DescriptorLayoutCache()

	uniform := layoutBinding(0, vk.DescriptorTypeUniformBuffer, 1, vxg.ShaderStageFragment)
	samplers := layoutBinding(1, vk.DescriptorTypeCombinedImageSampler, 512, vxg.ShaderStageFragment)
	partial := vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit)

	plain := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{uniform, samplers}, nil)
	if _, ok := d.LayoutFlags[plain.Handle()]; ok {
		t.Errorf("layout without binding flags chained a binding flags structure")
	}

	flagged := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{samplers, uniform}, []vk.DescriptorBindingFlags{partial, 0})
	if flagged == plain {
		t.Errorf("layouts with different binding flags are shared")
	}
	got := d.LayoutFlags[flagged.Handle()]
	if len(got) != 2 || got[0] != 0 || got[1] != partial {
		t.Errorf("binding flags passed to CreateDescriptorSetLayout = %v, want [0 %d]", got, partial)
	}
	if f := flagged.BindingFlags(); len(f) != 2 || f[1] != partial {
		t.Errorf("BindingFlags() = %v, want the flags sorted with their bindings", f)
	}

	same := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{uniform, samplers}, []vk.DescriptorBindingFlags{0, partial})
	if same != flagged {
		t.Errorf("layouts of the same flagged bindings in a different order differ")
	}

	vxgtest.ExpectAbort(t, func() {
		c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{uniform, samplers}, []vk.DescriptorBindingFlags{partial})
	})

	r.Cleanup()
	expectReleased(t, d)
}

func TestDescriptorAllocator_GrowsBanks(t *testing.T) {
	c := vxg.DefaultConfig()
	c.DescriptorPoolBankSize = 2
	useConfig(t, c)
	r, d := newComputeRenderer(t)

	layout := r.DescriptorLayoutCache().CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{
		layoutBinding(0, vk.DescriptorTypeUniformBuffer, 1, vxg.ShaderStageCompute),
		layoutBinding(1, vk.DescriptorTypeCombinedImageSampler, 4, vxg.ShaderStageCompute),
	}, nil)
	a := r.Frame().DescriptorAllocator()

	sets := map[vk.DescriptorSet]bool{}
	for i := 0; i < 5; i++ {
		sets[a.Allocate(layout)] = true
	}
	if len(sets) != 5 {
		t.Errorf("distinct sets = %d, want 5", len(sets))
	}
	if d.PoolsCreated != 3 {
		t.Errorf("PoolsCreated = %d, want 3", d.PoolsCreated)
	}
	if a.Allocated() != 5 {
		t.Errorf("Allocated() = %d, want 5", a.Allocated())
	}
	for _, p := range d.Pools {
		if p.MaxSets != 2 {
			t.Errorf("pool MaxSets = %d, want 2", p.MaxSets)
		}
		if len(p.Sizes) != 2 || p.Sizes[0].DescriptorCount != 2 || p.Sizes[1].DescriptorCount != 8 {
			t.Errorf("pool sizes are not scaled by the bank size")
		}
	}

	a.ResetPools()
	if d.PoolResets != 3 {
		t.Errorf("PoolResets = %d, want 3", d.PoolResets)
	}
	if a.Allocated() != 0 {
		t.Errorf("Allocated() after ResetPools = %d, want 0", a.Allocated())
	}
	for i := 0; i < 6; i++ {
		a.Allocate(layout)
	}
	if d.PoolsCreated != 3 {
		t.Errorf("PoolsCreated after reuse = %d, want 3", d.PoolsCreated)
	}

	j, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(j) {
		t.Errorf("DescriptorAllocator json is invalid: %s", j)
	}
	r.Cleanup()
	expectReleased(t, d)
}

func TestDescriptorAllocator_BanksPerLayout(t *testing.T) {
	r, d := newComputeRenderer(t)
	c := r.DescriptorLayoutCache()
	first := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{layoutBinding(0, vk.DescriptorTypeUniformBuffer, 1, vxg.ShaderStageCompute)}, nil)
	second := c.CreateDescriptorLayout([]vk.DescriptorSetLayoutBinding{layoutBinding(0, vk.DescriptorTypeStorageBuffer, 1, vxg.ShaderStageCompute)}, nil)

	a := r.Frame().DescriptorAllocator()
	a.Allocate(first)
	a.Allocate(second)
	a.Allocate(first)
	if d.PoolsCreated != 2 {
		t.Errorf("PoolsCreated = %d, want 2", d.PoolsCreated)
	}
	for _, p := range d.Pools {
		if len(p.Sizes) != 1 {
			t.Fatalf("pool has %d sizes, want 1", len(p.Sizes))
		}
		switch p.Sizes[0].Type {
		case vk.DescriptorTypeUniformBuffer:
			if p.Allocated != 2 {
				t.Errorf("uniform pool allocated %d sets, want 2", p.Allocated)
			}
		case vk.DescriptorTypeStorageBuffer:
			if p.Allocated != 1 {
				t.Errorf("storage pool allocated %d sets, want 1", p.Allocated)
			}
		default:
			t.Errorf("unexpected pool type %d", p.Sizes[0].Type)
		}
	}
	r.Cleanup()
}

func TestStage_BindResourcesContent(t *testing.T) {
	ctx := vxgtest.NewContext(t, swapchainImages)
	d := ctx.FakeDriver()
	buffer := vxgtest.NewBuffer(d, 256)
	single := vxgtest.NewSampledTexture(d, "single")
	array := vxg.Textures{
		vxgtest.NewSampledTexture(d, "a"),
		vxgtest.NewSampledTexture(d, "b"),
		vxgtest.NewSampledTexture(d, "c"),
	}

	g := vxg.NewRenderGraph()
	g.AddStage(vxg.RootNode, vxg.StageInfo{
		Name: "bind", Type: vxg.StageTypeForwardCompute, Shader: vxgtest.NewShader(d, "bind"),
		Resources: []vxg.ResourceBinding{
			vxg.UniformResource("uniform", 0, vxg.ShaderStageCompute, buffer),
			vxg.SamplerResource("single", 1, vxg.ShaderStageCompute, single),
			vxg.SamplerArrayResource("array", 2, vxg.ShaderStageCompute, 512, array),
		},
	})
	r := vxg.NewRenderer(ctx)
	r.Initialize(g)
	r.Draw()

	bindings := r.Stages()[0].DescriptorLayout().Bindings()
	wantBindings := []struct {
		t     vk.DescriptorType
		count uint32
	}{
		{vk.DescriptorTypeUniformBuffer, 1},
		{vk.DescriptorTypeCombinedImageSampler, 1},
		{vk.DescriptorTypeCombinedImageSampler, 512},
	}
	if len(bindings) != len(wantBindings) {
		t.Fatalf("len(Bindings()) = %d, want %d", len(bindings), len(wantBindings))
	}
	for i, w := range wantBindings {
		if bindings[i].Binding != uint32(i) || bindings[i].DescriptorType != w.t || bindings[i].DescriptorCount != w.count {
			t.Errorf("binding %d = {%d, %d, %d}, want {%d, %d, %d}",
				i, bindings[i].Binding, bindings[i].DescriptorType, bindings[i].DescriptorCount, i, w.t, w.count)
		}
	}

	flags := d.LayoutFlags[r.Stages()[0].DescriptorLayout().Handle()]
	wantFlags := []vk.DescriptorBindingFlags{0, 0, vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit)}
	if len(flags) != len(wantFlags) {
		t.Fatalf("binding flags = %v, want %v", flags, wantFlags)
	}
	for i, w := range wantFlags {
		if flags[i] != w {
			t.Errorf("binding %d flags = %#x, want %#x", i, flags[i], w)
		}
	}

	if len(d.Writes) != 1 {
		t.Fatalf("descriptor updates = %d, want 1", len(d.Writes))
	}
	writes := d.Writes[0]
	if len(writes) != 3 {
		t.Fatalf("writes = %d, want 3", len(writes))
	}
	wantCounts := []uint32{1, 1, 3}
	for i, w := range writes {
		if w.DstBinding != uint32(i) || w.DescriptorCount != wantCounts[i] {
			t.Errorf("write %d = {binding %d, count %d}, want {%d, %d}", i, w.DstBinding, w.DescriptorCount, i, wantCounts[i])
		}
	}
	for i, info := range writes[2].PImageInfo {
		if info.ImageView != array[i].View() {
			t.Errorf("array element %d is not texture %d", i, i)
		}
	}
	r.Cleanup()
	expectReleased(t, d)
}
