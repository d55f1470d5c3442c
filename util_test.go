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
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestGenID(t *testing.T) {
	tests := []struct {
		items []any
		want  string
	}{
		{nil, "[]"},
		{[]any{"a"}, "[a]"},
		{[]any{"a", uint32(0x0A)}, "[a,0x0A]"},
		{[]any{uint32(1), DescriptorTypeStorageBuffer, ShaderStageGraphics}, "[0x01,StorageBuffer,Vertex|Fragment]"},
		{[]any{uint32(2), vk.DescriptorBindingFlags(vk.DescriptorBindingPartiallyBoundBit)}, "[0x02,0x04]"},
	}
	for _, test := range tests {
		if got := genID(test.items...); got != test.want {
			t.Errorf("genID(%v) = %q, want %q", test.items, got, test.want)
		}
	}
}

func TestToHex_UnhandledAborts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("toHex(int64) did not abort")
		}
	}()
	toHex(int64(1))
}

func TestHasBits(t *testing.T) {
	if !hasBits(uint32(0b1011), 0b0011) {
		t.Errorf("hasBits(0b1011, 0b0011) = false, want true")
	}
	if hasBits(uint32(0b1001), 0b0011) {
		t.Errorf("hasBits(0b1001, 0b0011) = true, want false")
	}
	if !ShaderStageGraphics.HasBits(ShaderStageFragment) {
		t.Errorf("ShaderStageGraphics.HasBits(ShaderStageFragment) = false, want true")
	}
	if ShaderStageVertex.HasBits(ShaderStageGraphics) {
		t.Errorf("ShaderStageVertex.HasBits(ShaderStageGraphics) = true, want false")
	}
}

func TestMapRunFuncSorted(t *testing.T) {
	var got []string
	err := mapRunFuncSorted(map[string]int{"c": 3, "a": 1, "b": 2}, func(k string, _ int) error {
		got = append(got, k)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("mapRunFuncSorted() visited %v, want [a b c]", got)
	}
	if err := mapRunFuncSorted(map[string]int{}, func(string, int) error { return nil }); err == nil {
		t.Errorf("mapRunFuncSorted() of an empty map = nil, want error")
	}
}

func TestLoadOp(t *testing.T) {
	tests := []struct {
		clear  bool
		layout ImageLayout
		want   vk.AttachmentLoadOp
	}{
		{false, ImageLayoutUndefined, vk.AttachmentLoadOpDontCare},
		{true, ImageLayoutUndefined, vk.AttachmentLoadOpDontCare},
		{true, ImageLayoutColorAttachmentOptimal, vk.AttachmentLoadOpClear},
		{false, ImageLayoutColorAttachmentOptimal, vk.AttachmentLoadOpLoad},
	}
	for _, test := range tests {
		if got := loadOp(test.clear, test.layout); got != test.want {
			t.Errorf("loadOp(%t, %s) = %s, want %s", test.clear, test.layout, loadOpString(got), loadOpString(test.want))
		}
	}
}

func TestSpecializationBlock_Add(t *testing.T) {
	b := SpecializationBlock{}
	if !b.Empty() {
		t.Errorf("Empty() = false, want true")
	}
	b.add(4, []byte{1, 2, 3, 4})
	b.add(9, []byte{5, 6})
	b.add(1, []byte{7})
	if b.Empty() {
		t.Errorf("Empty() = true, want false")
	}

	want := []struct {
		id     uint32
		offset uint32
		size   uint
	}{
		{4, 0, 4},
		{9, 4, 2},
		{1, 6, 1},
	}
	if len(b.Entries) != len(want) {
		t.Fatalf("len(Entries) = %d, want %d", len(b.Entries), len(want))
	}
	for i, w := range want {
		e := b.Entries[i]
		if e.ConstantID != w.id || e.Offset != w.offset || e.Size != w.size {
			t.Errorf("Entries[%d] = {%d, %d, %d}, want {%d, %d, %d}", i, e.ConstantID, e.Offset, e.Size, w.id, w.offset, w.size)
		}
	}
	if !bytes.Equal(b.Data, []byte{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("Data = %v, want [1 2 3 4 5 6 7]", b.Data)
	}
}

func TestConfigUse(t *testing.T) {
	c := config{}
	user := Config{FrameCount: 3, EnableMipMapping: true, DescriptorPoolBankSize: 16}
	c.use(user)
	if got := c.export(); got != user {
		t.Errorf("export() = %+v, want %+v", got, user)
	}
}
