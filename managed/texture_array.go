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

package managed

import (
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/internal/container"
	"goarrg.com/rhi/vxg/internal/util"
)

/*
TextureArray manages inserting and removing textures from a SamplerArray
resource. Indices are stable for as long as a texture stays in the array,
holes left by removed textures are filled with the fallback texture so the
bound range never contains a stale image. Layout changes of the textures are
the user's responsibility.
*/
type TextureArray struct {
	noCopy    util.NoCopy
	capacity  int
	fallback  vxg.Texture
	textures  []vxg.Texture
	freeStack container.Stack[int]
	indices   map[vxg.Texture]int
}

var _ vxg.TextureList = (*TextureArray)(nil)

func NewTextureArray(capacity uint32, fallback vxg.Texture) *TextureArray {
	if capacity == 0 {
		abort("TextureArray capacity must be >= 1")
	}
	if fallback == nil {
		abort("TextureArray requires a fallback texture")
	}
	ret := TextureArray{
		capacity: int(capacity),
		fallback: fallback,
		indices:  map[vxg.Texture]int{},
	}
	ret.noCopy.Init()
	return &ret
}

func (a *TextureArray) Capacity() uint32 {
	a.noCopy.Check()
	return uint32(a.capacity)
}

// Len is the number of textures currently in the array, not counting holes.
func (a *TextureArray) Len() int {
	a.noCopy.Check()
	return len(a.indices)
}

// Textures returns the bound range, the highest index ever handed out plus one.
func (a *TextureArray) Textures() []vxg.Texture {
	a.noCopy.Check()
	return a.textures
}

// Index returns the index of t and whether it is in the array.
func (a *TextureArray) Index(t vxg.Texture) (int, bool) {
	a.noCopy.Check()
	i, ok := a.indices[t]
	return i, ok
}

/*
Push inserts t and returns its index, pushing a texture that is already in
the array returns its existing index. Pushing into a full array is fatal.
*/
func (a *TextureArray) Push(t vxg.Texture) int {
	a.noCopy.Check()
	if t == nil {
		abort("Trying to push a nil texture")
	}
	if i, found := a.indices[t]; found {
		return i
	}

	var i int
	if a.freeStack.Empty() {
		if len(a.textures) >= a.capacity {
			abort("Trying to push texture into a full array of capacity %d", a.capacity)
		}
		i = len(a.textures)
		a.textures = append(a.textures, t)
	} else {
		i = a.freeStack.Pop()
		a.textures[i] = t
	}
	a.indices[t] = i
	return i
}

/*
Pop removes target from the array. The slot shows the fallback texture from
the next descriptor update on, but the index only becomes available for reuse
the next time f is begun, after the GPU is done with anything recorded into f.
*/
func (a *TextureArray) Pop(f *vxg.Frame, target vxg.Texture) {
	a.noCopy.Check()
	i, found := a.indices[target]
	if !found {
		return
	}
	delete(a.indices, target)
	a.textures[i] = a.fallback
	f.QueueDestroy(release(func() {
		a.freeStack.Push(i)
	}))
}
