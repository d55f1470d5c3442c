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

package container

/*
Arena hands out scratch slices from one backing array that is reused after
Reset. A slice returned by Alloc stays valid until the next Reset even if a
later Alloc had to grow the backing array.
*/
type Arena[E any] struct {
	data []E
}

func (a *Arena[E]) Alloc(n int) []E {
	if n <= 0 {
		return nil
	}
	l := len(a.data)
	if l+n > cap(a.data) {
		grown := make([]E, l, max(2*cap(a.data), l+n))
		copy(grown, a.data)
		a.data = grown
	}
	a.data = a.data[:l+n]
	return a.data[l : l+n : l+n]
}

func (a *Arena[E]) Reset() {
	clear(a.data)
	a.data = a.data[:0]
}
