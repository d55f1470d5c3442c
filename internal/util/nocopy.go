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

package util

import "goarrg.com/debug"

/*
NoCopy guards the exported object types of the subpackages, it is the same
guard the renderer embeds in its own objects. A zero NoCopy is dead.
*/
type NoCopy struct {
	self *NoCopy
}

func (n *NoCopy) Init() {
	if n.self != nil {
		abort("NoCopy initialized twice")
	}
	n.self = n
}

// Alive reports whether the guard was initialized and not yet closed, without aborting.
func (n *NoCopy) Alive() bool {
	return n.self == n
}

func (n *NoCopy) Check() {
	if !n.Alive() {
		abort("Use of a copied, zero or destroyed object: \n%s", debug.StackTrace(0))
	}
}

func (n *NoCopy) Close() {
	n.Check()
	n.self = nil
}

func (*NoCopy) Lock()   {}
func (*NoCopy) Unlock() {}
