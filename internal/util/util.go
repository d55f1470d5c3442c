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

import (
	"unsafe"

	"goarrg.com"
	"goarrg.com/debug"
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

var instance = struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger
}{
	platform: platform{},
	logger:   debug.NewLogger("vxg", "internal", "util"),
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

func Init(platform goarrg.PlatformInterface) {
	instance.platform = platform
}

/*
Bytes returns a copy of the in memory representation of data, it is meant for
plain values like matrices or scalars that get handed to the device as push or
specialization constants.
*/
func Bytes[T comparable](data T) []byte {
	return append([]byte(nil),
		unsafe.Slice((*byte)(unsafe.Pointer(&data)), unsafe.Sizeof(data))...,
	)
}

func BytesSlice[T comparable](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return append([]byte(nil),
		unsafe.Slice(
			(*byte)(unsafe.Pointer(unsafe.SliceData(data))), uint64(unsafe.Sizeof(data[0]))*uint64(len(data)),
		)...,
	)
}

// Write copies data into dst starting at offset and returns the number of bytes written.
func Write[T comparable](dst []byte, offset uintptr, data T) uintptr {
	size := unsafe.Sizeof(data)
	if uint64(offset)+uint64(size) > uint64(len(dst)) {
		abort("Write(%d, size: %d) will overflow buffer of size %d", offset, size, len(dst))
	}
	copy(dst[offset:], unsafe.Slice((*byte)(unsafe.Pointer(&data)), size))
	return size
}
