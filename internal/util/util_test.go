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
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func expectAbort(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("expected abort")
		}
	}()
	fn()
}

func TestBytes(t *testing.T) {
	if got := Bytes(uint32(0x01020304)); !bytes.Equal(got, binary.NativeEndian.AppendUint32(nil, 0x01020304)) {
		t.Errorf("Bytes(uint32) = %v", got)
	}
	if got := Bytes(float32(1.5)); !bytes.Equal(got, binary.NativeEndian.AppendUint32(nil, math.Float32bits(1.5))) {
		t.Errorf("Bytes(float32) = %v", got)
	}
	m := [4]float32{1, 2, 3, 4}
	if got := Bytes(m); len(got) != 16 {
		t.Errorf("len(Bytes([4]float32)) = %d, want 16", len(got))
	}
}

func TestBytesSlice(t *testing.T) {
	if got := BytesSlice([]uint16(nil)); got != nil {
		t.Errorf("BytesSlice(nil) = %v, want nil", got)
	}
	data := []uint16{1, 2, 3}
	got := BytesSlice(data)
	want := []byte{}
	for _, v := range data {
		want = binary.NativeEndian.AppendUint16(want, v)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("BytesSlice() = %v, want %v", got, want)
	}
	got[0] = 0xFF
	if data[0] != 1 {
		t.Errorf("BytesSlice() aliases its input")
	}
}

func TestWrite(t *testing.T) {
	dst := make([]byte, 8)
	n := Write(dst, 0, uint32(7))
	n += Write(dst, n, uint16(9))
	if n != 6 {
		t.Errorf("Write() = %d bytes, want 6", n)
	}
	if got := binary.NativeEndian.Uint32(dst); got != 7 {
		t.Errorf("first value = %d, want 7", got)
	}
	if got := binary.NativeEndian.Uint16(dst[4:]); got != 9 {
		t.Errorf("second value = %d, want 9", got)
	}
	expectAbort(t, func() { Write(dst, 6, uint32(1)) })
}

func TestNoCopy(t *testing.T) {
	n := &NoCopy{}
	if n.Alive() {
		t.Errorf("Alive() of a zero NoCopy = true, want false")
	}
	expectAbort(t, n.Check)
	n.Init()
	n.Check()
	expectAbort(t, n.Init)

	copied := *n
	expectAbort(t, copied.Check)

	n.Close()
	if n.Alive() {
		t.Errorf("Alive() after Close() = true, want false")
	}
	expectAbort(t, n.Close)
}
