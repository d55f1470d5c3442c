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

/*
Package vkctx is a glfw backed vxg.DeviceContext: it owns the Vulkan instance,
device, queue and swapchain and creates the textures, buffers, meshes and
shaders a render graph is declared with.
*/
package vkctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	vk "github.com/vulkan-go/vulkan"
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
	logger:   debug.NewLogger("vxg", "vkctx"),
}

func InitPlatform(platform goarrg.PlatformInterface) {
	instance.platform = platform
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

var (
	validationLayers = []string{"VK_LAYER_KHRONOS_validation\x00"}
	deviceExtensions = []string{
		vk.KhrSwapchainExtensionName + "\x00",
		vk.ExtDescriptorIndexingExtensionName + "\x00",
	}
)

type Config struct {
	AppName          string
	EnableValidation bool
	// VSync selects FIFO presentation, otherwise mailbox is used when available.
	VSync bool
}

func (c *Config) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"AppName\": %q,", c.AppName))
	buff.WriteString(fmt.Sprintf("\"EnableValidation\": %t,", c.EnableValidation))
	buff.WriteString(fmt.Sprintf("\"VSync\": %t", c.VSync))
	buff.WriteString("}")
	return buff.Bytes(), nil
}

func vkError(ret vk.Result, format string, args ...any) error {
	return debug.ErrorWrapf(vk.Error(ret), format, args...)
}

func mustJSON(target json.Marshaler) string {
	bytes, err := json.Marshal(target)
	if err != nil {
		abort("%s", err)
	}
	return strings.TrimSpace(string(bytes))
}
