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
	"fmt"

	"goarrg.com/debug"
	"goarrg.com/gmath"
)

const (
	DefaultFrameCount             = 2
	MaxFrameCount                 = 8
	DefaultDescriptorPoolBankSize = 8
)

// Names accepted by SetCVar and GetCVar.
const (
	CVarFrameCount             = "renderer.frameCount"
	CVarEnableMipMapping       = "renderer.enableMipMapping"
	CVarDescriptorPoolBankSize = "renderer.descriptorPoolBankSize"
)

/*
Config is the process wide renderer configuration. It is read once by
Renderer.Initialize, changes made afterwards only affect renderers initialized
later.
*/
type Config struct {
	FrameCount             int32
	EnableMipMapping       bool
	DescriptorPoolBankSize int32
}

func DefaultConfig() Config {
	return Config{
		FrameCount:             DefaultFrameCount,
		DescriptorPoolBankSize: DefaultDescriptorPoolBankSize,
	}
}

func (c *Config) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"FrameCount\": %d,", c.FrameCount))
	buff.WriteString(fmt.Sprintf("\"EnableMipMapping\": %t,", c.EnableMipMapping))
	buff.WriteString(fmt.Sprintf("\"DescriptorPoolBankSize\": %d", c.DescriptorPoolBankSize))

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *Config) validate() {
	if !gmath.InRange(c.FrameCount, 1, MaxFrameCount) {
		abort("Config.FrameCount [%d] is outside of valid range [1, %d]", c.FrameCount, MaxFrameCount)
	}
	if c.DescriptorPoolBankSize <= 0 {
		abort("Config.DescriptorPoolBankSize must be >= 1")
	}
}

type config struct {
	frameCount             int32
	enableMipMapping       bool
	descriptorPoolBankSize int32
}

func (c *config) use(user Config) {
	user.validate()
	c.frameCount = user.FrameCount
	c.enableMipMapping = user.EnableMipMapping
	c.descriptorPoolBankSize = user.DescriptorPoolBankSize
}

func (c *config) export() Config {
	return Config{
		FrameCount:             c.frameCount,
		EnableMipMapping:       c.enableMipMapping,
		DescriptorPoolBankSize: c.descriptorPoolBankSize,
	}
}

func SetConfig(c Config) {
	c.validate()
	instance.configMtx.Lock()
	defer instance.configMtx.Unlock()
	instance.config = c
}

func CurrentConfig() Config {
	instance.configMtx.RLock()
	defer instance.configMtx.RUnlock()
	return instance.config
}

/*
SetCVar sets a single configuration value by name, booleans are stored as 0
or 1. Invalid values are rejected with an error and leave the store unchanged.
*/
func SetCVar(name string, value int32) error {
	instance.configMtx.Lock()
	defer instance.configMtx.Unlock()

	c := instance.config
	switch name {
	case CVarFrameCount:
		if !gmath.InRange(value, 1, MaxFrameCount) {
			return debug.Errorf("%s [%d] is outside of valid range [1, %d]", name, value, MaxFrameCount)
		}
		c.FrameCount = value
	case CVarEnableMipMapping:
		c.EnableMipMapping = value != 0
	case CVarDescriptorPoolBankSize:
		if value <= 0 {
			return debug.Errorf("%s must be >= 1", name)
		}
		c.DescriptorPoolBankSize = value
	default:
		return debug.Errorf("Unknown cvar: %q", name)
	}
	instance.config = c
	return nil
}

func GetCVar(name string) (int32, error) {
	instance.configMtx.RLock()
	defer instance.configMtx.RUnlock()

	switch name {
	case CVarFrameCount:
		return instance.config.FrameCount, nil
	case CVarEnableMipMapping:
		if instance.config.EnableMipMapping {
			return 1, nil
		}
		return 0, nil
	case CVarDescriptorPoolBankSize:
		return instance.config.DescriptorPoolBankSize, nil
	}
	return 0, debug.Errorf("Unknown cvar: %q", name)
}

/*
MipLevels returns the number of mip levels a sampled image of the given extent
should be created with, always 1 when mip mapping is disabled.
*/
func MipLevels(width, height uint32, enableMipMapping bool) uint32 {
	if !enableMipMapping {
		return 1
	}
	levels := uint32(1)
	for m := max(width, height); m > 1; m >>= 1 {
		levels++
	}
	return levels
}
