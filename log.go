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
	"sync"

	"goarrg.com"
	"goarrg.com/debug"

	"goarrg.com/rhi/vxg/internal/util"
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

type state struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger

	configMtx sync.RWMutex
	config    Config
}

var instance = state{
	platform: platform{},
	logger:   debug.NewLogger("vxg"),
	config:   DefaultConfig(),
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

/*
InitPlatform replaces the platform used to report fatal errors, the default
platform panics with "Fatal Error" after the message is logged.
*/
func InitPlatform(platform goarrg.PlatformInterface) {
	instance.platform = platform
	util.Init(platform)
}

func SetLogLevel(l uint32) {
	instance.logger.SetLevel(l)
}
