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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	"github.com/xlab/closer"
	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"
	"goarrg.com/rhi/vxg/managed"
	"goarrg.com/rhi/vxg/shapes"
	"goarrg.com/rhi/vxg/vkctx"
)

var flags flag.FlagSet

// platform turns fatal engine errors into an orderly exit that still runs the closer hooks.
type platform struct{}

func (platform) Abort() {
	closer.Exit(1)
}

func (platform) AbortPopup(f string, args ...any) {
	debug.EPrintf(f, args...)
	closer.Exit(1)
}

func init() {
	runtime.LockOSThread()
}

type options struct {
	shaderDir  string
	texture    string
	frameCount int
	frames     int
	mipmaps    bool
	vsync      bool
	validation bool
}

func main() {
	debug.SetLevel(debug.LogLevelWarn)

	flags.Usage = help
	flags.Init("", flag.ExitOnError)

	v := flags.Bool("v", false, "Verbose - Print high level tasks")
	vv := flags.Bool("vv", false, "Very Verbose - Print everything")

	opts := options{}
	flags.StringVar(&opts.shaderDir, "shader-dir", "shaders", "Sets the directory holding forward.vert.spv, forward.frag.spv, blit.vert.spv and blit.frag.spv.")
	flags.StringVar(&opts.texture, "texture", "", "Sets an optional png or jpeg image to texture the cube with.")
	flags.IntVar(&opts.frameCount, "frames-in-flight", vxg.DefaultFrameCount, "Sets the number of frames in flight.")
	flags.IntVar(&opts.frames, "frames", 0, "Exits after drawing this many frames, 0 runs until the window is closed.")
	flags.BoolVar(&opts.mipmaps, "mipmaps", false, "Generates mip maps for loaded textures.")
	flags.BoolVar(&opts.vsync, "vsync", true, "Presents in FIFO mode.")
	flags.BoolVar(&opts.validation, "validation", false, "Enables the Khronos validation layer.")

	err := flags.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	if *v {
		debug.SetLevel(debug.LogLevelInfo)
		vxg.SetLogLevel(uint32(debug.LogLevelInfo))
	} else if *vv {
		debug.SetLevel(debug.LogLevelVerbose)
		vxg.SetLogLevel(uint32(debug.LogLevelVerbose))
	}

	vxg.InitPlatform(platform{})
	vkctx.InitPlatform(platform{})
	managed.Init(platform{})
	shapes.Init(platform{})

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	closer.Bind(glfw.Terminate)

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "vxgview", nil, nil)
	if err != nil {
		panic(err)
	}
	closer.Bind(window.Destroy)

	ctx, err := vkctx.New(window, vkctx.Config{
		AppName:          "vxgview",
		EnableValidation: opts.validation,
		VSync:            opts.vsync,
	})
	if err != nil {
		panic(err)
	}
	closer.Bind(ctx.Destroy)

	cfg := vxg.DefaultConfig()
	cfg.FrameCount = int32(opts.frameCount)
	cfg.EnableMipMapping = opts.mipmaps
	vxg.SetConfig(cfg)

	s, err := newScene(ctx, opts)
	if err != nil {
		panic(err)
	}
	closer.Bind(s.destroy)

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width int, height int) {
		s.renderer.Resize()
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	run(window, s, opts.frames)
	closer.Close()
}

func run(window *glfw.Window, s *scene, frames int) {
	start := time.Now()
	lastReport := start
	for n := 0; !window.ShouldClose() && (frames == 0 || n < frames); n++ {
		glfw.PollEvents()
		if err := s.update(float32(time.Since(start).Seconds())); err != nil {
			panic(err)
		}
		s.renderer.Draw()

		if time.Since(lastReport) >= time.Second {
			stats := s.renderer.Stats()
			j, err := json.Marshal(&stats)
			if err != nil {
				panic(err)
			}
			debug.IPrintf("Stats: %s", j)
			lastReport = time.Now()
		}
	}
}

func help() {
	fmt.Fprintf(os.Stderr, "vxgview renders a textured cube through a forward stage into an offscreen target\n"+
		"and blits it to the window every frame.\n"+
		"\nShaders must be compiled to SPIR-V ahead of time.\n"+
		"\n")
	args := ""
	flags.VisitAll(func(f *flag.Flag) {
		n, u := flag.UnquoteUsage(f)
		if f.DefValue != "" {
			u += "\n\nDefaults to \"" + f.DefValue + "\"."
		}
		args += "\t-" + f.Name + " " + n + "\n\t\t" + strings.ReplaceAll(strings.TrimSpace(u), "\n", "\n\t\t") + "\n"
	})
	fmt.Fprintf(os.Stderr, "Usage:\n\t%s [arguments]\n\nArguments:\n%s", filepath.Base(os.Args[0]), args)
}
