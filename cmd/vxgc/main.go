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
	"strings"
	"unicode"

	"goarrg.com/debug"
	"goarrg.com/rhi/vxg"

	"golang.org/x/tools/go/packages"
)

var flags flag.FlagSet

type generator uint32

const (
	generatorJSON generator = iota
	generatorGO
)

func (g *generator) UnmarshalText(data []byte) error {
	switch string(data) {
	case "json":
		*g = generatorJSON
	case "go":
		*g = generatorGO
	default:
		return debug.Errorf("Invalid value: %q", data)
	}
	return nil
}

func (g generator) MarshalText() (text []byte, err error) {
	switch g {
	case generatorJSON:
		return ([]byte)("json"), nil
	case generatorGO:
		return ([]byte)("go"), nil
	default:
		return nil, debug.Errorf("Invalid value: %d", g)
	}
}

func main() {
	debug.SetLevel(debug.LogLevelWarn)

	flags.Usage = help
	flags.Init("", flag.ExitOnError)

	v := flags.Bool("v", false, "Verbose - Print high level tasks")
	vv := flags.Bool("vv", false, "Very Verbose - Print everything")

	outDir := flags.String("out-dir", ".", "Sets the output directory.")

	format := dataType{vxg.DataTypeBGRA8}
	flags.TextVar(&format, "swapchain-format", dataType{vxg.DataTypeBGRA8}, "Sets the format assumed for swapchain attachments.\n"+
		"Valid values are \"BGRA8\" and \"RGBA8\".")

	g := generator(0)
	flags.TextVar(&g, "generator", generatorJSON, "Sets the generator to use when outputting render passes.\n"+
		"Valid values are \"json\" and \"go\".")

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

	args := flags.Args()
	if len(args) == 0 {
		debug.EPrintf("No input file provided.")
		help()
		os.Exit(2)
	} else if len(args) > 1 {
		debug.EPrintf("vxgc can only process one graph at a time.")
		help()
		os.Exit(2)
	}

	name := args[0]
	debug.IPrintf("Reading graph: %q", name)
	data, err := os.ReadFile(name)
	if err != nil {
		panic(err)
	}
	file, err := parseGraph(data)
	if err != nil {
		panic(err)
	}

	graph := buildGraph(file)
	defer graph.Cleanup()
	debug.IPrintf("Deriving render passes of %d stages", graph.Len())
	stages, err := deriveStages(graph, format.Format())
	if err != nil {
		panic(err)
	}

	outName := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	err = os.MkdirAll(*outDir, 0o755)
	if err != nil {
		panic(err)
	}

	switch g {
	case generatorJSON:
		genJson(*outDir, outName, stages)
	case generatorGO:
		genGo(*outDir, outName, stages)
	}
}

func help() {
	fmt.Fprintf(os.Stderr, "vxgc validates a render graph description and generates the render passes vxg derives for it offline.\n"+
		"\nThe graph is a json file of the form:\n"+
		"\t{\"Stages\": [{\"Name\": ..., \"Type\": \"ForwardGraphics\", \"Parent\": 0, \"Attachments\": [\n"+
		"\t\t{\"Name\": ..., \"Kind\": \"Color\", \"Format\": \"RGBA8\", \"Clear\": true,\n"+
		"\t\t \"OldLayout\": \"Undefined\", \"NewLayout\": \"ShaderReadOnlyOptimal\"}]}]}\n"+
		"\nStages without a Parent are added to the root. Compute stages have no render pass.\n"+
		"\n")
	args := ""
	flags.VisitAll(func(f *flag.Flag) {
		n, u := flag.UnquoteUsage(f)
		if f.DefValue != "" {
			u += "\n\nDefaults to \"" + f.DefValue + "\"."
		}
		args += "\t-" + f.Name + " " + n + "\n\t\t" + strings.ReplaceAll(strings.TrimSpace(u), "\n", "\n\t\t") + "\n"
	})
	fmt.Fprintf(os.Stderr, "Usage:\n\t%s [arguments] <file>\n\nArguments:\n%s", filepath.Base(os.Args[0]), args)
}

func genJson(dir, name string, stages []derivedStage) {
	j, err := json.MarshalIndent(stages, "", "\t")
	if err != nil {
		panic(err)
	}

	jsonFile := filepath.Join(dir, name+".renderpass.json")
	debug.IPrintf("Writing render passes to: %q", jsonFile)
	err = os.WriteFile(jsonFile, j, 0o655)
	if err != nil {
		panic(err)
	}
}

func genGo(dir, name string, stages []derivedStage) {
	filename := filepath.Join(dir, "zvxgc_"+name+".go")
	debug.IPrintf("Writing render passes to: %q", filename)
	fOut, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer fOut.Close()

	{
		args := ""
		for _, arg := range os.Args[1:] {
			args += arg + " "
		}
		fmt.Fprintf(fOut, "// go run goarrg.com/rhi/vxg/cmd/vxgc %s\n", args)
		fmt.Fprintf(fOut, "// Code generated by the command above; DO NOT EDIT.\n\n")
	}

	{
		p, err := packages.Load(&packages.Config{Mode: packages.NeedName}, dir)
		if err != nil {
			panic(debug.ErrorWrapf(err, "Failed to load package at %q", dir))
		}
		if len(p) == 0 {
			fmt.Fprintf(fOut, "package %s\n\n", filepath.Base(dir))
		} else if p[0].Name != "" {
			fmt.Fprintf(fOut, "package %s\n\n", filepath.Base(p[0].Name))
		} else {
			fmt.Fprintf(fOut, "package %s\n\n", filepath.Base(p[0].PkgPath))
		}
	}

	{
		sb := strings.Builder{}
		sb.Grow(len(name))
		for _, r := range name {
			if unicode.IsDigit(r) || unicode.IsLetter(r) {
				sb.WriteRune(r)
			}
			if r == '/' || r == '.' || r == '-' {
				sb.WriteRune('_')
			}
		}

		fmt.Fprintf(fOut, "// vxgcRenderPasses_%s returns the json of every stage of the graph keyed by stage name.\n", sb.String())
		fmt.Fprintf(fOut, "func vxgcRenderPasses_%s() map[string]string {\n", sb.String())
		fmt.Fprintf(fOut, "\treturn map[string]string{\n")
		for _, s := range stages {
			j, err := json.Marshal(s)
			if err != nil {
				panic(err)
			}
			fmt.Fprintf(fOut, "\t\t%q: %q,\n", s.Name, j)
		}
		fmt.Fprintf(fOut, "\t}\n")
		fmt.Fprintf(fOut, "}\n")
	}
}
