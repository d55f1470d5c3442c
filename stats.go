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
	"slices"
	"time"
)

type statsRecorder struct {
	frames      uint64
	last        time.Duration
	total       time.Duration
	recreations uint64
	stages      []StageStats
}

func (r *statsRecorder) init(n int) {
	*r = statsRecorder{stages: make([]StageStats, n)}
}

func (r *statsRecorder) record(d time.Duration, stages []*Stage) {
	r.frames++
	r.last = d
	r.total += d
	for i, s := range stages {
		r.stages[i] = s.stats
	}
}

// Stats is a snapshot of the renderer's CPU side counters, Stages holds the last recorded frame.
type Stats struct {
	Frames               uint64
	LastFrameCPU         time.Duration
	AverageFrameCPU      time.Duration
	SwapchainRecreations uint64
	Stages               []StageStats
}

func (s *Stats) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString(fmt.Sprintf("{\"Frames\": %d, \"LastFrameCPU\": %q, \"AverageFrameCPU\": %q, \"SwapchainRecreations\": %d, \"Stages\": [",
		s.Frames, s.LastFrameCPU, s.AverageFrameCPU, s.SwapchainRecreations))

	if len(s.Stages) > 0 {
		for _, st := range s.Stages {
			buff.WriteString(fmt.Sprintf("{\"Name\": %q, \"CPUTime\": %q, \"DrawCalls\": %d, \"Dispatches\": %d, \"PushConstants\": %d, \"DescriptorSets\": %d, \"BarriersApplied\": %d},",
				st.Name, st.CPUTime, st.DrawCalls, st.Dispatches, st.PushConstants, st.DescriptorSets, st.BarriersApplied))
		}
		buff.Truncate(buff.Len() - 1)
	}

	buff.WriteString("]}")
	return buff.Bytes(), nil
}

func (r *Renderer) Stats() Stats {
	r.noCopy.Check()
	s := Stats{
		Frames:               r.stats.frames,
		LastFrameCPU:         r.stats.last,
		SwapchainRecreations: r.stats.recreations,
		Stages:               slices.Clone(r.stats.stages),
	}
	if s.Frames > 0 {
		s.AverageFrameCPU = r.stats.total / time.Duration(s.Frames)
	}
	return s
}
