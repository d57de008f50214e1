// Copyright 2020 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launcher

import (
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/newsdesk/newsdesk/pkg/private/prom"
)

var buildInfoOnce sync.Once

// exportBuildInfo exports a constant gauge carrying the build and instance
// information as labels.
func exportBuildInfo(id string) {
	buildInfoOnce.Do(func() {
		version, revision := "unknown", "unknown"
		if info, ok := debug.ReadBuildInfo(); ok {
			version = info.Main.Version
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					revision = s.Value
				}
			}
		}
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsdesk_build_info",
			Help: "Build and instance information of the running service.",
			ConstLabels: prometheus.Labels{
				"version":  version,
				"revision": revision,
				"id":       id,
			},
		})
		g.Set(1)
		prom.SafeRegister(g)
	})
}
