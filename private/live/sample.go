// Copyright 2026 Anapaya Systems
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

package live

const sample = `
# Maximum duration of a single cue write to a live reader. Readers that are
# slower are dropped. (default 5s)
write_timeout = "5s"

# Maximum number of concurrent cue writes per publish. 0 means no limit.
# (default 0)
max_concurrent_sends = 0

# Number of known live channel ids cached in memory. (default 1024)
channel_cache_size = 1024

# Host patterns of the cross-origin websocket clients, e.g. "*.example.com".
# Same-origin clients are always accepted. (default [])
allowed_origins = []
`

const relaySample = `
# Address of the Redis instance used to relay cues between processes
# (host:port). If empty, cues only reach the readers of this process.
# (default "")
address = ""

# Password of the Redis instance. (default "")
password = ""

# Redis database number. (default 0)
db = 0

# Pub/sub channel. (default "newsdesk:live-cues")
channel = "newsdesk:live-cues"
`
