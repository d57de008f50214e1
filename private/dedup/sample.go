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

package dedup

const sample = `
# The dedup backend, memory or redis. If not set, redis is used when an
# address is configured and memory otherwise. (default memory)
backend = "memory"

# Interval at which the memory backend drops expired entries. (default 1m)
cleanup_interval = "1m"

# Repeated views of an article by the same reader within this window are
# counted once. (default 30m)
view_window = "30m"

# A re-published article does not trigger push notifications again within
# this window. (default 1h)
push_window = "1h"
`

const redisSample = `
# Address of the shared Redis instance (host:port). (default "")
address = ""

# Password of the Redis instance. (default "")
password = ""

# Redis database number. (default 0)
db = 0

# Maximum duration of a single lookup. Slower lookups fail open, i.e. the key
# is treated as not recently seen. (default 50ms)
lookup_timeout = "50ms"
`
