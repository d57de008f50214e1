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

package storage

const sample = `
# The connection string of the sqlite database.
connection = "%s"

# Maximum number of open read connections. Writes use a single connection.
# (default max(4, number of CPUs))
max_open_read_conns = 0

# Maximum number of idle read connections. (default Go database/sql default)
max_idle_read_conns = 0

# Number of records read per query by iterating stores, e.g. the push
# subscription iteration. (default 500)
page_size = 0
`
