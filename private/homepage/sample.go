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

package homepage

// The slots are written as an array of tables. Slots are filled in the order
// they appear; an article is shown in the first slot that matches it.
const sample = `
# Slots in priority order. Each slot takes up to limit published articles
# that match all of its filter fields and that no earlier slot took. If no
# slot is configured, a default layout is used.
[[%s]]
# Name of the slot. (required)
name = "lead"
# Maximum number of articles. (required)
limit = 1
# Sort order, newest or oldest. (default newest)
order = "newest"

[[%s]]
name = "breaking"
# Category filter. (default all categories)
category = "breaking"
limit = 5

[[%s]]
name = "election"
category = "politics"
# Subcategory filter. (default all subcategories)
subcategory = "national"
# Type filter, e.g. news, opinion or video. (default all types)
type = "news"
# Articles must carry all tags. (default none)
tags = ["election"]
limit = 4
order = "oldest"
`
