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

package push

const sample = `
# VAPID key pair of the application server, base64url encoded. Generate one
# with "newsctl vapid". If no keys are set, push delivery is disabled.
# (default "")
vapid_public_key = ""
vapid_private_key = ""

# Contact of the operator, a mailto: or https: URL. Required if keys are
# set. (default "")
subject = "mailto:desk@news.example.com"

# How long push services keep undelivered messages. (default 12h)
ttl = "12h"

# Message urgency: very-low, low, normal or high. (default "high")
urgency = "high"

# Maximum duration of a single delivery attempt. (default 10s)
delivery_timeout = "10s"

# Maximum number of deliveries in flight per published article. (default 64)
max_concurrent_deliveries = 64

# Public URL of the site, notifications link to articles below it.
# (default "https://news.example.com")
base_url = "https://news.example.com"
`
