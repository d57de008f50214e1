// Copyright 2021 Anapaya Systems
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

// Package app contains helpers for the main functions of newsdesk binaries.
package app

import (
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

// Cleanup is a collection of functions that are run when a service shuts
// down. The zero value is ready to use.
type Cleanup struct {
	funcs []func() error
}

// Add adds a cleanup function. Functions run in reverse order of addition.
func (c *Cleanup) Add(f func() error) {
	c.funcs = append(c.funcs, f)
}

// Do runs all cleanup functions, even if some fail, and returns the
// collected errors.
func (c *Cleanup) Do() error {
	var errs serrors.List
	for i := len(c.funcs) - 1; i >= 0; i-- {
		if err := c.funcs[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.ToError()
}
