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

// Package command contains cobra subcommands shared by the newsdesk binaries.
package command

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/newsdesk/newsdesk/private/config"
)

// Pather returns the path to a command.
type Pather interface {
	CommandPath() string
}

// StringPather is a Pather with a fixed path.
type StringPather string

// CommandPath returns the path.
func (s StringPather) CommandPath() string {
	return string(s)
}

// NewSample returns the "sample" command group. Its "config" subcommand prints
// the commented sample of cfg, with id used as service identifier.
func NewSample(pather Pather, cfg config.Sampler, id string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display sample files",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "config",
		Short:   "Display a sample configuration file",
		Example: fmt.Sprintf("  %s sample config > newsdesk.toml", pather.CommandPath()),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Sample(cmd.OutOrStdout(), nil, config.CtxMap{config.ID: id})
			return nil
		},
	})
	return cmd
}

// NewVersion returns the "version" command.
func NewVersion(pather Pather) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), VersionInfo())
		},
	}
}

// VersionInfo returns a human readable description of the build.
func VersionInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	version := info.Main.Version
	var revision, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	return fmt.Sprintf("Version:  %s\nRevision: %s\nModified: %s\nGo:       %s",
		version, revision, modified, info.GoVersion)
}
