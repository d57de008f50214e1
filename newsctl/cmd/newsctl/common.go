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

package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/newsdesk/newsdesk/newsdesk/config"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	libconfig "github.com/newsdesk/newsdesk/private/config"
)

// Output formats.
const (
	formatHuman = "human"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// addConfigFlags registers the flags shared by the commands that read the
// newsdesk configuration.
func addConfigFlags(flags *pflag.FlagSet, config, format *string) {
	flags.StringVar(config, "config", "", "newsdesk configuration file (required)")
	flags.StringVar(format, "format", formatHuman, "output format (human|json|yaml)")
}

// loadConfig reads the newsdesk configuration file.
func loadConfig(file string) (*config.Config, error) {
	if file == "" {
		return nil, serrors.New("no configuration file specified")
	}
	var cfg config.Config
	if err := libconfig.LoadFile(file, &cfg); err != nil {
		return nil, serrors.Wrap("loading config from file", err, "file", file)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, serrors.Wrap("validating config", err, "file", file)
	}
	return &cfg, nil
}

func checkFormat(format string) error {
	switch format {
	case formatHuman, formatJSON, formatYAML:
		return nil
	default:
		return serrors.New("format not supported", "format", format)
	}
}

// isTerminal returns whether w writes to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// writeStructured writes v in the machine readable format.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		raw, err := yaml.Marshal(v)
		if err != nil {
			return serrors.Wrap("encoding yaml", err)
		}
		_, err = w.Write(raw)
		return err
	default:
		return serrors.New("format not supported", "format", format)
	}
}

// writeTable renders rows as a borderless, left aligned table.
func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}
