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
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/homepage"
	"github.com/newsdesk/newsdesk/private/storage"
)

type slotOutput struct {
	Name     string          `json:"name" yaml:"name"`
	Limit    int             `json:"limit" yaml:"limit"`
	Articles []articleOutput `json:"articles" yaml:"articles"`
}

type articleOutput struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Category  string    `json:"category" yaml:"category"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func newHomepage(pather CommandPather) *cobra.Command {
	var flags struct {
		config string
		format string
	}
	cmd := &cobra.Command{
		Use:   "homepage",
		Short: "Show the current homepage slot allocation",
		Args:  cobra.NoArgs,
		Example: fmt.Sprintf(`  %[1]s homepage --config newsdesk.toml
  %[1]s homepage --config newsdesk.toml --format json`, pather.CommandPath()),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
			}
			cmd.SilenceUsage = true
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			slots, err := cfg.Homepage.Layout()
			if err != nil {
				return serrors.Wrap("loading homepage layout", err)
			}
			db, err := storage.NewArticleStorage(cfg.ArticleDB)
			if err != nil {
				return serrors.Wrap("opening article storage", err)
			}
			defer db.Close()
			layout, err := homepage.Allocator{Store: db}.Allocate(cmd.Context(), slots)
			if err != nil {
				return serrors.Wrap("allocating homepage", err)
			}

			out := make([]slotOutput, 0, len(layout))
			for _, res := range layout {
				s := slotOutput{
					Name:     res.Slot.Name,
					Limit:    res.Slot.Limit,
					Articles: make([]articleOutput, 0, len(res.Articles)),
				}
				for _, a := range res.Articles {
					s.Articles = append(s.Articles, articleOutput{
						ID:        a.ID,
						Title:     a.Title,
						Category:  string(a.Category),
						CreatedAt: a.CreatedAt.UTC(),
					})
				}
				out = append(out, s)
			}
			if flags.format != formatHuman {
				return writeStructured(cmd.OutOrStdout(), flags.format, out)
			}
			var rows [][]string
			for _, s := range out {
				if len(s.Articles) == 0 {
					rows = append(rows, []string{s.Name, "-", "", "", ""})
				}
				for i, a := range s.Articles {
					rows = append(rows, []string{s.Name, strconv.Itoa(i + 1), a.ID, a.Title,
						a.CreatedAt.Format(time.RFC3339)})
				}
			}
			writeTable(cmd.OutOrStdout(), []string{"SLOT", "#", "ID", "TITLE", "CREATED"}, rows)
			return nil
		},
	}
	addConfigFlags(cmd.Flags(), &flags.config, &flags.format)
	return cmd
}
