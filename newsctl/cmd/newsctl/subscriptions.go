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
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/storage/push/sqlite"
)

type subscriptionOutput struct {
	Endpoint   string     `json:"endpoint" yaml:"endpoint"`
	Categories []string   `json:"categories" yaml:"categories"`
	Expires    *time.Time `json:"expires,omitempty" yaml:"expires,omitempty"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
}

func newSubscriptions(pather CommandPather) *cobra.Command {
	var flags struct {
		config   string
		category string
		format   string
		noColor  bool
	}
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "List the push subscriptions",
		Args:    cobra.NoArgs,
		Example: fmt.Sprintf(`  %[1]s subscriptions --config newsdesk.toml
  %[1]s subscriptions --config newsdesk.toml --category sports`, pather.CommandPath()),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
			}
			category := news.None[news.Category]()
			if flags.category != "" {
				c, err := news.ParseKnownCategory(flags.category)
				if err != nil {
					return err
				}
				category = news.Some(c)
			}
			cmd.SilenceUsage = true
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			// The store is opened without the expiry cleaner; listing must
			// not modify the subscriptions.
			db, err := sqlite.New(cfg.PushDB.Connection, nil, cfg.PushDB.PageSize)
			if err != nil {
				return serrors.Wrap("opening push storage", err)
			}
			defer db.Close()

			var out []subscriptionOutput
			for s, err := range db.Subscriptions(cmd.Context(), category) {
				if err != nil {
					return serrors.Wrap("listing subscriptions", err)
				}
				categories := make([]string, 0, len(s.Categories))
				for _, c := range s.Categories.Slice() {
					categories = append(categories, string(c))
				}
				out = append(out, subscriptionOutput{
					Endpoint:   s.Endpoint,
					Categories: categories,
					Expires:    s.ExpirationTime.Ptr(),
					CreatedAt:  s.CreatedAt.UTC(),
				})
			}
			if flags.format != formatHuman {
				if out == nil {
					out = []subscriptionOutput{}
				}
				return writeStructured(cmd.OutOrStdout(), flags.format, out)
			}
			valid, expired := color.New(), color.New()
			if !flags.noColor && isTerminal(cmd.OutOrStdout()) {
				valid = color.New(color.FgGreen)
				expired = color.New(color.FgRed)
				valid.EnableColor()
				expired.EnableColor()
			}
			now := time.Now()
			rows := make([][]string, 0, len(out))
			for _, s := range out {
				expires := "-"
				if s.Expires != nil {
					c := valid
					if !s.Expires.After(now) {
						c = expired
					}
					expires = c.Sprint(s.Expires.UTC().Format(time.RFC3339))
				}
				rows = append(rows, []string{s.Endpoint, strings.Join(s.Categories, ","),
					expires, s.CreatedAt.Format(time.RFC3339)})
			}
			writeTable(cmd.OutOrStdout(),
				[]string{"ENDPOINT", "CATEGORIES", "EXPIRES", "CREATED"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d subscription(s)\n", len(out))
			return nil
		},
	}
	addConfigFlags(cmd.Flags(), &flags.config, &flags.format)
	cmd.Flags().StringVar(&flags.category, "category", "",
		"only list subscriptions of this category")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	return cmd
}
