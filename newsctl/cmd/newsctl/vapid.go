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

	"github.com/spf13/cobra"

	"github.com/newsdesk/newsdesk/private/push"
)

func newVAPID(pather CommandPather) *cobra.Command {
	var flags struct {
		out string
	}
	cmd := &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair for push notifications",
		Long: `'vapid' generates the application server key pair used to sign push
requests. Without --out, the keys are printed in the format of the [push]
block of the newsdesk configuration. With --out, they are written to the
given directory, which newsdesk reads if general.config_dir points to it.`,
		Example: fmt.Sprintf(`  %[1]s vapid
  %[1]s vapid --out /etc/newsdesk`, pather.CommandPath()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			if flags.out != "" {
				if err := push.WriteVAPIDKeys(flags.out, keys); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote VAPID keys to %s\n", flags.out)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vapid_public_key = %q\nvapid_private_key = %q\n",
				keys.Public, keys.Private)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.out, "out", "", "directory to write the key files to")
	return cmd
}
