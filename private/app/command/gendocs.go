// Copyright 2023 Anapaya Systems

package command

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// NewGendocs returns a hidden command that writes one markdown page per
// command of the tree into a directory. Pages link to their parent and
// subcommands by file name.
func NewGendocs(pather Pather) *cobra.Command {
	return &cobra.Command{
		Use:     "gendocs <directory>",
		Short:   "Generate the command reference",
		Example: fmt.Sprintf("  %s gendocs docs/command", pather.CommandPath()),
		Args:    cobra.ExactArgs(1),
		Hidden:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			root.DisableAutoGenTag = true
			if err := os.MkdirAll(args[0], 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			if err := writePages(root, args[0]); err != nil {
				return fmt.Errorf("generating documentation: %w", err)
			}
			return nil
		},
	}
}

func writePages(cmd *cobra.Command, dir string) error {
	for _, c := range cmd.Commands() {
		if !c.IsAvailableCommand() || c.IsAdditionalHelpTopicCommand() {
			continue
		}
		if err := writePages(c, dir); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := doc.GenMarkdownCustom(cmd, &buf, func(s string) string { return s }); err != nil {
		return err
	}
	// cobra starts pages at heading level two. Lift all headings by one so
	// the command path is the page title.
	raw := strings.ReplaceAll(buf.String(), "\n### ", "\n## ")
	raw = strings.Replace(raw, "## "+cmd.CommandPath(), "# "+cmd.CommandPath(), 1)
	return os.WriteFile(filepath.Join(dir, pageName(cmd)), []byte(raw), 0644)
}

func pageName(cmd *cobra.Command) string {
	return strings.ReplaceAll(cmd.CommandPath(), " ", "_") + ".md"
}
