package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/manifest"
)

func (a *app) newManifestCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "manifest [flags] FILE...",
		Short: "Write a manifest of input files with their SHA-256",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Build(args)
			if err != nil {
				return fmt.Errorf("manifest build: %w", err)
			}
			if err := manifest.Save(m, out); err != nil {
				return fmt.Errorf("manifest save: %w", err)
			}
			fmt.Fprintln(a.stdout, "Wrote", out)
			fmt.Fprintln(a.stdout, "Digest:", m.Digest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "manifest.json", "output json")
	return cmd
}
