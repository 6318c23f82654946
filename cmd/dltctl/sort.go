package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/batch"
)

func (a *app) newSortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort FILE...",
		Short: "Print files in the order a batch decodes them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range batch.SortFilesByIndex(args) {
				if _, err := fmt.Fprintln(a.stdout, p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
