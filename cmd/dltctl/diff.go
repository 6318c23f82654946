package main

import (
	"github.com/spf13/cobra"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/batch"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/diff"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/export"
)

func (a *app) newDiffCmd() *cobra.Command {
	var (
		context   int
		colorMode string
	)
	cmd := &cobra.Command{
		Use:   "diff [flags] A B",
		Short: "Compare the decoded messages of two DLT files",
		Long: `Compare two DLT files message by message. ECU, application, context,
type and payload are compared; index and timestamp are ignored. The exit
status is 1 when the files differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left := batch.ParseFile(args[0], 0, a.opts)
			right := batch.ParseFile(args[1], 0, a.opts)
			r := diff.Compare(left, right)
			if colorMode == "" {
				colorMode = a.cfg.Output.Color
			}
			if err := diff.Write(a.stdout, r, context, export.ColorEnabled(colorMode, a.stdout)); err != nil {
				return err
			}
			if !r.Equal() {
				return errDifferent
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&context, "context", "C", 3, "unchanged lines shown around each change")
	cmd.Flags().StringVar(&colorMode, "color", "", "color mode: auto, always or never (default from config)")
	return cmd
}
