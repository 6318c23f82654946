package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/manifest"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/report"
)

func (a *app) newReportCmd() *cobra.Command {
	var (
		bf       batchFlags
		jsonPath string
		pdfPath  string
	)
	cmd := &cobra.Command{
		Use:   "report [flags] FILE...",
		Short: "Summarize a batch of DLT files",
		Long: `Decode a batch and summarize it by message type, ECU, application and
file. The summary is printed and can also be saved as JSON or PDF; the PDF
carries a QR code of the input digest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest := ""
			if m, err := manifest.Build(args); err != nil {
				common.Logf("report: manifest: %v", err)
			} else {
				digest = m.Digest
			}
			res, err := a.runBatch(cmd.Context(), args, bf)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			s := report.Build(res, digest)
			if err := report.Print(a.stdout, s); err != nil {
				return err
			}
			if jsonPath != "" {
				if err := report.SaveJSON(s, jsonPath); err != nil {
					return fmt.Errorf("report json: %w", err)
				}
				fmt.Fprintln(a.stdout, "Wrote JSON:", jsonPath)
			}
			if pdfPath != "" {
				if err := report.SavePDF(s, pdfPath); err != nil {
					return fmt.Errorf("report pdf: %w", err)
				}
				fmt.Fprintln(a.stdout, "Wrote PDF:", pdfPath)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&jsonPath, "json", "", "write the summary as JSON")
	fl.StringVar(&pdfPath, "pdf", "", "write the summary as PDF")
	fl.BoolVar(&bf.progress, "progress", false, "print progress to stderr")
	fl.BoolVar(&bf.noCache, "no-cache", false, "bypass the decode cache")
	return cmd
}
