package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/export"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/filter"
)

type decodeFlags struct {
	batchFlags
	format   string
	color    string
	patterns []string
	regex    bool
	where    string
	out      string
}

func (a *app) newDecodeCmd() *cobra.Command {
	var f decodeFlags
	cmd := &cobra.Command{
		Use:   "decode [flags] FILE...",
		Short: "Decode DLT files into records",
		Long: `Decode one or more DLT files. Files are ordered by the first number in
their names and message indices run continuously across them.

Example:
  dltctl decode --grep timeout --where 'app == "DIAG"' log_0.dlt log_1.dlt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDecode(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "", "output format: table, text, ndjson or json (default from config)")
	fl.StringVar(&f.color, "color", "", "color mode: auto, always or never (default from config)")
	fl.StringArrayVarP(&f.patterns, "grep", "g", nil, "keep messages whose 'ecu app ctx payload' contains the pattern (repeatable)")
	fl.BoolVar(&f.regex, "regex", false, "treat --grep patterns as regular expressions")
	fl.StringVar(&f.where, "where", "", "keep messages for which the expression is true, e.g. 'type == \"LOG\"'")
	fl.StringVarP(&f.out, "out", "o", "", "write to file instead of stdout")
	fl.BoolVar(&f.progress, "progress", false, "print progress to stderr")
	fl.BoolVar(&f.noCache, "no-cache", false, "bypass the decode cache")
	return cmd
}

func (a *app) runDecode(cmd *cobra.Command, paths []string, f decodeFlags) error {
	flt, err := filter.New(f.patterns, f.regex, f.where)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	format := f.format
	if format == "" {
		format = a.cfg.Output.Format
	}
	colorMode := f.color
	if colorMode == "" {
		colorMode = a.cfg.Output.Color
	}

	var dst io.Writer = a.stdout
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		defer file.Close()
		dst = file
	}
	buf := bufio.NewWriter(dst)
	w, err := export.New(format, buf, export.ColorEnabled(colorMode, dst))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	res, runErr := a.runBatch(cmd.Context(), paths, f.batchFlags)
	msgs, err := flt.Apply(res.Messages)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := export.WriteAll(w, msgs); err != nil {
		return fmt.Errorf("decode: write: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("decode: write: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("decode: interrupted after %d of %d files: %w", len(res.Files), len(paths), runErr)
	}
	if !flt.Empty() {
		common.Logf("decode: %d of %d messages matched", len(msgs), len(res.Messages))
	}
	if f.out != "" {
		fmt.Fprintln(a.stderr, "Wrote", f.out)
	}
	return nil
}
