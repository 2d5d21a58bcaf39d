package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aliskhannn/image-reconciler/internal/model"
	"github.com/aliskhannn/image-reconciler/internal/reconciler"
	"github.com/aliskhannn/image-reconciler/internal/storage/file"
	"github.com/aliskhannn/image-reconciler/internal/table"
)

type rootOpts struct {
	tablePath string
	sourceDir string
	targetDir string
	format    string
}

// report is printed on stdout after the run, complete or not.
type report struct {
	CopiedCount   int    `json:"copiedCount"`
	NotFoundCount int    `json:"notFoundCount"`
	SkippedCount  int    `json:"skippedCount"`
	Error         string `json:"error,omitempty"`
	model.Result
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Copy the images referenced by a table into a target directory",
		Long: `reconcile reads the "Front side Image" column of a CSV or XLSX table and
copies every referenced image found in the source directory into the target
directory. Images that are not found are listed in the report.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, out)
		},
	}

	cmd.Flags().StringVarP(&opts.tablePath, "table", "t", "", "table file (csv or xlsx)")
	cmd.Flags().StringVarP(&opts.sourceDir, "source", "s", "", "directory to search for images")
	cmd.Flags().StringVarP(&opts.targetDir, "target", "o", "./images", "directory to copy images into")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "table format: csv or xlsx (default: by extension)")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func run(cmd *cobra.Command, opts *rootOpts, out io.Writer) error {
	format := table.FormatFor("", opts.tablePath)
	if opts.format != "" {
		f, err := table.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	}

	target, err := file.NewStorage(opts.targetDir)
	if err != nil {
		return err
	}

	rows, err := table.Open(opts.tablePath, format)
	if err != nil {
		return fmt.Errorf("%w: %w", reconciler.ErrStream, err)
	}
	defer rows.Close()

	res, runErr := reconciler.New(target).Reconcile(cmd.Context(), rows, opts.sourceDir)

	rep := report{
		CopiedCount:   len(res.CopiedImages),
		NotFoundCount: len(res.NotFoundImages),
		SkippedCount:  len(res.SkippedRows),
		Result:        res,
	}
	if runErr != nil {
		rep.Error = runErr.Error()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return runErr
}
