package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/sprint-board/internal/export"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		format   string
		output   string
		archived bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the board as JSON, CSV or PDF",
		Long: `Write every sprint and its stories to a file. Without --output the file
is named after the user and today's date; "-" writes to stdout.`,
		Example: `  sprintboard export --format csv
  sprintboard export --format json --archived --output -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			rt, err := open(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			b := rt.board()
			sprints, err := b.Snapshot(cmd.Context(), archived)
			if err != nil {
				return err
			}

			now := time.Now()
			data := export.New(b.UserID(), sprints, now)

			if output == "-" {
				return export.Write(cmd.OutOrStdout(), f, data)
			}
			if output == "" {
				output = export.Filename(b.UserID(), f, now)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := writeAndClose(file, f, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d sprints to %s\n", len(sprints), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, csv or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout`)
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived sprints and stories")
	return cmd
}

func writeAndClose(w io.WriteCloser, f export.Format, data export.Data) error {
	if err := export.Write(w, f, data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing export: %w", err)
	}
	return nil
}
