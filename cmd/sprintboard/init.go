package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/sprint-board/internal/model"
)

func newInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config and create the database",
		Long: `Write the default configuration to the --config path and create the
database with the priority and backlog sprints for the configured user.
An existing config is kept unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			_, err := os.Stat(opts.configPath)
			switch {
			case err == nil && !force:
				fmt.Fprintf(out, "✓ config already exists at %s\n", opts.configPath)
			case err == nil || errors.Is(err, fs.ErrNotExist):
				if err := model.SaveConfig(opts.configPath, model.DefaultAppConfig()); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ wrote %s\n", opts.configPath)
			default:
				return fmt.Errorf("checking %s: %w", opts.configPath, err)
			}

			rt, err := open(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.board().Load(cmd.Context(), true); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ board ready for %q in %s\n", rt.cfg.User.ID, rt.cfg.Database.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
