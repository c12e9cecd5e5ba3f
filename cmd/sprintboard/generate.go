package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/sprint-board/internal/ai"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		sprintID string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Draft a story with the configured AI provider",
		Long: `Ask the configured provider for a story and add it to a sprint, the
backlog by default. Use --dry-run to print the draft without saving it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			draft, err := rt.drafter().Draft(ctx, strings.Join(args, " "))
			if err != nil {
				return errors.New(ai.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "%s\n\n%s\n", draft.Title, draft.Description)
				if len(draft.Tags) > 0 {
					fmt.Fprintf(out, "\ntags: %s\n", strings.Join(draft.Tags, ", "))
				}
				return nil
			}

			b := rt.board()
			if err := b.Load(ctx, true); err != nil {
				return err
			}
			if sprintID == "" {
				bl, ok := b.View().Backlog()
				if !ok {
					return errors.New("no backlog sprint; pass --sprint")
				}
				sprintID = bl.ID
			}

			st, err := b.AddStory(ctx, sprintID, draft.Input())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", st.Number, st.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sprintID, "sprint", "s", "", "target sprint ID (default: backlog)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the draft without saving")
	return cmd
}
