package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/sprint-board/internal/credential"
	"github.com/nhle/sprint-board/internal/model"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage intake source credentials in the keyring",
		Long: `Intake sources read their token or password from the keyring under
"<type>-<id>", for example "jira-work" or "email-inbox".`,
	}

	set := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credential.Open(model.ConfigDir())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "value for %s: ", args[0])
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading secret: %w", err)
			}
			value := strings.TrimSpace(line)
			if value == "" {
				return errors.New("empty secret")
			}
			if err := creds.Set(args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ stored %s\n", args[0])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credential.Open(model.ConfigDir())
			if err != nil {
				return err
			}
			return creds.Delete(args[0])
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}
