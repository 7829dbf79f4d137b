// Package conversationcmder provides commands for managing conversations
// on the FarmBuddy backend.
package conversationcmder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/farmbuddy/cmd/farmbuddy/appenv"
	"github.com/papercomputeco/farmbuddy/pkg/chat"
	"github.com/papercomputeco/farmbuddy/pkg/cliui"
)

const conversationLongDesc string = `Manage FarmBuddy conversations.

The conversation chosen here is remembered in the .farmbuddy/ directory and
used by the next "farmbuddy chat" or "farmbuddy ask".

Use subcommands:
  farmbuddy conversation new                  Start a new conversation
  farmbuddy conversation open <id>            Make <id> the active conversation
  farmbuddy conversation rename <id> <title>  Rename a conversation
  farmbuddy conversation delete <id>          Delete a conversation`

const conversationShortDesc string = "Manage conversations"

func NewConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   conversationShortDesc,
		Long:    conversationLongDesc,
	}

	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newOpenCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(env *appenv.Env, s *chat.Session) error {
				id, err := s.NewConversation(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s Started conversation %s\n",
					cliui.SuccessMark, cliui.NameStyle.Render("#"+strconv.FormatInt(id, 10)))
				return env.SaveSession(s)
			})
		},
	}

	appenv.AddFlags(cmd)
	return cmd
}

func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Make a conversation the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(env *appenv.Env, s *chat.Session) error {
				if err := s.OpenConversation(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s Active conversation is now %s\n",
					cliui.SuccessMark, cliui.NameStyle.Render("#"+args[0]))
				return env.SaveSession(s)
			})
		},
	}

	appenv.AddFlags(cmd)
	return cmd
}

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(env *appenv.Env, s *chat.Session) error {
				title, err := s.Rename(cmd.Context(), id, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s Renamed %s to %s\n",
					cliui.SuccessMark, cliui.KeyStyle.Render("#"+args[0]), cliui.ValueStyle.Render(title))
				return env.SaveSession(s)
			})
		},
	}

	appenv.AddFlags(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(env *appenv.Env, s *chat.Session) error {
				err := cliui.Step(cmd.OutOrStdout(), "Deleting conversation "+cliui.KeyStyle.Render("#"+args[0]), func() error {
					return s.Delete(cmd.Context(), id)
				})
				if err != nil {
					return err
				}

				if s.ConversationID() == 0 {
					return env.ClearSession()
				}
				return nil
			})
		},
	}

	appenv.AddFlags(cmd)
	return cmd
}

func withSession(cmd *cobra.Command, fn func(*appenv.Env, *chat.Session) error) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	s, err := env.NewSession(cmd)
	if err != nil {
		return err
	}
	return fn(env, s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid conversation id %q", s)
	}
	return id, nil
}
