// Package askcmder provides the one-shot ask command.
package askcmder

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/farmbuddy/cmd/farmbuddy/appenv"
)

const askLongDesc string = `Ask FarmBuddy a single question and print the reply.

The question goes to the conversation the last "farmbuddy chat" or
"farmbuddy ask" used, unless --new is given. The reply streams to stdout;
when stdout is not a terminal only the finished reply is written.

Examples:
  farmbuddy ask "When should I plant maize in Kaduna?"
  farmbuddy ask --language yo "Bawo ni mo se le dena kokoro?"
  farmbuddy ask --new --render-style plain "How much fertilizer per hectare?"`

const askShortDesc string = "Ask a single question"

type askCommander struct {
	newConversation bool
	image           string
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	appenv.AddFlags(cmd)
	cmd.Flags().BoolVarP(&cmder.newConversation, "new", "n", false, "Start a new conversation for this question")
	cmd.Flags().StringVarP(&cmder.image, "image", "i", "", "Attach a photo (JPEG, PNG or WEBP, up to 5 MiB)")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, question string) error {
	return appenv.Exchange(cmd, question, c.image, c.newConversation)
}
