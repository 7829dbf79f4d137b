// Package uploadcmder provides the upload command for asking about a photo.
package uploadcmder

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/farmbuddy/cmd/farmbuddy/appenv"
)

const uploadLongDesc string = `Upload a photo of a crop, pest or field and print FarmBuddy's analysis.

The photo must be JPEG, PNG or WEBP and at most 5 MiB. Anything after the
path is sent as the caption.

Examples:
  farmbuddy upload ./cassava-leaf.jpg
  farmbuddy upload ./maize.png "Why are the leaves turning yellow?"`

const uploadShortDesc string = "Ask about a photo"

type uploadCommander struct {
	newConversation bool
}

func NewUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <image> [caption]",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return appenv.Exchange(cmd, strings.Join(args[1:], " "), args[0], cmder.newConversation)
		},
	}

	appenv.AddFlags(cmd)
	cmd.Flags().BoolVarP(&cmder.newConversation, "new", "n", false, "Start a new conversation for this photo")

	return cmd
}
