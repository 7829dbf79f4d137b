// Package farmbuddycmder
package farmbuddycmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy/ask"
	chatcmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy/chat"
	configcmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy/config"
	conversationcmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy/conversation"
	transcribecmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy/transcribe"
	uploadcmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy/upload"
	weathercmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy/weather"
	versioncmder "github.com/papercomputeco/farmbuddy/cmd/version"
)

const farmbuddyLongDesc string = `FarmBuddy is an agricultural advisor for Nigerian smallholder farmers,
in English, Hausa, Igbo and Yoruba.

Talk to a FarmBuddy backend using:
  farmbuddy chat          Interactive chat with streamed replies
  farmbuddy ask           Ask a single question
  farmbuddy upload        Ask about a photo of a crop or pest
  farmbuddy weather       Weather report for your location
  farmbuddy transcribe    Turn a recorded question into text`

const farmbuddyShortDesc string = "FarmBuddy - Agricultural Advisor"

func NewFarmBuddyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "farmbuddy",
		Short:        farmbuddyShortDesc,
		Long:         farmbuddyLongDesc,
		SilenceUsage:  true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .farmbuddy/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(uploadcmder.NewUploadCmd())
	cmd.AddCommand(weathercmder.NewWeatherCmd())
	cmd.AddCommand(transcribecmder.NewTranscribeCmd())
	cmd.AddCommand(conversationcmder.NewConversationCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
