package appenv

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Exchange sends one message, optionally with a photo, on the saved
// conversation and prints the reply.
func Exchange(cmd *cobra.Command, text, image string, newConversation bool) error {
	env, err := Load(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := SignalContext(cmd.Context())
	defer stop()

	session, err := env.NewSession(cmd)
	if err != nil {
		return err
	}

	if newConversation {
		_, err = session.NewConversation(ctx)
	} else {
		_, err = session.Resume(ctx)
	}
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", env.Client.Target(), err)
	}

	if image != "" {
		if err := session.AttachImage(image); err != nil {
			return err
		}
	}

	view, err := env.NewView(cmd.OutOrStdout(), session.Theme())
	if err != nil {
		return err
	}

	reply, err := session.Send(ctx, text, view)
	if saveErr := env.SaveSession(session); saveErr != nil {
		env.Logger.Warn("could not save session state", "error", saveErr)
	}
	if err != nil {
		return err
	}

	if reply.Clip != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "audio: %s\n", reply.Clip.Path)
	}
	return nil
}
