// Package transcribecmder provides the transcribe command.
package transcribecmder

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/farmbuddy/cmd/farmbuddy/appenv"
	"github.com/papercomputeco/farmbuddy/pkg/cliui"
	"github.com/papercomputeco/farmbuddy/pkg/speech"
)

const transcribeLongDesc string = `Transcribe a recorded question.

The audio file is sent to the backend's speech recognizer in the reply
language. With --ask the transcription is sent as a question and the reply
printed, the same as "farmbuddy ask".

Examples:
  farmbuddy transcribe ./question.wav
  farmbuddy transcribe --language ha --ask ./tambaya.m4a`

const transcribeShortDesc string = "Transcribe a recorded question"

type transcribeCommander struct {
	ask bool
}

func NewTranscribeCmd() *cobra.Command {
	cmder := &transcribeCommander{}

	cmd := &cobra.Command{
		Use:   "transcribe <audio file>",
		Short: transcribeShortDesc,
		Long:  transcribeLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	appenv.AddFlags(cmd)
	cmd.Flags().BoolVar(&cmder.ask, "ask", false, "Send the transcription as a question")

	return cmd
}

func (c *transcribeCommander) run(cmd *cobra.Command, path string) error {
	text, err := c.transcribe(cmd, path)
	if err != nil {
		return err
	}

	if !c.ask {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "> %s\n", text)
	return appenv.Exchange(cmd, text, "", false)
}

func (c *transcribeCommander) transcribe(cmd *cobra.Command, path string) (string, error) {
	env, err := appenv.Load(cmd)
	if err != nil {
		return "", err
	}
	defer env.Close()

	ctx, stop := appenv.SignalContext(cmd.Context())
	defer stop()

	session, err := env.NewSession(cmd)
	if err != nil {
		return "", err
	}

	rec := speech.NewFileRecognizer(env.Client, path, session.Language().String())

	var text string
	err = cliui.Step(cmd.ErrOrStderr(), "Transcribing "+filepath.Base(path), func() error {
		var err error
		text, err = session.Dictate(ctx, rec, nil)
		return err
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("no speech recognized")
	}
	return text, nil
}
