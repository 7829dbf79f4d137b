// Package weathercmder provides the weather command.
package weathercmder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/farmbuddy/cmd/farmbuddy/appenv"
	"github.com/papercomputeco/farmbuddy/pkg/render"
)

const weatherLongDesc string = `Share a location and print the weather report for it.

The backend keeps the report as context for the rest of the conversation, so
follow-up questions can refer to the local weather.

Examples:
  farmbuddy weather 10.52 7.44
  farmbuddy weather -- 6.45 -2.10`

const weatherShortDesc string = "Weather report for a location"

type weatherCommander struct {
	raw bool
}

func NewWeatherCmd() *cobra.Command {
	cmder := &weatherCommander{}

	cmd := &cobra.Command{
		Use:   "weather <latitude> <longitude>",
		Short: weatherShortDesc,
		Long:  weatherLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q", args[1])
			}
			return cmder.run(cmd, lat, lon)
		},
	}

	appenv.AddFlags(cmd)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the raw current and forecast data as JSON")

	return cmd
}

func (c *weatherCommander) run(cmd *cobra.Command, lat, lon float64) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := appenv.SignalContext(cmd.Context())
	defer stop()

	session, err := env.NewSession(cmd)
	if err != nil {
		return err
	}
	if _, err := session.Resume(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", env.Client.Target(), err)
	}
	if err := env.SaveSession(session); err != nil {
		env.Logger.Warn("could not save session state", "error", err)
	}

	w, err := session.ShareLocation(ctx, lat, lon)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.raw {
		fmt.Fprintf(out, "{\"current\":%s,\"forecast\":%s}\n", orNull(w.Data.Current), orNull(w.Data.Forecast))
		return nil
	}

	r, err := render.New(env.Config.Render.Style, session.Theme(), render.WrapFor(out, env.Config.Render.WordWrap), render.IsTerminal(out))
	if err != nil {
		return err
	}
	text, err := r.Render(w.Report)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, strings.TrimRight(text, "\n"))
	return nil
}

func orNull(raw []byte) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
