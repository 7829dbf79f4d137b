// Package chatcmder provides the interactive chat command.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/farmbuddy/cmd/farmbuddy/appenv"
	"github.com/papercomputeco/farmbuddy/pkg/chat"
	"github.com/papercomputeco/farmbuddy/pkg/cliui"
	"github.com/papercomputeco/farmbuddy/pkg/i18n"
	"github.com/papercomputeco/farmbuddy/pkg/render"
	"github.com/papercomputeco/farmbuddy/pkg/speech"
	"github.com/papercomputeco/farmbuddy/pkg/utils"
)

// maxTitleWidth keeps long conversation titles from wrapping the banner.
const maxTitleWidth = 40

const chatLongDesc string = `Start an interactive chat with FarmBuddy.

Replies stream in as they are generated and are rendered as markdown.
The active conversation, reply language and theme are remembered in the
.farmbuddy/ directory, so the next "farmbuddy chat" picks up where this one
left off.

Commands inside the chat:
  /new                     Start a new conversation
  /open <id>               Switch to conversation <id>
  /rename [id] <title>     Rename a conversation (default: the current one)
  /delete [id]             Delete a conversation (default: the current one)
  /image <path>            Attach a photo to the next message
  /lang <code>             Reply in en, ha, ig or yo
  /theme                   Toggle the dark and light theme
  /weather <lat> <lon>     Share your location for a weather report
  /speak                   Read the last reply aloud
  /dictate <file>          Transcribe a recorded question and send it
  /help                    Show this list
  /exit                    Quit (or Ctrl+D)

Press Ctrl+C while a reply is streaming to stop it.

Examples:
  farmbuddy chat
  farmbuddy chat --language ha --target https://farmbuddy.example.ng`

const chatShortDesc string = "Interactive chat with FarmBuddy"

type chatCommander struct {
	env     *appenv.Env
	session *chat.Session

	in  io.Reader
	out io.Writer
	tty bool

	palette  cliui.Palette
	renderer render.Renderer
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := appenv.Load(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			cmder.env = env
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.tty = render.IsTerminal(cmder.out)

			cmder.session, err = env.NewSession(cmd)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context())
		},
	}

	appenv.AddFlags(cmd)

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.applyTheme(); err != nil {
		return err
	}

	id, err := c.session.Resume(ctx)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.env.Client.Target(), err)
	}
	c.save()

	c.welcome(id)

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, c.palette.User.Render("you> "))
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := c.command(ctx, input)
			if err != nil {
				c.fail(err)
			}
			if quit {
				break
			}
			continue
		}

		c.send(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) welcome(id int64) {
	lang := c.session.Language()

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s\n", cliui.HeaderStyle.Render(i18n.T(lang, i18n.KeyWelcome)))
	fmt.Fprintf(c.out, "  %s\n\n", i18n.T(lang, i18n.KeyIntro))
	fmt.Fprintf(c.out, "  %s\n", i18n.T(lang, i18n.KeyTopics))
	for _, topic := range i18n.Topics(lang) {
		fmt.Fprintf(c.out, "    %s\n", topic)
	}
	fmt.Fprintln(c.out)

	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Conversation:"), cliui.NameStyle.Render(c.conversationLabel(id)))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Language:    "), cliui.ValueStyle.Render(lang.DisplayName()))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render(i18n.T(lang, i18n.KeySubtitle)+". /help for commands, /exit or Ctrl+D to quit."))
}

func (c *chatCommander) conversationLabel(id int64) string {
	label := "#" + strconv.FormatInt(id, 10)
	if title := c.session.Title(); title != "" {
		label += " " + utils.Truncate(title, maxTitleWidth)
	}
	return label
}

// send streams one reply. Ctrl+C cancels the reply, not the chat.
func (c *chatCommander) send(ctx context.Context, text string) {
	reqCtx, stop := appenv.SignalContext(ctx)
	defer stop()

	fmt.Fprintln(c.out, c.palette.Bot.Render("farmbuddy>"))
	view := render.NewView(c.out, c.renderer, render.WithTTY(c.tty))

	reply, err := c.session.Send(reqCtx, text, view)
	switch {
	case err == nil:
		if reply.Clip != nil {
			fmt.Fprintf(c.out, "  %s\n", c.palette.Dim.Render("♪ "+reply.Clip.Path))
		}
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(c.out, "  %s\n", c.palette.Dim.Render("(reply stopped)"))
	case reply != nil && reply.Failed:
		c.env.Logger.Debug("reply failed", "error", err)
	default:
		c.fail(err)
	}
	fmt.Fprintln(c.out)
}

// command runs a slash command and reports whether the chat should end.
func (c *chatCommander) command(ctx context.Context, input string) (bool, error) {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "/exit", "/quit":
		return true, nil

	case "/help":
		fmt.Fprintln(c.out, c.palette.Dim.Render(helpText))
		return false, nil

	case "/new":
		id, err := c.session.NewConversation(ctx)
		if err != nil {
			return false, err
		}
		c.save()
		c.done("New conversation " + c.conversationLabel(id))
		return false, nil

	case "/open":
		id, err := parseID(rest)
		if err != nil {
			return false, err
		}
		if err := c.session.OpenConversation(ctx, id); err != nil {
			return false, err
		}
		c.save()
		c.done("Switched to " + c.conversationLabel(id))
		return false, nil

	case "/rename":
		id, title := int64(0), rest
		if first, tail, ok := strings.Cut(rest, " "); ok {
			if n, err := strconv.ParseInt(first, 10, 64); err == nil {
				id, title = n, tail
			}
		}
		stored, err := c.session.Rename(ctx, id, title)
		if err != nil {
			return false, err
		}
		c.save()
		c.done("Renamed to " + cliui.NameStyle.Render(stored))
		return false, nil

	case "/delete":
		var id int64
		if rest != "" {
			n, err := parseID(rest)
			if err != nil {
				return false, err
			}
			id = n
		}
		if err := c.session.Delete(ctx, id); err != nil {
			return false, err
		}
		if c.session.ConversationID() == 0 {
			if _, err := c.session.NewConversation(ctx); err != nil {
				return false, err
			}
		}
		c.save()
		c.done("Deleted. Now in " + c.conversationLabel(c.session.ConversationID()))
		return false, nil

	case "/image":
		if rest == "" {
			c.session.ClearImage()
			c.done("Photo removed")
			return false, nil
		}
		if err := c.session.AttachImage(rest); err != nil {
			return false, err
		}
		c.done("Photo " + cliui.NameStyle.Render(c.session.PendingImage()) + " goes with your next message")
		return false, nil

	case "/lang":
		lang, err := c.session.SetLanguage(rest)
		if err != nil {
			return false, fmt.Errorf("%w (choose from %s)", err, languageList())
		}
		c.save()
		c.done("Replies in " + lang.DisplayName() + ". " + i18n.T(lang, i18n.KeyPlaceholder))
		return false, nil

	case "/theme":
		theme := c.session.ToggleTheme()
		if err := c.applyTheme(); err != nil {
			return false, err
		}
		c.save()
		c.done("Theme: " + theme)
		return false, nil

	case "/weather":
		lat, lon, err := parseCoordinates(rest)
		if err != nil {
			return false, err
		}
		w, err := c.session.ShareLocation(ctx, lat, lon)
		if err != nil {
			return false, err
		}
		out, err := c.renderer.Render(w.Report)
		if err != nil {
			out = w.Report
		}
		fmt.Fprintln(c.out, strings.TrimRight(out, "\n"))
		return false, nil

	case "/speak":
		clip, err := c.session.Speak(ctx)
		if err != nil {
			return false, err
		}
		c.done("Saved " + clip.Path)
		return false, nil

	case "/dictate":
		if rest == "" {
			return false, errors.New("usage: /dictate <audio file>")
		}
		lang := c.session.Language()
		fmt.Fprintf(c.out, "  %s\n", c.palette.Dim.Render(i18n.T(lang, i18n.KeyListening)))

		rec := speech.NewFileRecognizer(c.env.Client, rest, lang.String())
		text, err := c.session.Dictate(ctx, rec, nil)
		if err != nil {
			return false, err
		}
		if text == "" {
			return false, errors.New("no speech recognized")
		}
		fmt.Fprintf(c.out, "%s%s\n", c.palette.User.Render("you> "), text)
		c.send(ctx, text)
		return false, nil
	}

	return false, fmt.Errorf("unknown command %s (try /help)", name)
}

// applyTheme rebuilds the palette and renderer for the session theme.
func (c *chatCommander) applyTheme() error {
	cfg := c.env.Config
	theme := c.session.Theme()

	r, err := render.New(cfg.Render.Style, theme, render.WrapFor(c.out, cfg.Render.WordWrap), c.tty)
	if err != nil {
		return err
	}

	c.renderer = r
	c.palette = cliui.PaletteFor(theme)
	return nil
}

func (c *chatCommander) save() {
	if err := c.env.SaveSession(c.session); err != nil {
		c.env.Logger.Warn("could not save session state", "error", err)
	}
}

func (c *chatCommander) done(msg string) {
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark, msg)
}

func (c *chatCommander) fail(err error) {
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.FailMark, c.palette.Error.Render(err.Error()))
}

const helpText = `  /new  /open <id>  /rename [id] <title>  /delete [id]
  /image <path>  /lang <code>  /theme  /weather <lat> <lon>
  /speak  /dictate <file>  /exit`

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid conversation id %q", s)
	}
	return id, nil
}

func parseCoordinates(s string) (float64, float64, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != 2 {
		return 0, 0, errors.New("usage: /weather <lat> <lon>")
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", fields[0])
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", fields[1])
	}
	return lat, lon, nil
}

func languageList() string {
	langs := i18n.Languages()
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = l.String()
	}
	return strings.Join(codes, ", ")
}
