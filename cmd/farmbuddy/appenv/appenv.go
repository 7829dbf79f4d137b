// Package appenv resolves configuration and builds the shared dependencies
// every farmbuddy command talking to the backend needs.
package appenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/farmbuddy/pkg/chat"
	"github.com/papercomputeco/farmbuddy/pkg/client"
	"github.com/papercomputeco/farmbuddy/pkg/config"
	"github.com/papercomputeco/farmbuddy/pkg/dotdir"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream/async"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream/jsonl"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream/kafka"
	"github.com/papercomputeco/farmbuddy/pkg/eventstream/nop"
	"github.com/papercomputeco/farmbuddy/pkg/logger"
	"github.com/papercomputeco/farmbuddy/pkg/render"
	"github.com/papercomputeco/farmbuddy/pkg/speech"
)

var _ chat.View = (*render.View)(nil)

// logFileName is the JSON debug trail kept in the dot directory.
const logFileName = "farmbuddy.log"

// Env is what a command resolved from flags, environment and config.toml.
type Env struct {
	ConfigDir string
	Debug     bool
	Config    *config.Config

	Logger    *slog.Logger
	Client    *client.Client
	Publisher eventstream.Publisher
	Speaker   speech.Speaker

	dotdir  *dotdir.Manager
	closers []io.Closer
}

// AddFlags registers the client flags on cmd. Values land in viper once
// Load binds them, so the destination struct is only a placeholder.
func AddFlags(cmd *cobra.Command) {
	config.AddClientFlags(cmd, &config.Config{})
}

// Load resolves the configuration for cmd and builds its dependencies.
// Call Close when done.
func Load(cmd *cobra.Command) (*Env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.ClientFlags, config.ClientFlagKeys())
	cfg := config.FromViper(v)

	e := &Env{
		ConfigDir: configDir,
		Debug:     debug,
		Config:    cfg,
		dotdir:    dotdir.NewManager(),
	}

	if err := e.initLogger(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	e.Client, err = client.New(client.Config{
		Target:  cfg.Client.Target,
		Timeout: timeout,
		Logger:  e.Logger,
	})
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	e.Publisher, err = e.initPublisher(cfg.Events)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	e.Speaker = speech.NewRemoteSpeaker(e.Client, cfg.Speech.OutputDir, e.Logger)

	e.Logger.Debug("resolved configuration",
		"target", cfg.Client.Target,
		"language", cfg.Client.Language,
		"theme", cfg.UI.Theme,
		"render_style", cfg.Render.Style,
		"flush_trailing", cfg.Stream.FlushTrailing,
	)

	return e, nil
}

// initLogger writes warnings (or everything with --debug) to stderr and, when
// a dot directory exists, a JSON debug trail to its log file.
func (e *Env) initLogger(stderr io.Writer) error {
	level := slog.LevelWarn
	if e.Debug {
		level = slog.LevelDebug
	}
	console := logger.New(
		logger.WithWriter(stderr),
		logger.WithPretty(true),
		logger.WithLevel(level),
	)

	dir, err := e.dotdir.Target(e.ConfigDir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}
	if dir == "" {
		e.Logger = console
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	e.closers = append(e.closers, f)

	trail := logger.New(
		logger.WithWriter(f),
		logger.WithJSON(true),
		logger.WithDebug(true),
	)
	e.Logger = logger.Multi(console, trail)
	return nil
}

// NewSession creates a chat session from the configuration and the state
// saved by the previous run. Saved language and theme win over the
// configured ones unless the matching flag was given.
func (e *Env) NewSession(cmd *cobra.Command) (*chat.Session, error) {
	state, err := e.dotdir.LoadSessionState(e.ConfigDir)
	if err != nil {
		e.Logger.Warn("ignoring unreadable session state", "error", err)
		state = nil
	}

	cfg := chat.Config{
		Backend:       e.Client,
		Speaker:       e.Speaker,
		Publisher:     e.Publisher,
		Logger:        e.Logger,
		Theme:         e.Config.UI.Theme,
		AutoSpeak:     e.Config.Speech.AutoSpeak,
		FlushTrailing: e.Config.Stream.FlushTrailing,
	}

	language := e.Config.Client.Language
	if state != nil {
		cfg.ConversationID = state.ConversationID
		if state.Language != "" && !cmd.Flags().Changed(config.FlagLanguage) {
			language = state.Language
		}
		if state.Theme != "" && !cmd.Flags().Changed(config.FlagTheme) {
			cfg.Theme = state.Theme
		}
	}

	s, err := chat.New(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := s.SetLanguage(language); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSession persists what the next run should resume.
func (e *Env) SaveSession(s *chat.Session) error {
	return e.dotdir.SaveSessionState(s.State(), e.ConfigDir)
}

// ClearSession forgets the saved conversation.
func (e *Env) ClearSession() error {
	return e.dotdir.ClearSessionState(e.ConfigDir)
}

// Close releases the event log and the log file.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// SignalContext returns a context cancelled by SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// NewView returns a reply view on w styled for theme.
func (e *Env) NewView(w io.Writer, theme string) (*render.View, error) {
	tty := render.IsTerminal(w)
	r, err := render.New(e.Config.Render.Style, theme, render.WrapFor(w, e.Config.Render.WordWrap), tty)
	if err != nil {
		return nil, err
	}
	return render.NewView(w, r, render.WithTTY(tty)), nil
}

// initPublisher builds the reply event sinks the configuration asks for.
// Sinks are fed from a background queue so a slow broker never delays the
// next prompt; Close drains the queue.
func (e *Env) initPublisher(cfg config.EventsConfig) (eventstream.Publisher, error) {
	var sinks []eventstream.Publisher

	if cfg.LogPath != "" {
		pub, err := jsonl.NewPublisher(cfg.LogPath)
		if err != nil {
			return nil, fmt.Errorf("opening events log: %w", err)
		}
		sinks = append(sinks, pub)
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.Config{Brokers: brokers, Topic: cfg.KafkaTopic})
		if err != nil {
			_ = eventstream.NewMulti(sinks...).Close()
			return nil, fmt.Errorf("configuring kafka events: %w", err)
		}
		sinks = append(sinks, pub)
	}

	if len(sinks) == 0 {
		return nop.NewPublisher(), nil
	}

	var next eventstream.Publisher = sinks[0]
	if len(sinks) > 1 {
		next = eventstream.NewMulti(sinks...)
	}

	pub, err := async.NewPublisher(async.Config{Publisher: next, Logger: e.Logger})
	if err != nil {
		_ = next.Close()
		return nil, err
	}
	e.closers = append(e.closers, pub)

	return pub, nil
}
