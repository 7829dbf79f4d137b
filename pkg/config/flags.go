package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --target
// on "farmbuddy chat", "farmbuddy ask" and "farmbuddy upload").
type Flag struct {
	// Name is the long flag name (e.g. "target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagTarget        = "target"
	FlagTimeout       = "timeout"
	FlagLanguage      = "language"
	FlagTheme         = "theme"
	FlagRenderStyle   = "render-style"
	FlagWordWrap      = "word-wrap"
	FlagFlushTrailing = "flush-trailing"
	FlagAutoSpeak     = "auto-speak"
	FlagSpeechDir     = "speech-dir"
	FlagEventsLog     = "events-log"
	FlagKafkaBrokers  = "kafka-brokers"
	FlagKafkaTopic    = "kafka-topic"
)

// ClientFlags is the registry shared by every command that talks to the backend.
var ClientFlags = FlagSet{
	FlagTarget: {
		Name:        "target",
		Shorthand:   "t",
		ViperKey:    "client.target",
		Description: "FarmBuddy backend URL",
	},
	FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "client.timeout",
		Description: "Request timeout including the streamed reply (e.g. 90s, 5m)",
	},
	FlagLanguage: {
		Name:        "language",
		Shorthand:   "l",
		ViperKey:    "client.language",
		Description: "Reply language (en, ha, ig, yo)",
	},
	FlagTheme: {
		Name:        "theme",
		ViperKey:    "ui.theme",
		Description: "Interface theme (dark or light)",
	},
	FlagRenderStyle: {
		Name:        "render-style",
		ViperKey:    "render.style",
		Description: "Markdown style (auto, dark, light, notty, ascii, plain, ...)",
	},
	FlagWordWrap: {
		Name:        "word-wrap",
		ViperKey:    "render.word_wrap",
		Description: "Wrap rendered replies at this column",
	},
	FlagFlushTrailing: {
		Name:        "flush-trailing",
		ViperKey:    "stream.flush_trailing",
		Description: "Parse an unterminated final stream line instead of dropping it",
	},
	FlagAutoSpeak: {
		Name:        "auto-speak",
		ViperKey:    "speech.auto_speak",
		Description: "Read every completed reply aloud",
	},
	FlagSpeechDir: {
		Name:        "speech-dir",
		ViperKey:    "speech.output_dir",
		Description: "Directory for synthesized reply audio",
	},
	FlagEventsLog: {
		Name:        "events-log",
		ViperKey:    "events.log_path",
		Description: "Append reply events as JSON lines to this file",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "events.kafka_brokers",
		Description: "Comma separated Kafka brokers receiving reply events",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "events.kafka_topic",
		Description: "Kafka topic for reply events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddClientFlags registers every ClientFlags entry on cmd, writing into cfg.
func AddClientFlags(cmd *cobra.Command, cfg *Config) {
	AddStringFlag(cmd, ClientFlags, FlagTarget, &cfg.Client.Target)
	AddStringFlag(cmd, ClientFlags, FlagTimeout, &cfg.Client.Timeout)
	AddStringFlag(cmd, ClientFlags, FlagLanguage, &cfg.Client.Language)
	AddStringFlag(cmd, ClientFlags, FlagTheme, &cfg.UI.Theme)
	AddStringFlag(cmd, ClientFlags, FlagRenderStyle, &cfg.Render.Style)
	AddUintFlag(cmd, ClientFlags, FlagWordWrap, &cfg.Render.WordWrap)
	AddBoolFlag(cmd, ClientFlags, FlagFlushTrailing, &cfg.Stream.FlushTrailing)
	AddBoolFlag(cmd, ClientFlags, FlagAutoSpeak, &cfg.Speech.AutoSpeak)
	AddStringFlag(cmd, ClientFlags, FlagSpeechDir, &cfg.Speech.OutputDir)
	AddStringFlag(cmd, ClientFlags, FlagEventsLog, &cfg.Events.LogPath)
	AddStringFlag(cmd, ClientFlags, FlagKafkaBrokers, &cfg.Events.KafkaBrokers)
	AddStringFlag(cmd, ClientFlags, FlagKafkaTopic, &cfg.Events.KafkaTopic)
}

// ClientFlagKeys lists the registry keys registered by AddClientFlags.
func ClientFlagKeys() []string {
	return []string{
		FlagTarget, FlagTimeout, FlagLanguage, FlagTheme, FlagRenderStyle,
		FlagWordWrap, FlagFlushTrailing, FlagAutoSpeak, FlagSpeechDir, FlagEventsLog,
		FlagKafkaBrokers, FlagKafkaTopic,
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
