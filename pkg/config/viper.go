package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/farmbuddy/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the FARMBUDDY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FARMBUDDY_CLIENT_TARGET, FARMBUDDY_UI_THEME, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("FARMBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper values.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			Target:   v.GetString("client.target"),
			Timeout:  v.GetString("client.timeout"),
			Language: v.GetString("client.language"),
		},
		UI: UIConfig{
			Theme: v.GetString("ui.theme"),
		},
		Render: RenderConfig{
			Style:    v.GetString("render.style"),
			WordWrap: v.GetUint("render.word_wrap"),
		},
		Stream: StreamConfig{
			FlushTrailing: v.GetBool("stream.flush_trailing"),
		},
		Speech: SpeechConfig{
			AutoSpeak: v.GetBool("speech.auto_speak"),
			OutputDir: v.GetString("speech.output_dir"),
		},
		Events: EventsConfig{
			LogPath:      v.GetString("events.log_path"),
			KafkaBrokers: v.GetString("events.kafka_brokers"),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.target", d.Client.Target)
	v.SetDefault("client.timeout", d.Client.Timeout)
	v.SetDefault("client.language", d.Client.Language)

	// UI
	v.SetDefault("ui.theme", d.UI.Theme)

	// Render
	v.SetDefault("render.style", d.Render.Style)
	v.SetDefault("render.word_wrap", d.Render.WordWrap)

	// Stream
	v.SetDefault("stream.flush_trailing", d.Stream.FlushTrailing)

	// Speech
	v.SetDefault("speech.auto_speak", d.Speech.AutoSpeak)
	v.SetDefault("speech.output_dir", d.Speech.OutputDir)

	// Events
	v.SetDefault("events.log_path", d.Events.LogPath)
	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", d.Events.KafkaTopic)
}
