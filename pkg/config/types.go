package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/farmbuddy/pkg/i18n"
)

// Config represents the persistent farmbuddy configuration stored as
// config.toml in the .farmbuddy/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Client  ClientConfig `toml:"client"`
	UI      UIConfig     `toml:"ui"`
	Render  RenderConfig `toml:"render"`
	Stream  StreamConfig `toml:"stream"`
	Speech  SpeechConfig `toml:"speech"`
	Events  EventsConfig `toml:"events"`
}

// ClientConfig holds settings for talking to the FarmBuddy backend.
type ClientConfig struct {
	// Target is the backend base URL (scheme + host + port).
	Target string `toml:"target,omitempty"`

	// Timeout bounds a whole request including the streamed reply, as a
	// Go duration string.
	Timeout string `toml:"timeout,omitempty"`

	// Language is the reply language sent with every chat message.
	Language string `toml:"language,omitempty"`
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme string `toml:"theme,omitempty"`
}

// RenderConfig holds markdown rendering settings.
type RenderConfig struct {
	// Style is a glamour style name, "auto" to follow the theme and terminal,
	// or "plain" to disable markdown rendering.
	Style    string `toml:"style,omitempty"`
	WordWrap uint   `toml:"word_wrap,omitempty"`
}

// StreamConfig holds reply stream decoding settings.
type StreamConfig struct {
	// FlushTrailing parses an unterminated final line instead of dropping it.
	FlushTrailing bool `toml:"flush_trailing,omitempty"`
}

// SpeechConfig holds read-aloud settings.
type SpeechConfig struct {
	AutoSpeak bool   `toml:"auto_speak,omitempty"`
	OutputDir string `toml:"output_dir,omitempty"`
}

// EventsConfig holds session event log settings.
type EventsConfig struct {
	// LogPath is a JSON lines file receiving reply events. Empty disables it.
	LogPath string `toml:"log_path,omitempty"`

	// KafkaBrokers is a comma separated broker list. Empty disables Kafka.
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// Brokers splits KafkaBrokers, dropping empty entries.
func (e EventsConfig) Brokers() []string {
	var brokers []string
	for b := range strings.SplitSeq(e.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// TimeoutDuration parses Client.Timeout. An empty value means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Client.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Client.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid value for client.timeout: %w", err)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.target": {
		get: func(c *Config) string { return c.Client.Target },
		set: func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			c.Client.Timeout = v
			return nil
		},
	},
	"client.language": {
		get: func(c *Config) string { return c.Client.Language },
		set: func(c *Config, v string) error {
			lang, err := i18n.Parse(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.language: %w", err)
			}
			c.Client.Language = lang.String()
			return nil
		},
	},
	"ui.theme": {
		get: func(c *Config) string { return c.UI.Theme },
		set: func(c *Config, v string) error {
			if v != ThemeDark && v != ThemeLight {
				return fmt.Errorf("invalid value for ui.theme: %q (expected %s or %s)", v, ThemeDark, ThemeLight)
			}
			c.UI.Theme = v
			return nil
		},
	},
	"render.style": {
		get: func(c *Config) string { return c.Render.Style },
		set: func(c *Config, v string) error { c.Render.Style = v; return nil },
	},
	"render.word_wrap": {
		get: func(c *Config) string {
			if c.Render.WordWrap == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Render.WordWrap), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for render.word_wrap: %w", err)
			}
			c.Render.WordWrap = uint(n)
			return nil
		},
	},
	"stream.flush_trailing": {
		get: func(c *Config) string { return strconv.FormatBool(c.Stream.FlushTrailing) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for stream.flush_trailing: %w", err)
			}
			c.Stream.FlushTrailing = b
			return nil
		},
	},
	"speech.auto_speak": {
		get: func(c *Config) string { return strconv.FormatBool(c.Speech.AutoSpeak) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for speech.auto_speak: %w", err)
			}
			c.Speech.AutoSpeak = b
			return nil
		},
	},
	"speech.output_dir": {
		get: func(c *Config) string { return c.Speech.OutputDir },
		set: func(c *Config, v string) error { c.Speech.OutputDir = v; return nil },
	},
	"events.log_path": {
		get: func(c *Config) string { return c.Events.LogPath },
		set: func(c *Config, v string) error { c.Events.LogPath = v; return nil },
	},
	"events.kafka_brokers": {
		get: func(c *Config) string { return c.Events.KafkaBrokers },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = v; return nil },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error {
			if strings.TrimSpace(v) == "" {
				return errors.New("invalid value for events.kafka_topic: empty topic")
			}
			c.Events.KafkaTopic = v
			return nil
		},
	},
}
