package config

const (
	// ThemeDark and ThemeLight are the two interface themes.
	ThemeDark  = "dark"
	ThemeLight = "light"

	defaultTarget   = "http://localhost:8000"
	defaultTimeout  = "5m"
	defaultLanguage = "en"

	defaultRenderStyle = "auto"
	defaultWordWrap    = 80

	defaultKafkaTopic = "farmbuddy.replies"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			Target:   defaultTarget,
			Timeout:  defaultTimeout,
			Language: defaultLanguage,
		},
		UI: UIConfig{
			Theme: ThemeDark,
		},
		Render: RenderConfig{
			Style:    defaultRenderStyle,
			WordWrap: defaultWordWrap,
		},
		Events: EventsConfig{
			KafkaTopic: defaultKafkaTopic,
		},
	}
}
