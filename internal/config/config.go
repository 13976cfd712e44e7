package config

import "time"

// Config is the root configuration for Colloquy.
type Config struct {
	Models       ModelsConfig       `json:"models"`
	Conversation ConversationConfig `json:"conversation"`
	Events       EventsConfig       `json:"events"`
	Media        MediaConfig        `json:"media"`
	Gateway      GatewayConfig      `json:"gateway"`
	Schedules    []ScheduleConfig   `json:"schedules,omitempty"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
	// Catalog maps human-readable model names (usable in !add_ai) to provider
	// names. Merged over the built-in catalog.
	Catalog map[string]string `json:"catalog,omitempty"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver"` // "anthropic", "openai", "ollama", "gemini"
	Model     string         `json:"model"`
	BaseURL   string         `json:"base_url,omitempty"`
	Auth      AuthConfig     `json:"auth"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // Direct key, ${ENV_VAR}, or ENC[age:...]
	Token  string `json:"token,omitempty"`   // OAuth/Bearer token
}

// ConversationConfig holds defaults for the turn scheduler. Scenario files
// may override any of these per conversation.
type ConversationConfig struct {
	TurnDelay      Duration `json:"turn_delay"`
	TurnTimeout    Duration `json:"turn_timeout"`
	MaxTurns       int      `json:"max_turns"`       // 0 = unlimited
	WindowSize     int      `json:"window_size"`     // transcript messages per prompt
	KeepReasoning  *bool    `json:"keep_reasoning"`  // keep chain of thought in history
	ShareReasoning bool     `json:"share_reasoning"` // expose reasoning across agents
	StripCommands  bool     `json:"strip_commands"`  // strip !commands from stored text
	CancelPolicy   string   `json:"cancel_policy"`   // "retry-once-then-skip", "retry", "skip"
}

// KeepReasoningEnabled returns the keep_reasoning switch with its default (true).
func (c ConversationConfig) KeepReasoningEnabled() bool {
	if c.KeepReasoning == nil {
		return true
	}
	return *c.KeepReasoning
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// MediaConfig configures image/video generation.
type MediaConfig struct {
	ImageModel string     `json:"image_model"`
	VideoModel string     `json:"video_model"`
	Dir        string     `json:"dir,omitempty"`
	MaxAge     Duration   `json:"max_age,omitempty"` // generated files older than this are cleaned up
	Auth       AuthConfig `json:"auth"`
}

// GatewayConfig holds the observer gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ScheduleConfig starts a named scenario on a cron schedule.
type ScheduleConfig struct {
	Cron     string `json:"cron"`
	Scenario string `json:"scenario"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
