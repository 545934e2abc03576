package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Audio      AudioConfig      `yaml:"audio"`
	UI         UIConfig         `yaml:"ui"`
	Hotkey     HotkeyConfig     `yaml:"hotkey"`
	LogLevel   string           `yaml:"log_level"`
	LogDir     string           `yaml:"log_dir"`
}

// LLMConfig holds settings for the local LLM runtime.
type LLMConfig struct {
	Host    string        `yaml:"host"`
	Model   string        `yaml:"model"`
	Models  []string      `yaml:"models"`
	Timeout time.Duration `yaml:"timeout"` // 0 = wait forever
}

// TranscribeConfig holds whisper settings.
type TranscribeConfig struct {
	ModelsDir    string   `yaml:"models_dir"`
	ModelSize    string   `yaml:"model_size"`
	Sizes        []string `yaml:"sizes"`
	AutoDownload bool     `yaml:"auto_download"`
	Language     string   `yaml:"language"` // whisper language code, "auto", or empty for the model default
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
	Device     string `yaml:"device"` // empty = system default
}

// UIConfig holds display settings.
type UIConfig struct {
	FontFamily string            `yaml:"font_family"`
	FontSize   int               `yaml:"font_size"`
	Fonts      []string          `yaml:"fonts"`
	FontFiles  map[string]string `yaml:"font_files"` // family -> .ttf path
}

// HotkeyConfig holds global hotkey settings.
type HotkeyConfig struct {
	Enabled bool     `yaml:"enabled"`
	Keys    []string `yaml:"keys"`
	Mode    string   `yaml:"mode"`   // "hold" or "toggle"
	Inject  string   `yaml:"inject"` // "", "type" or "paste": also send hotkey answers to the focused app
}

const (
	MinFontSize = 8
	MaxFontSize = 24

	// CaptureSampleRate is the rate whisper.cpp expects; recordings are
	// captured at it directly, in mono.
	CaptureSampleRate = 16000
)

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "voxprompt")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the directory whisper models are stored in.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "models")
	}
	return filepath.Join(home, ".local", "share", "voxprompt", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Host:   "http://localhost:11434",
			Model:  "llama3",
			Models: []string{"llama3", "mistral", "gemma", "codellama"},
		},
		Transcribe: TranscribeConfig{
			ModelsDir:    DefaultModelsDir(),
			ModelSize:    "base",
			Sizes:        []string{"tiny", "base", "small", "medium", "large"},
			AutoDownload: true,
		},
		Audio: AudioConfig{
			SampleRate: CaptureSampleRate,
			Channels:   1,
		},
		UI: UIConfig{
			FontFamily: "Default",
			FontSize:   12,
			Fonts:      []string{"Default", "Monospace", "Bold", "Italic"},
		},
		Hotkey: HotkeyConfig{
			Enabled: false,
			Keys:    []string{"ctrl", "shift", "space"},
			Mode:    "toggle",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Transcribe.ModelsDir = expandTilde(cfg.Transcribe.ModelsDir)
	cfg.LogDir = expandTilde(cfg.LogDir)
	for family, p := range cfg.UI.FontFiles {
		cfg.UI.FontFiles[family] = expandTilde(p)
	}

	return cfg, nil
}

const configHeader = "# voxprompt configuration\n# Edit and restart voxprompt to apply changes.\n\n"

// WriteDefault writes the default config to DefaultConfigPath. It returns the
// written path, or "" if a config file already exists there.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// LoadEnv loads a .env file from the working directory when one is present
// and applies the environment overrides on top of cfg. A missing .env file is
// not an error.
func (c *Config) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	c.ApplyEnv()
	return nil
}

// ApplyEnv overrides config values from the process environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		c.LLM.Host = v
	}
	if v := os.Getenv("VOXPROMPT_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("VOXPROMPT_WHISPER_SIZE"); v != "" {
		c.Transcribe.ModelSize = v
	}
	if v := os.Getenv("VOXPROMPT_LOG_PATH"); v != "" {
		c.LogDir = v
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.LLM.Host == "" {
		return fmt.Errorf("llm.host must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must be >= 0")
	}

	if c.Transcribe.ModelsDir == "" {
		return fmt.Errorf("transcribe.models_dir must not be empty")
	}
	if len(c.Transcribe.Sizes) == 0 {
		return fmt.Errorf("transcribe.sizes must not be empty")
	}
	if !slices.Contains(c.Transcribe.Sizes, c.Transcribe.ModelSize) {
		return fmt.Errorf("transcribe.model_size %q is not one of %v", c.Transcribe.ModelSize, c.Transcribe.Sizes)
	}

	if c.Audio.SampleRate != CaptureSampleRate {
		return fmt.Errorf("audio.sample_rate must be %d (whisper input rate), got %d", CaptureSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 {
		return fmt.Errorf("audio.channels must be 1, got %d", c.Audio.Channels)
	}

	if c.UI.FontSize < MinFontSize || c.UI.FontSize > MaxFontSize {
		return fmt.Errorf("ui.font_size must be between %d and %d, got %d", MinFontSize, MaxFontSize, c.UI.FontSize)
	}
	if len(c.UI.Fonts) == 0 {
		return fmt.Errorf("ui.fonts must not be empty")
	}

	if c.Hotkey.Enabled {
		if len(c.Hotkey.Keys) == 0 {
			return fmt.Errorf("hotkey.keys must not be empty")
		}
		switch c.Hotkey.Mode {
		case "hold", "toggle":
		default:
			return fmt.Errorf("hotkey.mode must be \"hold\" or \"toggle\", got %q", c.Hotkey.Mode)
		}
		switch c.Hotkey.Inject {
		case "", "type", "paste":
		default:
			return fmt.Errorf("hotkey.inject must be empty, \"type\" or \"paste\", got %q", c.Hotkey.Inject)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a config log level to a zerolog level. Unknown values
// fall back to info.
func ParseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
