package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config stores runtime configuration for the complaint desktop app and CLI.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Pincode  PincodeConfig  `toml:"pincode"`
	Audio    AudioConfig    `toml:"audio"`
	Transfer TransferConfig `toml:"transfer"`
	Wizard   WizardConfig   `toml:"wizard"`
	Identity IdentityConfig `toml:"identity"`
	State    StateConfig    `toml:"state"`
	Log      LogConfig      `toml:"log"`

	// Path is the config file that was read, empty when none existed.
	Path string `toml:"-"`
}

type BackendConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

type PincodeConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

type AudioConfig struct {
	RecorderCommand string `toml:"recorder_command"`
	PlayerCommand   string `toml:"player_command"`
	InputFormat     string `toml:"input_format"`
	InputDevice     string `toml:"input_device"`
	SampleRate      int    `toml:"sample_rate"`
	Channels        int    `toml:"channels"`
	ChunkSize       int    `toml:"chunk_size"`
}

type TransferConfig struct {
	StepPercent int           `toml:"step_percent"`
	Interval    time.Duration `toml:"interval"`
}

type WizardConfig struct {
	RedirectDelay time.Duration `toml:"redirect_delay"`
	NotifyTimeout time.Duration `toml:"notify_timeout"`
}

type IdentityConfig struct {
	ID          string `toml:"id"`
	DisplayName string `toml:"display_name"`
	Phone       string `toml:"phone"`
	Email       string `toml:"email"`
}

type StateConfig struct {
	Dir string `toml:"dir"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Load resolves configuration from defaults, then the optional TOML file,
// then environment variables.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := defaults(home)

	path := filePath(home)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		cfg.Path = path
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	applyEnv(&cfg)
	normalize(&cfg, home)
	return cfg, nil
}

func defaults(home string) Config {
	return Config{
		Backend: BackendConfig{Timeout: 60 * time.Second},
		Pincode: PincodeConfig{
			BaseURL: "https://api.postalpincode.in",
			Timeout: 10 * time.Second,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			PlayerCommand:   "ffplay",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      16000,
			Channels:        1,
			ChunkSize:       4096,
		},
		Transfer: TransferConfig{StepPercent: 10, Interval: 200 * time.Millisecond},
		Wizard:   WizardConfig{RedirectDelay: time.Second, NotifyTimeout: 15 * time.Second},
		State:    StateConfig{Dir: defaultStateDir(home)},
		Log:      LogConfig{Level: "info"},
	}
}

func filePath(home string) string {
	if explicit := strings.TrimSpace(os.Getenv("VOICECOMPLAINT_CONFIG")); explicit != "" {
		return explicit
	}
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "voicecomplaint", "config.toml")
}

func defaultStateDir(home string) string {
	base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if base == "" {
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "voicecomplaint")
}

func applyEnv(cfg *Config) {
	cfg.Backend.BaseURL = envOrDefault("VOICECOMPLAINT_BACKEND_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = envOrDefaultDuration("VOICECOMPLAINT_BACKEND_TIMEOUT_MS", cfg.Backend.Timeout)
	cfg.Pincode.BaseURL = envOrDefault("VOICECOMPLAINT_PINCODE_URL", cfg.Pincode.BaseURL)
	cfg.Pincode.Timeout = envOrDefaultDuration("VOICECOMPLAINT_PINCODE_TIMEOUT_MS", cfg.Pincode.Timeout)

	cfg.Audio.RecorderCommand = envOrDefault("VOICECOMPLAINT_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.PlayerCommand = envOrDefault("VOICECOMPLAINT_FFPLAY_COMMAND", cfg.Audio.PlayerCommand)
	cfg.Audio.InputFormat = envOrDefault("VOICECOMPLAINT_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = envOrDefault("VOICECOMPLAINT_AUDIO_INPUT_DEVICE", cfg.Audio.InputDevice)
	cfg.Audio.SampleRate = envOrDefaultInt("VOICECOMPLAINT_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("VOICECOMPLAINT_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.ChunkSize = envOrDefaultInt("VOICECOMPLAINT_AUDIO_CHUNK_SIZE", cfg.Audio.ChunkSize)

	cfg.Transfer.StepPercent = envOrDefaultInt("VOICECOMPLAINT_TRANSFER_STEP", cfg.Transfer.StepPercent)
	cfg.Transfer.Interval = envOrDefaultDuration("VOICECOMPLAINT_TRANSFER_INTERVAL_MS", cfg.Transfer.Interval)
	cfg.Wizard.RedirectDelay = envOrDefaultDuration("VOICECOMPLAINT_REDIRECT_DELAY_MS", cfg.Wizard.RedirectDelay)
	cfg.Wizard.NotifyTimeout = envOrDefaultDuration("VOICECOMPLAINT_NOTIFY_TIMEOUT_MS", cfg.Wizard.NotifyTimeout)

	cfg.Identity.ID = envOrDefault("VOICECOMPLAINT_USER_ID", cfg.Identity.ID)
	cfg.Identity.DisplayName = envOrDefault("VOICECOMPLAINT_USER_NAME", cfg.Identity.DisplayName)
	cfg.Identity.Phone = envOrDefault("VOICECOMPLAINT_USER_PHONE", cfg.Identity.Phone)
	cfg.Identity.Email = envOrDefault("VOICECOMPLAINT_USER_EMAIL", cfg.Identity.Email)

	cfg.State.Dir = envOrDefault("VOICECOMPLAINT_STATE_DIR", cfg.State.Dir)
	cfg.Log.Level = envOrDefault("VOICECOMPLAINT_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = envOrDefaultBool("VOICECOMPLAINT_LOG_PRETTY", cfg.Log.Pretty)
}

func normalize(cfg *Config, home string) {
	fallback := defaults(home)

	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = fallback.Backend.Timeout
	}
	if strings.TrimSpace(cfg.Pincode.BaseURL) == "" {
		cfg.Pincode.BaseURL = fallback.Pincode.BaseURL
	}
	if cfg.Pincode.Timeout <= 0 {
		cfg.Pincode.Timeout = fallback.Pincode.Timeout
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = fallback.Audio.SampleRate
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = fallback.Audio.Channels
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = fallback.Audio.ChunkSize
	}
	if cfg.Transfer.StepPercent <= 0 || cfg.Transfer.StepPercent > 100 {
		cfg.Transfer.StepPercent = fallback.Transfer.StepPercent
	}
	if cfg.Transfer.Interval <= 0 {
		cfg.Transfer.Interval = fallback.Transfer.Interval
	}
	if cfg.Wizard.RedirectDelay <= 0 {
		cfg.Wizard.RedirectDelay = fallback.Wizard.RedirectDelay
	}
	if cfg.Wizard.NotifyTimeout <= 0 {
		cfg.Wizard.NotifyTimeout = fallback.Wizard.NotifyTimeout
	}
	if strings.TrimSpace(cfg.State.Dir) == "" {
		cfg.State.Dir = fallback.State.Dir
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = fallback.Log.Level
	}
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
