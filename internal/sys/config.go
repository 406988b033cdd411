package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const dataDirName = ".chatassist"

// DefaultAssistantInstructions is sent when the assistant is first created.
const DefaultAssistantInstructions = "あなたは日本語でチャットの返事を書くのを手伝うアシスタントです。ユーザーの大まかな内容を整理し、適切で丁寧な返事を提案してください。\n\n" +
	"【重要な書式指定】\n" +
	"- 返信は1行開けることなく、行を詰めて短くまとめてください\n" +
	"- 無駄な改行を削除し、コンパクトに表示してください\n" +
	"- 返信文は簡潔に要点をまとめ、長文を避けてください\n" +
	"- 改行は必要最小限に留め、連続する改行は使用しないでください\n\n" +
	"【調査について】\n" +
	"- 調査が必要な場合は「最新情報を調べる必要があります」と明記してください\n" +
	"- 推測や一般的な知識のみで長文を書くことは避け、「詳細は公式ドキュメントをご確認ください」のように案内してください"

// Split ratio bounds for the reply pane.
const (
	MinSplitRatio = 0.2
	MaxSplitRatio = 0.8
)

// Config holds all configuration for chatassist
type Config struct {
	Model struct {
		Provider string `mapstructure:"provider"` // assistants|openai|github-models|ollama
		Endpoint string `mapstructure:"endpoint"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"model"`

	Assistant struct {
		Name         string `mapstructure:"name"`
		Instructions string `mapstructure:"instructions"`
	} `mapstructure:"assistant"`

	Prompt struct {
		Readability         bool   `mapstructure:"readability"`
		ProjectInstructions string `mapstructure:"project_instructions"`
	} `mapstructure:"prompt"`

	Session struct {
		GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
		PollInterval    time.Duration `mapstructure:"poll_interval"`
		RefreshDelay    time.Duration `mapstructure:"refresh_delay"`
	} `mapstructure:"session"`

	UI struct {
		Theme      string  `mapstructure:"theme"`
		SplitRatio float64 `mapstructure:"split_ratio"`
	} `mapstructure:"ui"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	DataDir string `mapstructure:"-"`
}

// DefaultConfig returns the built-in defaults without touching disk.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// ClampSplitRatio keeps the reply pane share inside the supported range.
func ClampSplitRatio(r float64) float64 {
	switch {
	case r < MinSplitRatio:
		return MinSplitRatio
	case r > MaxSplitRatio:
		return MaxSplitRatio
	default:
		return r
	}
}

// ConfigManager handles loading and saving configuration
type ConfigManager struct {
	mu      sync.Mutex
	v       *viper.Viper
	dataDir string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", "assistants")
	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.name", "gpt-4o")

	v.SetDefault("assistant.name", "Chat Assistant")
	v.SetDefault("assistant.instructions", DefaultAssistantInstructions)

	v.SetDefault("prompt.readability", true)
	v.SetDefault("prompt.project_instructions", "")

	v.SetDefault("session.generate_timeout", 120*time.Second)
	v.SetDefault("session.poll_interval", time.Second)
	v.SetDefault("session.refresh_delay", 500*time.Millisecond)

	v.SetDefault("ui.theme", "dark")
	v.SetDefault("ui.split_ratio", 0.4)

	v.SetDefault("log.level", "info")
}

// NewConfigManager initializes the configuration system
func NewConfigManager() (*ConfigManager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home dir: %w", err)
	}
	return NewConfigManagerAt(filepath.Join(home, dataDirName))
}

// NewConfigManagerAt is NewConfigManager rooted at an explicit data directory.
func NewConfigManagerAt(dataDir string) (*ConfigManager, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)

	// Create config file if it doesn't exist
	configPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := v.SafeWriteConfig(); err != nil {
			return nil, fmt.Errorf("writing initial config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return &ConfigManager{v: v, dataDir: dataDir}, nil
}

// Load returns the current configuration
func (cm *ConfigManager) Load() (*Config, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.UI.SplitRatio = ClampSplitRatio(cfg.UI.SplitRatio)
	cfg.DataDir = cm.dataDir
	return &cfg, nil
}

// Save persists the current configuration
func (cm *ConfigManager) Save(cfg *Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.v.Set("model.provider", cfg.Model.Provider)
	cm.v.Set("model.endpoint", cfg.Model.Endpoint)
	cm.v.Set("model.name", cfg.Model.Name)
	cm.v.Set("assistant.name", cfg.Assistant.Name)
	cm.v.Set("assistant.instructions", cfg.Assistant.Instructions)
	cm.v.Set("prompt.readability", cfg.Prompt.Readability)
	cm.v.Set("prompt.project_instructions", cfg.Prompt.ProjectInstructions)
	cm.v.Set("session.generate_timeout", cfg.Session.GenerateTimeout.String())
	cm.v.Set("session.poll_interval", cfg.Session.PollInterval.String())
	cm.v.Set("session.refresh_delay", cfg.Session.RefreshDelay.String())
	cm.v.Set("ui.theme", cfg.UI.Theme)
	cm.v.Set("ui.split_ratio", ClampSplitRatio(cfg.UI.SplitRatio))
	cm.v.Set("log.level", cfg.Log.Level)

	return cm.v.WriteConfig()
}

// Get returns a single raw key, for the config command.
func (cm *ConfigManager) Get(key string) any {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.v.Get(key)
}

// IsSet reports whether key is a known setting.
func (cm *ConfigManager) IsSet(key string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.v.IsSet(key)
}

// Set updates one key and writes the file.
func (cm *ConfigManager) Set(key string, value any) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.v.Set(key, value)
	return cm.v.WriteConfig()
}

// AllSettings returns every key with its current value.
func (cm *ConfigManager) AllSettings() map[string]any {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.v.AllSettings()
}

// Watch calls fn with the reloaded configuration each time the file is written.
// Reload errors are dropped; the previous configuration stays in effect.
func (cm *ConfigManager) Watch(fn func(*Config)) {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := cm.Load()
		if err != nil {
			return
		}
		fn(cfg)
	})
	cm.v.WatchConfig()
}

// GetDataPath returns a path inside the .chatassist directory
func (cm *ConfigManager) GetDataPath(subpath string) string {
	return filepath.Join(cm.dataDir, subpath)
}

// DataDir returns the root data directory.
func (cm *ConfigManager) DataDir() string {
	return cm.dataDir
}
