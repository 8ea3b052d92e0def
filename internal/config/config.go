package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidYAML     = errors.New("invalid config YAML")
	ErrInvalidProvider = errors.New("llm.provider must be \"openai\" or \"ollama\"")
	ErrInvalidStore    = errors.New("studio.store must be \"json\" or \"sqlite\"")
	ErrInvalidBudget   = errors.New("llm.max_prompt_tokens must not be negative")
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Config holds the Script Studio configuration shared by the server and the
// terminal studio.
type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Studio StudioConfig `yaml:"studio"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LLMConfig points the gateway at a chat-completion provider. An empty APIKey
// is valid here; the service reports itself unavailable at request time.
type LLMConfig struct {
	Provider        string `yaml:"provider"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"api_key"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"` // 0 disables the budget
}

type StudioConfig struct {
	APIURL    string `yaml:"api_url"`
	Store     string `yaml:"store"`
	StorePath string `yaml:"store_path"`
	LogFile   string `yaml:"log_file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultPath returns ~/.config/scriptstudio/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "scriptstudio", "config.yaml"), nil
}

// Load reads the default config file (if any) and applies environment
// overrides.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the defaults so
// the server can run from environment variables alone.
func LoadFrom(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(target *string, keys ...string) {
		for _, key := range keys {
			if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
				*target = strings.TrimSpace(value)
				return
			}
		}
	}

	if port, ok := lookup("PORT"); ok && strings.TrimSpace(port) != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(strings.TrimSpace(port), ":")
	}
	set(&c.LLM.Provider, "SCRIPTSTUDIO_PROVIDER")
	set(&c.Log.Level, "SCRIPTSTUDIO_LOG_LEVEL")
	set(&c.Studio.APIURL, "SCRIPTSTUDIO_API_URL")
	set(&c.Studio.Store, "SCRIPTSTUDIO_STORE")
	set(&c.Studio.StorePath, "SCRIPTSTUDIO_STORE_PATH")

	if value, ok := lookup("SCRIPTSTUDIO_MAX_PROMPT_TOKENS"); ok && strings.TrimSpace(value) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("SCRIPTSTUDIO_MAX_PROMPT_TOKENS: %w", err)
		}
		c.LLM.MaxPromptTokens = n
	}

	if strings.EqualFold(c.LLM.Provider, ProviderOllama) {
		set(&c.LLM.BaseURL, "OLLAMA_HOST")
		set(&c.LLM.Model, "OLLAMA_MODEL")
		return nil
	}
	set(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	set(&c.LLM.Model, "OPENAI_MODEL")
	set(&c.LLM.APIKey, "OPENAI_API_KEY")
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}
	if c.Studio.APIURL == "" {
		c.Studio.APIURL = "http://localhost:8080"
	}
	c.Studio.APIURL = strings.TrimRight(c.Studio.APIURL, "/")
	c.Studio.Store = strings.ToLower(strings.TrimSpace(c.Studio.Store))
	if c.Studio.Store == "" {
		c.Studio.Store = StoreJSON
	}
	if c.Studio.StorePath == "" || c.Studio.LogFile == "" {
		dir := studioDataDir()
		if c.Studio.StorePath == "" {
			name := "session.json"
			if c.Studio.Store == StoreSQLite {
				name = "session.db"
			}
			c.Studio.StorePath = filepath.Join(dir, name)
		}
		if c.Studio.LogFile == "" {
			c.Studio.LogFile = filepath.Join(dir, "studio.log")
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return ErrInvalidProvider
	}
	switch c.Studio.Store {
	case StoreJSON, StoreSQLite:
	default:
		return ErrInvalidStore
	}
	if c.LLM.MaxPromptTokens < 0 {
		return ErrInvalidBudget
	}
	return nil
}

func studioDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "scriptstudio")
}
