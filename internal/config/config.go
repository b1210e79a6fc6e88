package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Search SearchConfig `yaml:"search"`
}

type LLMConfig struct {
	QueryModel      string  `yaml:"query_model"`
	AnswerModel     string  `yaml:"answer_model"`
	Temperature     float64 `yaml:"temperature"`
	MaxQueryTokens  int64   `yaml:"max_query_tokens"`
	MaxAnswerTokens int64   `yaml:"max_answer_tokens"`
	BaseURL         string  `yaml:"base_url,omitempty"`
}

type SearchConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	BaseURL        string `yaml:"base_url,omitempty"`
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			QueryModel:      "gpt-4o-mini",
			AnswerModel:     "gpt-4o-mini",
			Temperature:     0.7,
			MaxQueryTokens:  120,
			MaxAnswerTokens: 600,
		},
		Search: SearchConfig{
			TimeoutSeconds: 30,
		},
	}
}

func Dir() string {
	if dir := os.Getenv("CHIRP_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chirp")
}

func configPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func Load() (*Config, error) {
	data, err := os.ReadFile(configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath(), data, 0644)
}

// Credentials are read from the environment only, never from config.yaml.
type Credentials struct {
	XUsername string
	XPassword string
	XEmail    string
	OpenAIKey string
}

// LoadCredentials reads credentials from the environment. X_EMAIL is
// optional; X only asks for it on a confirmation challenge.
func LoadCredentials() (*Credentials, error) {
	creds := &Credentials{
		XUsername: os.Getenv("X_USERNAME"),
		XPassword: os.Getenv("X_PASSWORD"),
		XEmail:    os.Getenv("X_EMAIL"),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
	}

	var missing []string
	if creds.XUsername == "" {
		missing = append(missing, "X_USERNAME")
	}
	if creds.XPassword == "" {
		missing = append(missing, "X_PASSWORD")
	}
	if creds.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing credentials: %s (set them in the environment or a .env file, see 'chirp init')", strings.Join(missing, ", "))
	}
	return creds, nil
}
