package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath   = "config/config.yaml"
	configPathEnv = "SOCIAL_PUBLISHER_CONFIG"
)

// Config holds every setting of the publisher. It is loaded once and handed to
// components at construction time.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Meta       MetaConfig       `yaml:"meta"`
	LinkedIn   LinkedInConfig   `yaml:"linkedin"`
	Images     ImagesConfig     `yaml:"images"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LLMConfig describes the OpenAI-compatible model endpoint.
type LLMConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	MaxTokens  int    `yaml:"max_tokens"`
	ImageModel string `yaml:"image_model"`
}

// GenerationConfig tunes the multi-platform transformation.
type GenerationConfig struct {
	Concurrency  int                         `yaml:"concurrency"`
	StrictLimits bool                        `yaml:"strict_limits"`
	Platforms    map[string]PlatformOverride `yaml:"platforms,omitempty"`
}

// PlatformOverride replaces the built-in limit or creativity of one platform.
type PlatformOverride struct {
	CharacterLimit int      `yaml:"character_limit,omitempty"`
	Creativity     *float64 `yaml:"creativity,omitempty"`
}

// MetaConfig wires the Facebook page and Instagram business account.
type MetaConfig struct {
	GraphURL        string `yaml:"graph_url"`
	GraphVersion    string `yaml:"graph_version"`
	PageID          string `yaml:"page_id"`
	IGUserID        string `yaml:"ig_user_id"`
	PageAccessToken string `yaml:"page_access_token,omitempty"`
}

// BaseURL joins the Graph host and API version.
func (m MetaConfig) BaseURL() string {
	return strings.TrimRight(m.GraphURL, "/") + "/" + strings.Trim(m.GraphVersion, "/")
}

// LinkedInConfig wires the LinkedIn v2 API.
type LinkedInConfig struct {
	APIURL      string `yaml:"api_url"`
	AccessToken string `yaml:"access_token,omitempty"`
	PersonalID  string `yaml:"personal_id"`
	OrgID       string `yaml:"org_id"`
	ClientID    string `yaml:"client_id"`
}

// ImagesConfig controls where generated images are staged before rehosting.
type ImagesConfig struct {
	TempDir         string        `yaml:"temp_dir"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-3.5-turbo",
			MaxTokens:  1000,
			ImageModel: "dall-e-3",
		},
		Generation: GenerationConfig{Concurrency: 3},
		Meta: MetaConfig{
			GraphURL:     "https://graph.facebook.com",
			GraphVersion: "v19.0",
		},
		LinkedIn: LinkedInConfig{APIURL: "https://api.linkedin.com/v2"},
		Images: ImagesConfig{
			TempDir:         "temp_images",
			DownloadTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			RequestTimeout: 120 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// ResolvePath picks the explicit path, then SOCIAL_PUBLISHER_CONFIG, then DefaultPath.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(configPathEnv); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads YAML on top of the defaults and applies environment overrides.
// A missing file is not an error; the defaults and environment are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"OPENAI_API_KEY", &c.LLM.APIKey},
		{"OPENAI_MODEL", &c.LLM.Model},
		{"OPENAI_BASE_URL", &c.LLM.BaseURL},
		{"PAGE_ID", &c.Meta.PageID},
		{"IG_USER_ID", &c.Meta.IGUserID},
		{"PAGE_ACCESS_TOKEN", &c.Meta.PageAccessToken},
		{"LINKEDIN_ACCESS_TOKEN", &c.LinkedIn.AccessToken},
		{"LINKEDIN_PERSONAL_ID", &c.LinkedIn.PersonalID},
		{"LINKEDIN_ORG_ID", &c.LinkedIn.OrgID},
		{"LINKEDIN_CLIENT_ID", &c.LinkedIn.ClientID},
		{"SERVER_ADDR", &c.Server.Addr},
		{"LOG_LEVEL", &c.Logging.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// Validate checks what every command needs. Publishing credentials are
// checked by the publishers when they are used.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "mock":
	case "openai", "deepseek":
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key (or OPENAI_API_KEY) is required")
		}
		if c.LLM.Model == "" {
			return errors.New("llm.model is required")
		}
		// DeepSeek exposes an OpenAI-compatible API and needs its endpoint.
		if c.LLM.Provider == "deepseek" && c.LLM.BaseURL == "" {
			return errors.New("llm provider deepseek requires base_url")
		}
	case "":
		return errors.New("llm.provider is required")
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.Generation.Concurrency < 1 {
		return fmt.Errorf("generation.concurrency must be >= 1, got %d", c.Generation.Concurrency)
	}
	for id, o := range c.Generation.Platforms {
		if o.CharacterLimit < 0 {
			return fmt.Errorf("generation.platforms.%s: negative character_limit", id)
		}
		if o.Creativity != nil && (*o.Creativity < 0 || *o.Creativity > 1) {
			return fmt.Errorf("generation.platforms.%s: creativity must be within [0,1]", id)
		}
	}
	return nil
}
