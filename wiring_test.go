package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"social_post_publisher/config"
	"social_post_publisher/generator"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildLLM(t *testing.T) {
	llm, err := buildLLM(config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, generator.MockLLM{}, llm)

	llm, err = buildLLM(config.LLMConfig{Provider: "openai", Model: "gpt-3.5-turbo", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &generator.OpenAILLM{}, llm)

	_, err = buildLLM(config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"})
	assert.ErrorContains(t, err, "base_url")

	_, err = buildLLM(config.LLMConfig{Provider: "anthropic"})
	assert.ErrorContains(t, err, "not supported")
}

func TestBuildProfiles(t *testing.T) {
	table, err := buildProfiles(nil)
	require.NoError(t, err)
	assert.Len(t, table.Platforms(), 5)

	table, err = buildProfiles(map[string]config.PlatformOverride{
		"linkedin": {CharacterLimit: 1300},
		"tiktok":   {Creativity: floatPtr(0.4)},
		"threads":  {CharacterLimit: 500, Creativity: floatPtr(0.6)},
	})
	require.NoError(t, err)

	li, err := table.Lookup("linkedin")
	require.NoError(t, err)
	assert.Equal(t, 1300, li.CharacterLimit)
	assert.InDelta(t, 0.5, li.Creativity, 1e-9)

	tt, err := table.Lookup("tiktok")
	require.NoError(t, err)
	assert.Equal(t, 4000, tt.CharacterLimit)
	assert.InDelta(t, 0.4, tt.Creativity, 1e-9)

	th, err := table.Lookup("threads")
	require.NoError(t, err)
	assert.Equal(t, 500, th.CharacterLimit)
}

func TestBuildProfilesRejectsIncompletePlatform(t *testing.T) {
	_, err := buildProfiles(map[string]config.PlatformOverride{"threads": {CharacterLimit: 500}})
	assert.Error(t, err)
	_, err = buildProfiles(map[string]config.PlatformOverride{"facebook": {Creativity: floatPtr(1.5)}})
	assert.Error(t, err)
}

func TestBuildAppWithMockProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mock"
	a, err := buildApp(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, a.transformer)
	assert.NotNil(t, a.content)
	assert.NotNil(t, a.commands)

	srv, err := a.server()
	require.NoError(t, err)
	assert.NotNil(t, srv.Routes())
}

func TestBuildAppValidates(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = ""
	_, err := buildApp(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestImageStudioOnlyForOpenAI(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mock"
	assert.Nil(t, buildImageStudio(cfg, nil, zaptest.NewLogger(t)))

	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "k"
	assert.NotNil(t, buildImageStudio(cfg, nil, zaptest.NewLogger(t)))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: mock\nlogging:\n  level: error\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", path}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLITransform(t *testing.T) {
	out, err := runCLI(t, "transform", "--heading", "Café", "--material", "Nuevo tueste", "--platforms", "facebook,tiktok,myspace")
	require.NoError(t, err)

	var result struct {
		Successes map[string]map[string]any `json:"successes"`
		Errors    map[string]string         `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Contains(t, result.Successes, "facebook")
	assert.Equal(t, "video corto sobre Café", result.Successes["tiktok"]["suggested_video_prompt"])
	assert.Contains(t, result.Errors["myspace"], "platform not supported")
}

func TestCLIDiagnostics(t *testing.T) {
	out, err := runCLI(t, "diagnostics")
	require.NoError(t, err)
	assert.Contains(t, out, `"supported_platforms"`)
	assert.Contains(t, out, `"ig_user_id_valid": false`)
}
