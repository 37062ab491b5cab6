package generator

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileFor(t *testing.T, id string) Profile {
	t.Helper()
	p, err := DefaultProfileTable().Lookup(id)
	require.NoError(t, err)
	return p
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around fence", "Sure! ```json\n{\"a\":1}\n``` hope it helps", `{"a":1}`},
		{"json fence after bare fence", "Nota:\n```\nuse utf-8\n```\nResultado:\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{"upper-case json fence", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"prose around braces", `Here you go: {"a":{"b":2}} thanks`, `{"a":{"b":2}}`},
		{"no json", "no braces here", "no braces here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.raw))
		})
	}
}

func TestNormalizeRecomputesCharacterCount(t *testing.T) {
	raw := "Sure! ```json\n{\"text\":\"Hello world\",\"hashtags\":[],\"character_count\":999,\"tone\":\"upbeat\"}\n```"
	post, warnings, err := Normalize(raw, profileFor(t, "facebook"))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	body := post.Body()
	assert.Equal(t, "Hello world", body.Text)
	assert.Equal(t, 11, body.CharacterCount)
	assert.Equal(t, "upbeat", body.Tone)
	assert.Empty(t, body.Hashtags)
	assert.IsType(t, StandardPost{}, post)
}

func TestNormalizeCountsCharactersNotBytes(t *testing.T) {
	raw := `{"text":"¡Café y más! 🚀","hashtags":["#café"],"character_count":"número","tone":"x"}`
	post, _, err := Normalize(raw, profileFor(t, "whatsapp"))
	require.NoError(t, err)
	body := post.Body()
	assert.Equal(t, utf8.RuneCountInString(body.Text), body.CharacterCount)
	assert.Equal(t, 14, body.CharacterCount)
}

func TestNormalizeFenceIdempotence(t *testing.T) {
	obj := `{"text":"Lanzamiento","hashtags":["#a","#b"],"character_count":3,"tone":"alegre","suggested_image_prompt":"foto"}`
	profile := profileFor(t, "instagram")

	plain, _, err := Normalize(obj, profile)
	require.NoError(t, err)
	fenced, _, err := Normalize("```json\n"+obj+"\n```", profile)
	require.NoError(t, err)
	assert.Equal(t, plain, fenced)
}

func TestNormalizeVariants(t *testing.T) {
	obj := `{"text":"t","hashtags":[],"tone":"x","suggested_image_prompt":"img","suggested_video_prompt":"vid"}`

	ig, _, err := Normalize(obj, profileFor(t, "instagram"))
	require.NoError(t, err)
	prompt, ok := ImagePrompt(ig)
	assert.True(t, ok)
	assert.Equal(t, "img", prompt)
	_, ok = VideoPrompt(ig)
	assert.False(t, ok)

	tk, _, err := Normalize(obj, profileFor(t, "tiktok"))
	require.NoError(t, err)
	prompt, ok = VideoPrompt(tk)
	assert.True(t, ok)
	assert.Equal(t, "vid", prompt)

	fb, _, err := Normalize(obj, profileFor(t, "facebook"))
	require.NoError(t, err)
	_, ok = ImagePrompt(fb)
	assert.False(t, ok)
}

func TestNormalizeMissingImagePromptIsAbsent(t *testing.T) {
	post, _, err := Normalize(`{"text":"Launch","hashtags":[],"tone":"x"}`, profileFor(t, "instagram"))
	require.NoError(t, err)
	assert.IsType(t, ImagePost{}, post)
	_, ok := ImagePrompt(post)
	assert.False(t, ok)
}

func TestNormalizeSoftLimit(t *testing.T) {
	long := strings.Repeat("a", 2201)
	post, warnings, err := Normalize(`{"text":"`+long+`","hashtags":[],"tone":"x"}`, profileFor(t, "instagram"))
	require.NoError(t, err)
	assert.Equal(t, 2201, post.Body().CharacterCount)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "2201 > 2200")
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I cannot help with that"},
		{"broken json", `{"text": "unterminated`},
		{"missing text", `{"hashtags":[],"tone":"x"}`},
		{"null text", `{"text":null}`},
		{"array", `[1,2,3]`},
		{"bad hashtags", `{"text":"t","hashtags":{"a":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.raw, profileFor(t, "linkedin"))
			var me *MalformedResponseError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, "linkedin", me.Platform)
			assert.Contains(t, err.Error(), "linkedin")
		})
	}
}

func TestNormalizeHashtagString(t *testing.T) {
	post, _, err := Normalize(`{"text":"t","hashtags":"#uno #dos","tone":"x"}`, profileFor(t, "facebook"))
	require.NoError(t, err)
	assert.Equal(t, []string{"#uno", "#dos"}, post.Body().Hashtags)
}
