package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	fbReply = `{"text":"Post de Facebook","hashtags":["#fb"],"character_count":1,"tone":"cercano"}`
	igReply = "```json\n{\"text\":\"Post de Instagram\",\"hashtags\":[\"#ig\"],\"character_count\":1,\"tone\":\"visual\"}\n```"
)

func newTestTransformer(t *testing.T, llm LLMClient, opts ...TransformerOption) *Transformer {
	t.Helper()
	opts = append([]TransformerOption{WithLogger(zaptest.NewLogger(t))}, opts...)
	tr, err := NewTransformer(llm, DefaultProfileTable(), opts...)
	require.NoError(t, err)
	return tr
}

func TestNewTransformerRequiresDependencies(t *testing.T) {
	_, err := NewTransformer(nil, DefaultProfileTable())
	assert.Error(t, err)
	_, err = NewTransformer(&ScriptedLLM{}, nil)
	assert.Error(t, err)
}

func TestTransformAllIsolatesUnsupportedPlatform(t *testing.T) {
	llm := &ScriptedLLM{Rules: []ScriptRule{
		{Match: "para facebook:", Reply: fbReply},
		{Match: "para instagram:", Reply: igReply},
	}}
	for _, workers := range []int{1, 3} {
		tr := newTestTransformer(t, llm, WithConcurrency(workers))

		res, err := tr.TransformAll(context.Background(), "Launch", "material", []string{"facebook", "bogus", "instagram"})
		require.NoError(t, err)

		assert.Len(t, res.Successes, 2)
		assert.Equal(t, "Post de Facebook", res.Successes["facebook"].Body().Text)
		assert.Equal(t, 17, res.Successes["instagram"].Body().CharacterCount)
		require.Contains(t, res.Errors, "bogus")
		assert.Contains(t, res.Errors["bogus"], "platform not supported")
		assert.Len(t, res.Errors, 1)
	}
}

func TestTransformAllPartialFailure(t *testing.T) {
	llm := &ScriptedLLM{Rules: []ScriptRule{
		{Match: "para facebook:", Reply: fbReply},
		{Match: "para linkedin:", Err: errors.New("connection reset")},
		{Match: "para tiktok:", Reply: "no JSON at all"},
		{Match: "para whatsapp:", Reply: `{"hashtags":[]}`},
	}}
	tr := newTestTransformer(t, llm, WithConcurrency(4))

	requested := []string{"facebook", "linkedin", "tiktok", "whatsapp"}
	res, err := tr.TransformAll(context.Background(), "h", "m", requested)
	require.NoError(t, err)

	for _, id := range requested {
		_, ok := res.Successes[id]
		_, failed := res.Errors[id]
		assert.True(t, ok != failed, "%s must be in exactly one map", id)
	}
	assert.Contains(t, res.Successes, "facebook")
	assert.Contains(t, res.Errors["linkedin"], "generation failed for linkedin")
	assert.Contains(t, res.Errors["tiktok"], "malformed response for tiktok")
	assert.Contains(t, res.Errors["whatsapp"], `missing "text" field`)
}

func TestTransformAllInstagramWithoutImagePrompt(t *testing.T) {
	llm := &ScriptedLLM{Fallback: ScriptRule{Reply: `{"text":"Launch day","hashtags":[],"tone":"x"}`}}
	tr := newTestTransformer(t, llm)

	res, err := tr.TransformAll(context.Background(), "Launch", "...", []string{"instagram"})
	require.NoError(t, err)
	post := res.Successes["instagram"]
	require.NotNil(t, post)
	prompt, ok := ImagePrompt(post)
	assert.False(t, ok)
	assert.Empty(t, prompt)
}

func TestTransformAllPreconditions(t *testing.T) {
	tr := newTestTransformer(t, &ScriptedLLM{})

	_, err := tr.TransformAll(context.Background(), "h", "m", nil)
	assert.ErrorIs(t, err, ErrNoPlatforms)

	res, err := tr.TransformAll(context.Background(), "h", "m", []string{"myspace", "Facebook"})
	assert.ErrorIs(t, err, ErrNoSupportedPlatform)
	assert.Len(t, res.Errors, 2)
	assert.Empty(t, res.Successes)
	assert.Empty(t, tr.llm.(*ScriptedLLM).Calls())
}

func TestTransformAllDeduplicates(t *testing.T) {
	llm := &ScriptedLLM{Fallback: ScriptRule{Reply: fbReply}}
	tr := newTestTransformer(t, llm)

	res, err := tr.TransformAll(context.Background(), "h", "m", []string{"facebook", "facebook"})
	require.NoError(t, err)
	assert.Len(t, res.Successes, 1)
	assert.Len(t, llm.Calls(), 1)
}

func TestTransformUsesProfileCreativity(t *testing.T) {
	llm := &ScriptedLLM{Fallback: ScriptRule{Reply: fbReply}}
	tr := newTestTransformer(t, llm)

	_, err := tr.TransformAll(context.Background(), "h", "m", []string{"tiktok"})
	require.NoError(t, err)
	calls := llm.Calls()
	require.Len(t, calls, 1)
	assert.InDelta(t, 0.9, calls[0].Temperature, 1e-9)
	assert.Contains(t, calls[0].User, "4000 caracteres")
}

func TestTransformWarningsAndStrictLimits(t *testing.T) {
	long := `{"text":"` + strings.Repeat("x", 2300) + `","hashtags":[],"tone":"x"}`
	llm := &ScriptedLLM{Fallback: ScriptRule{Reply: long}}

	soft := newTestTransformer(t, llm)
	res, err := soft.TransformAll(context.Background(), "h", "m", []string{"instagram", "linkedin"})
	require.NoError(t, err)
	assert.Contains(t, res.Successes, "instagram")
	assert.Contains(t, res.Successes, "linkedin")
	assert.Len(t, res.Warnings["instagram"], 1)
	assert.NotContains(t, res.Warnings, "linkedin")

	strict := newTestTransformer(t, llm, WithStrictLimits(true))
	res, err = strict.TransformAll(context.Background(), "h", "m", []string{"instagram", "linkedin"})
	require.NoError(t, err)
	assert.Contains(t, res.Errors["instagram"], "limit is 2200")
	assert.Contains(t, res.Successes, "linkedin")
}

func TestTransformCancelledContext(t *testing.T) {
	llm := &ScriptedLLM{Fallback: ScriptRule{Reply: fbReply}}
	tr := newTestTransformer(t, llm, WithConcurrency(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := tr.TransformAll(ctx, "h", "m", []string{"facebook", "instagram"})
	require.NoError(t, err)
	assert.Empty(t, res.Successes)
	assert.Len(t, res.Errors, 2)
}
