package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestKeywordIntent(t *testing.T) {
	tests := []struct {
		command   string
		platforms []Platform
		image     bool
	}{
		{"Publica en Facebook e Instagram sobre el evento", []Platform{Facebook, Instagram}, true},
		{"Post en FB sobre la oferta", []Platform{Facebook}, false},
		{"Comparte en LinkedIn el informe", []Platform{LinkedIn}, true},
		{"Sube a insta la foto del equipo", []Platform{Instagram}, true},
		{"Quiero publicar en todas las redes sobre tecnología", []Platform{Facebook, Instagram, LinkedIn}, true},
		{"Share on all platforms", []Platform{Facebook, Instagram, LinkedIn}, true},
		{"Quiero publicar en redes sobre tecnología", []Platform{Facebook, Instagram}, true},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got := KeywordIntent(tt.command)
			assert.ElementsMatch(t, tt.platforms, got.Platforms)
			assert.Equal(t, tt.image, got.NeedsImage)
			assert.Equal(t, tt.command, got.Content)
			assert.Equal(t, SourceKeywords, got.Source)
			assert.NotEmpty(t, got.Title)
			assert.NotEmpty(t, got.ImagePrompt)
		})
	}
}

func TestAnalyzeFallsBackWhenModelFails(t *testing.T) {
	llm := &ScriptedLLM{Fallback: ScriptRule{Err: errors.New("model down")}}
	a := NewAnalyzer(llm, zaptest.NewLogger(t))

	got := a.Analyze(context.Background(), "Publica en Facebook e Instagram sobre el evento")
	assert.ElementsMatch(t, []Platform{Facebook, Instagram}, got.Platforms)
	assert.True(t, got.NeedsImage)
	assert.Equal(t, SourceKeywords, got.Source)
}

func TestAnalyzeFallsBackOnUnparseableReply(t *testing.T) {
	for _, reply := range []string{"lo siento, no entiendo", `{"platforms":[],"title":"x"}`} {
		a := NewAnalyzer(&ScriptedLLM{Fallback: ScriptRule{Reply: reply}}, nil)
		got := a.Analyze(context.Background(), "Publica en LinkedIn sobre innovación")
		assert.Equal(t, []Platform{LinkedIn}, got.Platforms)
		assert.Equal(t, SourceKeywords, got.Source)
	}
}

func TestAnalyzeDropsUnknownPlatforms(t *testing.T) {
	reply := `{"platforms":["twitter","Facebook "],"title":"t","content":"c","needs_image":false}`
	got := NewAnalyzer(&ScriptedLLM{Fallback: ScriptRule{Reply: reply}}, nil).Analyze(context.Background(), "Publica en Twitter y Facebook")
	assert.Equal(t, []Platform{Facebook}, got.Platforms)
	assert.Equal(t, SourceModel, got.Source)
}

func TestAnalyzeFallsBackWhenOnlyUnknownPlatforms(t *testing.T) {
	reply := `{"platforms":["twitter"],"title":"t","content":"c","needs_image":false}`
	got := NewAnalyzer(&ScriptedLLM{Fallback: ScriptRule{Reply: reply}}, nil).Analyze(context.Background(), "Publica en twitter y LinkedIn")
	assert.Equal(t, []Platform{LinkedIn}, got.Platforms)
	assert.Equal(t, SourceKeywords, got.Source)
}

func TestAnalyzeUsesConfiguredProfiles(t *testing.T) {
	table, err := NewProfileTable(append(DefaultProfiles(), Profile{Platform: "threads", CharacterLimit: 500, Creativity: 0.6})...)
	require.NoError(t, err)
	reply := `{"platforms":["threads"],"title":"t","content":"c","needs_image":false}`
	got := NewAnalyzer(&ScriptedLLM{Fallback: ScriptRule{Reply: reply}}, nil).UseProfiles(table).Analyze(context.Background(), "cmd")
	assert.Equal(t, []Platform{"threads"}, got.Platforms)
	assert.Equal(t, SourceModel, got.Source)
}

func TestAnalyzeWithoutModel(t *testing.T) {
	got := NewAnalyzer(nil, nil).Analyze(context.Background(), "hola")
	assert.Equal(t, []Platform{Facebook, Instagram}, got.Platforms)
}

func TestAnalyzeUsesModelReply(t *testing.T) {
	reply := "```json\n" + `{"platforms":["Instagram","instagram","linkedin"],"title":"Café nuevo","content":"Lanzamos café","needs_image":false,"image_prompt":""}` + "\n```"
	llm := &ScriptedLLM{Fallback: ScriptRule{Reply: reply}}
	a := NewAnalyzer(llm, nil)

	got := a.Analyze(context.Background(), "Publica en Instagram y LinkedIn sobre el café")
	assert.Equal(t, []Platform{Instagram, LinkedIn}, got.Platforms)
	assert.Equal(t, "Café nuevo", got.Title)
	assert.Equal(t, "Lanzamos café", got.Content)
	assert.False(t, got.NeedsImage)
	assert.Equal(t, SourceModel, got.Source)

	calls := llm.Calls()
	require.Len(t, calls, 1)
	assert.InDelta(t, AnalyzerCreativity, calls[0].Temperature, 1e-9)
}

func TestAnalyzeDerivesImageNeed(t *testing.T) {
	reply := `{"platforms":["instagram"],"title":"t","content":""}`
	got := NewAnalyzer(&ScriptedLLM{Fallback: ScriptRule{Reply: reply}}, nil).Analyze(context.Background(), "cmd")
	assert.True(t, got.NeedsImage)
	assert.NotEmpty(t, got.ImagePrompt)
	assert.Equal(t, "cmd", got.Content)
}

func TestAnalyzeIsDeterministicWithStub(t *testing.T) {
	reply := `{"platforms":["facebook"],"title":"Evento","content":"Evento mañana","needs_image":false,"image_prompt":""}`
	a := NewAnalyzer(&ScriptedLLM{Fallback: ScriptRule{Reply: reply}}, nil)

	first := a.Analyze(context.Background(), "Publica en Facebook sobre el evento")
	second := a.Analyze(context.Background(), "Publica en Facebook sobre el evento")
	assert.Equal(t, first, second)

	fb := NewAnalyzer(nil, nil)
	assert.Equal(t, fb.Analyze(context.Background(), "x en insta"), fb.Analyze(context.Background(), "x en insta"))
}
